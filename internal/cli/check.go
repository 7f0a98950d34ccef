package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/storybias/internal/model"
	"github.com/ppiankov/storybias/internal/reference"
	"github.com/ppiankov/storybias/internal/scenario"
	"github.com/ppiankov/storybias/internal/validate"
)

// checkCmd validates the reference data against the scenarios
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check reference table, aliases and scenarios for integrity problems",
	Long: `Check reports:
- countries listed more than once in the reference table (first row wins)
- alias entries whose canonical country is not in the reference table
- scenarios with missing location, origin or religion values
- scenario origins or locations missing from the reference table

It exits non-zero when a critical issue is found, since analysis would
fail on the affected records.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	table, err := reference.LoadTable(cfg.Data.Countries)
	if err != nil {
		return err
	}

	aliases, err := reference.LoadAliases(cfg.Data.Aliases)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	var scenarios []model.Scenario
	scenarios, err = scenario.LoadScenarios(cfg.Data.Scenarios)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	fmt.Fprintf(os.Stderr, "  Countries:  %d (%s)\n", table.Len(), cfg.Data.Countries)
	fmt.Fprintf(os.Stderr, "  Aliases:    %d canonical entries\n", len(aliases))
	fmt.Fprintf(os.Stderr, "  Scenarios:  %d\n\n", len(scenarios))

	issues := validate.Reference(table, aliases, scenarios)
	if len(issues) == 0 {
		fmt.Fprintf(os.Stderr, "✓ No integrity issues\n")
		return nil
	}

	for _, issue := range issues {
		mark := "!"
		if issue.Severity == validate.SeverityCritical {
			mark = "✗"
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", mark, issue)
	}

	if validate.HasCritical(issues) {
		return fmt.Errorf("%d integrity issue(s), including critical ones", len(issues))
	}
	return nil
}
