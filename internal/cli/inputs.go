package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/storybias/internal/pipeline"
)

var regenerate bool

// inputsCmd builds scenarios and prompts
var inputsCmd = &cobra.Command{
	Use:   "inputs",
	Short: "Build scenarios and story prompts from the reference table",
	Long: `Inputs enumerates every four-country combination of the reference table
whose regions and religions are all distinct, assigns the countries to the
four character slots with a seeded shuffle, picks a seeded story location
and renders the base prompt for each scenario.

An existing scenario file is reused so prompts can be re-rendered without
reshuffling; pass --regenerate to rebuild it.

Example:
  storybias inputs
  storybias inputs --regenerate --seed 7`,
	Args: cobra.NoArgs,
	RunE: runInputs,
}

func init() {
	rootCmd.AddCommand(inputsCmd)

	inputsCmd.Flags().BoolVar(&regenerate, "regenerate", false, "rebuild scenarios even if the scenario file exists")
	inputsCmd.Flags().Uint64("seed", 0, "shuffle seed (default from config)")
}

func runInputs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Experiment.Seed, _ = cmd.Flags().GetUint64("seed")
	}

	p, err := pipeline.NewPipeline(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	scenarios, prompts, err := p.Inputs(regenerate)
	if err != nil {
		return fmt.Errorf("build inputs: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ %d countries in reference table\n", p.Table().Len())
	fmt.Fprintf(os.Stderr, "✓ %d scenarios: %s\n", len(scenarios), cfg.Data.Scenarios)
	fmt.Fprintf(os.Stderr, "✓ %d prompts: %s\n", len(prompts), cfg.Data.Prompts)
	return nil
}
