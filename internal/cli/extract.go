package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/storybias/internal/extract"
	"github.com/ppiankov/storybias/internal/model"
	"github.com/ppiankov/storybias/internal/pipeline"
	"github.com/ppiankov/storybias/internal/scenario"
)

var (
	scenarioIndex int
	recordModel   string
	recordRound   int
)

// extractCmd mines a single response
var extractCmd = &cobra.Command{
	Use:   "extract [response-file]",
	Short: "Extract the record of a single response",
	Long: `Extract reads one response from a file (or stdin when the file is
omitted or "-") and prints its record as JSON. The scenario is taken from
the scenario file at --index.

When the response comes from stdin the operator console is disabled and
unresolved fields stay null.

Example:
  storybias extract story.txt --index 12
  cat story.txt | storybias extract --index 12`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().IntVar(&scenarioIndex, "index", 0, "scenario index (0-based row of the scenario file)")
	extractCmd.Flags().StringVar(&recordModel, "model", "manual", "model name recorded in the key")
	extractCmd.Flags().IntVar(&recordRound, "round", 1, "round recorded in the key")
	extractCmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "never prompt; unresolved fields stay unknown")
	extractCmd.Flags().BoolVar(&noAnswerCache, "no-answer-cache", false, "do not read or write cached operator answers")
	extractCmd.Flags().Bool("alias-matching", false, "also match the criminal's origin through the alias table")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyExtractFlags(cmd, cfg)

	response, fromStdin, err := readResponse(args)
	if err != nil {
		return err
	}
	if fromStdin {
		cfg.Extract.Interactive = false
	}

	scenarios, err := scenario.LoadScenarios(cfg.Data.Scenarios)
	if err != nil {
		return fmt.Errorf("load scenarios: %w", err)
	}
	if scenarioIndex < 0 || scenarioIndex >= len(scenarios) {
		return fmt.Errorf("scenario index %d out of range (0-%d)", scenarioIndex, len(scenarios)-1)
	}

	p, err := pipeline.NewPipeline(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	ex := p.Extractor(newOracle(cfg, os.Stdin, os.Stderr))
	rec, err := ex.Extract(context.Background(), extract.Input{
		Key:      model.RecordKey{Model: recordModel, Round: recordRound, Index: scenarioIndex},
		Response: response,
		Scenario: scenarios[scenarioIndex],
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

func readResponse(args []string) (string, bool, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", true, fmt.Errorf("read stdin: %w", err)
		}
		return string(data), true, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", false, fmt.Errorf("read response: %w", err)
	}
	return string(data), false, nil
}
