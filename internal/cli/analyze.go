package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/storybias/internal/cache"
	"github.com/ppiankov/storybias/internal/extract"
	"github.com/ppiankov/storybias/internal/model"
	"github.com/ppiankov/storybias/internal/pipeline"
	"github.com/ppiankov/storybias/internal/resolve"
	"github.com/ppiankov/storybias/internal/store"
)

var (
	nonInteractive bool
	noAnswerCache  bool
)

// analyzeCmd extracts records and computes statistics
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Extract records from stored responses and compute statistics",
	Long: `Analyze mines every stored response of each model:
- Character names and genders are read from the labelled character list
- The criminal is matched by origin, then by name; otherwise the operator
  is asked (disable with --non-interactive)
- Migration status, region and religion come from the reference table

It then writes per-round record files, criminal-rate tables, inter-round
agreement (Cohen's kappa), per-character vocabulary metrics compared across
nationality, religion, gender and migration status (one-way ANOVA), and
JSON/Markdown reports to output.results_dir.

Operator answers are cached so a re-run only asks about new responses.

Example:
  storybias analyze
  storybias analyze --models claude --non-interactive`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringSliceVar(&modelNames, "models", nil, "models to analyze (default: experiment.testing_models)")
	analyzeCmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "never prompt; unresolved fields stay unknown")
	analyzeCmd.Flags().BoolVar(&noAnswerCache, "no-answer-cache", false, "do not read or write cached operator answers")
	analyzeCmd.Flags().Bool("alias-matching", false, "also match the criminal's origin through the alias table")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyExtractFlags(cmd, cfg)
	models := selectModels(cfg)

	ctx, cancel := commandContext(0)
	defer cancel()

	banner("storybias analysis")
	fmt.Fprintf(os.Stderr, "  Models:       %v\n", models)
	fmt.Fprintf(os.Stderr, "  Interactive:  %v\n", cfg.Extract.Interactive)
	fmt.Fprintf(os.Stderr, "  Aliases:      %v\n", cfg.Extract.AliasMatching)
	fmt.Fprintf(os.Stderr, "  Results dir:  %s\n", cfg.Output.ResultsDir)
	fmt.Fprintf(os.Stderr, "\n")

	p, err := pipeline.NewPipeline(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Data.Checkpoint)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	analyses, err := p.Analyze(ctx, st, models, newOracle(cfg, os.Stdin, os.Stderr))
	for _, analysis := range analyses {
		p.RenderSummary(os.Stderr, analysis)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		return err
	}

	fmt.Fprintf(os.Stderr, "\n✓ Wrote results for %d model(s) to %s\n", len(analyses), cfg.Output.ResultsDir)
	return nil
}

func applyExtractFlags(cmd *cobra.Command, cfg *model.Config) {
	if nonInteractive {
		cfg.Extract.Interactive = false
	}
	if noAnswerCache {
		cfg.Extract.AnswerCache = false
	}
	if cmd.Flags().Changed("alias-matching") {
		cfg.Extract.AliasMatching, _ = cmd.Flags().GetBool("alias-matching")
	}
}

// newOracle returns the operator console, or a never-answering oracle in
// non-interactive mode, optionally behind the answer cache
func newOracle(cfg *model.Config, in io.Reader, out io.Writer) extract.Oracle {
	var oracle extract.Oracle = resolve.Unresolved{}
	if cfg.Extract.Interactive {
		oracle = resolve.NewConsole(in, out)
	}
	if cfg.Extract.AnswerCache && cfg.Extract.CacheDir != "" {
		answers := cache.NewLayeredCache(cfg.Extract.CacheTTL, cfg.Extract.CacheDir, cfg.Extract.CacheTTL)
		oracle = resolve.NewCached(oracle, answers, cfg.Extract.CacheTTL)
	}
	return oracle
}
