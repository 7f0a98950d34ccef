package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/storybias/internal/model"
	"github.com/ppiankov/storybias/internal/pipeline"
	"github.com/ppiankov/storybias/internal/store"
)

var (
	modelNames      []string
	generateTimeout time.Duration
	preflight       bool
)

// generateCmd collects responses from the configured models
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate story responses for every prompt and round",
	Long: `Generate sends every prompt to each testing model for the configured
number of rounds:
- Prompts are fanned out over a worker pool, rate limited per provider
- Failed and truncated responses are retried with backoff
- Every response is checkpointed in the sqlite store as it arrives, so an
  interrupted run resumes where it stopped

Example:
  storybias generate
  storybias generate --models chatgpt,llama --rounds 5 --workers 8`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringSliceVar(&modelNames, "models", nil, "models to run (default: experiment.testing_models)")
	generateCmd.Flags().Int("rounds", 0, "generation rounds (default from config)")
	generateCmd.Flags().Int("workers", 0, "concurrent requests (default from config)")
	generateCmd.Flags().Int("requests", 0, "number of prompts to send (default from config)")
	generateCmd.Flags().DurationVar(&generateTimeout, "timeout", 0, "overall timeout (0 = none)")
	generateCmd.Flags().BoolVar(&preflight, "preflight", false, "check every model backend with a minimal request before generating")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("rounds") {
		cfg.Experiment.Rounds, _ = cmd.Flags().GetInt("rounds")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Concurrency.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("requests") {
		cfg.Experiment.NumberRequests, _ = cmd.Flags().GetInt("requests")
	}
	models := selectModels(cfg)

	ctx, cancel := commandContext(generateTimeout)
	defer cancel()

	banner("storybias generation")
	fmt.Fprintf(os.Stderr, "  Models:       %v\n", models)
	fmt.Fprintf(os.Stderr, "  Rounds:       %d\n", cfg.Experiment.Rounds)
	fmt.Fprintf(os.Stderr, "  Requests:     %d\n", cfg.Experiment.NumberRequests)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Checkpoint:   %s\n", cfg.Data.Checkpoint)
	fmt.Fprintf(os.Stderr, "\n")

	p, err := pipeline.NewPipeline(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	if preflight {
		unavailable, err := p.CheckProviders(ctx, models)
		if err != nil {
			return err
		}
		if len(unavailable) > 0 {
			return fmt.Errorf("model backend not available: %v", unavailable)
		}
		fmt.Fprintf(os.Stderr, "✓ All model backends answered\n\n")
	}

	st, err := store.Open(cfg.Data.Checkpoint)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := p.Generate(ctx, st, models); err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		fmt.Fprintf(os.Stderr, "  Re-run the same command to resume from the checkpoint.\n")
		return err
	}

	fmt.Fprintf(os.Stderr, "✓ Generation complete\n")
	return nil
}

// selectModels returns the --models flag or the configured testing models
func selectModels(cfg *model.Config) []string {
	if len(modelNames) > 0 {
		return modelNames
	}
	return cfg.Experiment.TestingModels
}

// commandContext cancels on interrupt and, when timeout is set, on deadline
func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
