package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/ppiankov/storybias/internal/extract"
	"github.com/ppiankov/storybias/internal/llm"
	"github.com/ppiankov/storybias/internal/model"
	"github.com/ppiankov/storybias/internal/scenario"
	"github.com/ppiankov/storybias/internal/store"
	"github.com/ppiankov/storybias/internal/worker"
)

// GeneratorConfig configures a Generator
type GeneratorConfig struct {
	Store    *store.Store
	Limiter  *worker.Limiter // nil runs unthrottled
	Workers  int
	Attempts uint
	Delay    time.Duration
	Logger   *slog.Logger
}

// Generator sends prompts to a provider round by round and checkpoints
// every response in the store as soon as it arrives
type Generator struct {
	store    *store.Store
	batch    *worker.BatchProcessor
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

// GenerateStats counts the outcome of one generation run
type GenerateStats struct {
	Skipped    int // already checkpointed
	Generated  int
	Incomplete int // saved truncated after the last attempt
	Failed     int
}

// NewGenerator creates a generator
func NewGenerator(cfg GeneratorConfig) *Generator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = 1
	}

	return &Generator{
		store:    cfg.Store,
		batch:    worker.NewBatchProcessor(cfg.Limiter, cfg.Workers),
		attempts: attempts,
		delay:    cfg.Delay,
		logger:   logger,
	}
}

// Run generates rounds x prompts responses for the named model. Entries
// already in the store are skipped, so an interrupted run resumes where it
// stopped. Per-prompt failures are logged and counted; Run itself only
// fails when the store cannot be read.
func (g *Generator) Run(ctx context.Context, runID, name string, provider llm.Provider, prompts []scenario.Prompt, rounds int) (GenerateStats, error) {
	var stats GenerateStats
	var generated, incomplete atomic.Int64

	var tasks []worker.Task
	for round := 1; round <= rounds; round++ {
		for i, prompt := range prompts {
			key := model.RecordKey{Model: name, Round: round, Index: i}

			done, err := g.store.Has(ctx, key)
			if err != nil {
				return stats, fmt.Errorf("check checkpoint %s: %w", key, err)
			}
			if done {
				stats.Skipped++
				continue
			}

			text := prompt.Text
			tasks = append(tasks, worker.Task{
				Key:   key,
				Limit: provider.Name(),
				Run: func(ctx context.Context) error {
					truncated, err := g.generate(ctx, runID, key, provider, text)
					if err != nil {
						return err
					}
					if truncated {
						incomplete.Add(1)
					} else {
						generated.Add(1)
					}
					return nil
				},
			})
		}
	}

	g.logger.Info("generation started",
		"model", name, "provider", provider.Name(),
		"pending", len(tasks), "skipped", stats.Skipped)

	for _, result := range g.batch.Process(ctx, tasks) {
		if result.Error != nil {
			stats.Failed++
			g.logger.Error("generation failed", "key", result.Key.String(), "error", result.Error)
			continue
		}
		g.logger.Debug("response saved", "key", result.Key.String(), "duration", result.Duration)
	}

	stats.Generated = int(generated.Load())
	stats.Incomplete = int(incomplete.Load())

	g.logger.Info("generation finished",
		"model", name, "generated", stats.Generated,
		"incomplete", stats.Incomplete, "failed", stats.Failed)

	return stats, ctx.Err()
}

// generate requests one response with retries and saves it. A response is
// incomplete when the provider truncated it or when it never names the
// criminal; one still incomplete after the last attempt is saved flagged
// incomplete so a later run tries it again.
func (g *Generator) generate(ctx context.Context, runID string, key model.RecordKey, provider llm.Provider, prompt string) (bool, error) {
	var attempts int
	var partial *llm.GenerateResponse

	resp, err := retry.DoWithData(
		func() (*llm.GenerateResponse, error) {
			attempts++
			resp, err := provider.Generate(ctx, llm.GenerateRequest{Prompt: prompt})
			if resp != nil {
				partial = resp
			}
			if err == nil && (resp == nil || !extract.HasVerdict(resp.Text)) {
				err = fmt.Errorf("%s: %w (no verdict sentence)", provider.Name(), llm.ErrIncomplete)
			}
			return resp, err
		},
		retry.Context(ctx),
		retry.Attempts(g.attempts),
		retry.Delay(g.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(llm.IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			g.logger.Warn("retrying generation", "key", key.String(), "attempt", n+1, "error", err)
		}),
	)

	truncated := false
	if err != nil {
		if !errors.Is(err, llm.ErrIncomplete) || partial == nil {
			return false, err
		}
		resp, truncated = partial, true
		g.logger.Warn("keeping truncated response", "key", key.String(), "attempts", attempts)
	}

	saveErr := g.store.Save(ctx, store.Response{
		Key:        key,
		Text:       resp.Text,
		Incomplete: truncated,
		Attempts:   attempts,
		Tokens:     resp.TokensUsed,
		RunID:      runID,
	})
	if saveErr != nil {
		return false, fmt.Errorf("save response: %w", saveErr)
	}
	return truncated, nil
}
