package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/ppiankov/storybias/internal/extract"
	"github.com/ppiankov/storybias/internal/llm"
	"github.com/ppiankov/storybias/internal/model"
	"github.com/ppiankov/storybias/internal/reference"
	"github.com/ppiankov/storybias/internal/scenario"
	"github.com/ppiankov/storybias/internal/stats"
	"github.com/ppiankov/storybias/internal/store"
	"github.com/ppiankov/storybias/internal/worker"
)

// Pipeline wires reference data, generation and analysis for the configured experiment
type Pipeline struct {
	config   *model.Config
	table    *reference.Table
	aliases  reference.AliasTable
	renderer *Renderer
	logger   *slog.Logger

	newProvider func(llm.Config) (llm.Provider, error)
}

// NewPipeline loads the reference table and, when present, the alias table.
// A missing alias file is only an error when alias matching is enabled.
func NewPipeline(cfg *model.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	table, err := reference.LoadTable(cfg.Data.Countries)
	if err != nil {
		return nil, err
	}
	for _, dup := range table.Duplicates() {
		logger.Warn("duplicate country in reference table, keeping first row", "country", dup)
	}

	var aliases reference.AliasTable
	if cfg.Data.Aliases != "" {
		aliases, err = reference.LoadAliases(cfg.Data.Aliases)
		if err != nil && (cfg.Extract.AliasMatching || !errors.Is(err, fs.ErrNotExist)) {
			return nil, err
		}
	}
	if aliases == nil && cfg.Extract.AliasMatching {
		return nil, fmt.Errorf("alias matching enabled but no alias table configured")
	}

	return &Pipeline{
		config:      cfg,
		table:       table,
		aliases:     aliases,
		renderer:    NewRenderer(),
		logger:      logger,
		newProvider: llm.NewProvider,
	}, nil
}

// Table returns the loaded reference table
func (p *Pipeline) Table() *reference.Table {
	return p.table
}

// Aliases returns the loaded alias table, nil when none was found
func (p *Pipeline) Aliases() reference.AliasTable {
	return p.aliases
}

// Inputs builds scenarios and prompts and writes both files. Existing
// scenarios are reused unless regenerate is set, so prompts can be
// re-rendered from a new template without reshuffling the characters.
func (p *Pipeline) Inputs(regenerate bool) ([]model.Scenario, []scenario.Prompt, error) {
	var scenarios []model.Scenario
	if !regenerate {
		existing, err := scenario.LoadScenarios(p.config.Data.Scenarios)
		switch {
		case err == nil:
			p.logger.Info("reusing scenarios", "path", p.config.Data.Scenarios, "count", len(existing))
			scenarios = existing
		case !errors.Is(err, fs.ErrNotExist):
			return nil, nil, err
		}
	}

	if scenarios == nil {
		combos := scenario.Combinations(p.table, model.Slots)
		built, err := scenario.Build(p.table, combos, p.config.Experiment.Seed)
		if err != nil {
			return nil, nil, err
		}
		scenarios = built
		err = scenario.SaveFile(p.config.Data.Scenarios, func(w io.Writer) error {
			return scenario.WriteScenarios(w, scenarios)
		})
		if err != nil {
			return nil, nil, err
		}
		p.logger.Info("scenarios written", "path", p.config.Data.Scenarios, "count", len(scenarios))
	}

	prompts := scenario.Template(p.config.Experiment.BasePrompt).RenderAll(scenarios)
	err := scenario.SaveFile(p.config.Data.Prompts, func(w io.Writer) error {
		return scenario.WritePrompts(w, prompts)
	})
	if err != nil {
		return nil, nil, err
	}
	p.logger.Info("prompts written", "path", p.config.Data.Prompts, "count", len(prompts))

	return scenarios, prompts, nil
}

// Generate runs every configured round for each model against the stored
// prompts, capped at the configured number of requests
func (p *Pipeline) Generate(ctx context.Context, st *store.Store, models []string) error {
	prompts, err := scenario.LoadPrompts(p.config.Data.Prompts)
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}
	if n := p.config.Experiment.NumberRequests; n > 0 && n < len(prompts) {
		prompts = prompts[:n]
	}

	// Resolve every provider before starting so a typo fails fast
	providers, err := p.providers(models)
	if err != nil {
		return err
	}

	run, err := st.BeginRun(ctx, models)
	if err != nil {
		return err
	}

	limiter := worker.NewLimiter(p.config.Concurrency.RequestsPerSecond, p.config.Concurrency.BurstSize)
	gen := NewGenerator(GeneratorConfig{
		Store:    st,
		Limiter:  limiter,
		Workers:  p.config.Concurrency.Workers,
		Attempts: p.config.Retry.Attempts,
		Delay:    p.config.Retry.Delay,
		Logger:   p.logger,
	})

	status := store.RunCompleted
	var runErr error
	for _, name := range models {
		result, err := gen.Run(ctx, run.ID, name, providers[name], prompts, p.config.Experiment.Rounds)
		if err != nil {
			runErr = fmt.Errorf("generate %s: %w", name, err)
			break
		}
		if result.Failed > 0 {
			status = store.RunFailed
		}
	}
	if runErr != nil {
		status = store.RunFailed
	}

	// The run context may already be cancelled; record the outcome regardless
	if err := st.FinishRun(context.WithoutCancel(ctx), run.ID, status); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// CheckProviders sends a minimal request to every model's backend and
// returns the names of the models that did not answer
func (p *Pipeline) CheckProviders(ctx context.Context, models []string) ([]string, error) {
	providers, err := p.providers(models)
	if err != nil {
		return nil, err
	}

	var unavailable []string
	for _, name := range models {
		if !providers[name].IsAvailable(ctx) {
			unavailable = append(unavailable, name)
		}
	}
	return unavailable, nil
}

func (p *Pipeline) providers(models []string) (map[string]llm.Provider, error) {
	providers := make(map[string]llm.Provider, len(models))
	for _, name := range models {
		lc, err := llm.ConfigFromModel(p.config, name)
		if err != nil {
			return nil, err
		}
		provider, err := p.newProvider(lc)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", name, err)
		}
		providers[name] = provider
	}
	return providers, nil
}

// Extractor builds the response extractor over the loaded reference data
func (p *Pipeline) Extractor(oracle extract.Oracle) *extract.Extractor {
	var resolver *reference.Resolver
	if p.aliases != nil {
		resolver = reference.NewResolver(p.aliases)
	}
	return extract.New(p.table, resolver, oracle, extract.Options{
		AliasMatching: p.config.Extract.AliasMatching,
	})
}

// Analyze extracts, aggregates and renders every model's stored responses
func (p *Pipeline) Analyze(ctx context.Context, st *store.Store, models []string, oracle extract.Oracle) ([]*Analysis, error) {
	scenarios, err := scenario.LoadScenarios(p.config.Data.Scenarios)
	if err != nil {
		return nil, fmt.Errorf("load scenarios: %w", err)
	}

	analyzer := NewAnalyzer(st, p.Extractor(oracle), stats.NewCalculator(p.table), p.logger)

	var analyses []*Analysis
	for _, name := range models {
		analysis, err := analyzer.Run(ctx, name, scenarios)
		if err != nil {
			return analyses, fmt.Errorf("analyze %s: %w", name, err)
		}

		written, err := p.renderer.RenderAll(analysis, p.config.Output.ResultsDir)
		if err != nil {
			return analyses, fmt.Errorf("render %s: %w", name, err)
		}
		for _, path := range written {
			p.logger.Debug("wrote output", "path", path)
		}

		analyses = append(analyses, analysis)
	}
	return analyses, nil
}

// RenderSummary prints the per-round overview of an analysis
func (p *Pipeline) RenderSummary(w io.Writer, analysis *Analysis) {
	p.renderer.RenderSummary(w, analysis.Report)
}
