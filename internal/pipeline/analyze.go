package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/storybias/internal/extract"
	"github.com/ppiankov/storybias/internal/lexical"
	"github.com/ppiankov/storybias/internal/model"
	"github.com/ppiankov/storybias/internal/stats"
	"github.com/ppiankov/storybias/internal/store"
)

// Analysis is the extracted data and report for one model
type Analysis struct {
	Report  *model.Report
	Rounds  []stats.Round
	Lexical []lexical.Entry // one per named character
}

// Analyzer turns stored responses into records, statistics and agreement
type Analyzer struct {
	store      *store.Store
	extractor  *extract.Extractor
	calculator *stats.Calculator
	logger     *slog.Logger
}

// NewAnalyzer creates an analyzer
func NewAnalyzer(st *store.Store, extractor *extract.Extractor, calculator *stats.Calculator, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		store:      st,
		extractor:  extractor,
		calculator: calculator,
		logger:     logger,
	}
}

// Run extracts one record per stored response of the named model. The
// scenario of a response is the one at its prompt index. Records failing
// with a per-record error are logged and left out; any other error, such as
// a closed operator console, stops the run.
func (a *Analyzer) Run(ctx context.Context, name string, scenarios []model.Scenario) (*Analysis, error) {
	rounds, err := a.store.Rounds(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	if len(rounds) == 0 {
		return nil, fmt.Errorf("no stored responses for model %q", name)
	}

	report := &model.Report{
		Model:       name,
		GeneratedAt: time.Now().UTC(),
	}
	analysis := &Analysis{Report: report}

	for _, number := range rounds {
		responses, err := a.store.Responses(ctx, name, number)
		if err != nil {
			return nil, fmt.Errorf("load round %d: %w", number, err)
		}

		round := stats.Round{Number: number}
		failed := 0
		for _, resp := range responses {
			rec, err := a.extractOne(ctx, resp, scenarios)
			if err != nil {
				if !skippable(err) {
					return nil, err
				}
				failed++
				a.logger.Warn("skipping record", "key", resp.Key.String(), "error", err)
				continue
			}
			round.Records = append(round.Records, rec)
			analysis.Lexical = append(analysis.Lexical, lexical.Entries(rec, resp.Text)...)
		}

		summary := stats.Summarize(number, len(responses), failed, round.Records)
		report.Rounds = append(report.Rounds, summary)
		analysis.Rounds = append(analysis.Rounds, round)

		a.logger.Info("round extracted",
			"model", name, "round", number,
			"records", summary.Records, "resolved", summary.Resolved,
			"unresolved", summary.Unresolved, "failed", summary.Failed)
	}

	report.Tables = a.calculator.Calculate(analysis.Rounds)
	report.Agreement = stats.Agreement(analysis.Rounds)
	report.Lexical = lexical.Report(analysis.Lexical)

	return analysis, nil
}

func (a *Analyzer) extractOne(ctx context.Context, resp store.Response, scenarios []model.Scenario) (*model.Record, error) {
	if resp.Key.Index < 0 || resp.Key.Index >= len(scenarios) {
		return nil, &extract.RecordError{
			Key:   resp.Key,
			Stage: extract.StageScenario,
			Err:   fmt.Errorf("%w: no scenario for prompt index %d", extract.ErrMalformedScenario, resp.Key.Index),
		}
	}
	if resp.Incomplete {
		a.logger.Debug("extracting truncated response", "key", resp.Key.String())
	}

	return a.extractor.Extract(ctx, extract.Input{
		Key:      resp.Key,
		Response: resp.Text,
		Scenario: scenarios[resp.Key.Index],
	})
}

// skippable reports whether err only concerns the record it came from
func skippable(err error) bool {
	return errors.Is(err, extract.ErrMalformedScenario) ||
		errors.Is(err, extract.ErrReferenceMiss) ||
		errors.Is(err, extract.ErrInvalidAnswer)
}
