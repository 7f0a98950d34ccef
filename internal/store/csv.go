package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ppiankov/storybias/internal/model"
)

// ExportCSV writes one model's responses as a ;-separated table with one
// column per round (round1, round2, ...) and one row per prompt index.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer, modelName string) error {
	rounds, err := s.Rounds(ctx, modelName)
	if err != nil {
		return err
	}

	byRound := make(map[int]map[int]string, len(rounds))
	maxIndex := -1
	for _, round := range rounds {
		responses, err := s.Responses(ctx, modelName, round)
		if err != nil {
			return err
		}
		byRound[round] = make(map[int]string, len(responses))
		for _, r := range responses {
			byRound[round][r.Key.Index] = r.Text
			maxIndex = max(maxIndex, r.Key.Index)
		}
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	header := make([]string, len(rounds))
	for i, round := range rounds {
		header[i] = "round" + strconv.Itoa(round)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for idx := 0; idx <= maxIndex; idx++ {
		row := make([]string, len(rounds))
		for i, round := range rounds {
			row[i] = byRound[round][idx]
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ImportCSV loads a table written by ExportCSV for modelName. Empty cells are skipped.
// It returns the number of responses saved.
func (s *Store) ImportCSV(ctx context.Context, r io.Reader, modelName, runID string) (int, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}

	rounds := make([]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		n, err := strconv.Atoi(strings.TrimPrefix(h, "round"))
		if !strings.HasPrefix(h, "round") || err != nil || n < 1 {
			return 0, fmt.Errorf("column %d: expected roundN header, got %q", i+1, header[i])
		}
		rounds[i] = n
	}

	saved := 0
	for idx := 0; ; idx++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return saved, fmt.Errorf("row %d: %w", idx+1, err)
		}
		for i, text := range rec {
			if strings.TrimSpace(text) == "" {
				continue
			}
			key := model.RecordKey{Model: modelName, Round: rounds[i], Index: idx}
			if err := s.Save(ctx, Response{Key: key, Text: text, RunID: runID}); err != nil {
				return saved, err
			}
			saved++
		}
	}

	return saved, nil
}
