package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ppiankov/storybias/internal/lexical"
	"github.com/ppiankov/storybias/internal/model"
	"github.com/ppiankov/storybias/internal/scenario"
	"github.com/ppiankov/storybias/internal/stats"
)

// Renderer writes analysis outputs
type Renderer struct{}

// NewRenderer creates a renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RecordsPath is the per-round extraction file of a model
func RecordsPath(dir, name string, round int) string {
	return filepath.Join(dir, fmt.Sprintf("extracted_info_%s_round%d.csv", name, round))
}

// RenderAll writes every output of an analysis into dir and returns the paths written
func (r *Renderer) RenderAll(analysis *Analysis, dir string) ([]string, error) {
	name := analysis.Report.Model
	var written []string

	for _, round := range analysis.Rounds {
		path := RecordsPath(dir, name, round.Number)
		if err := scenario.SaveFile(path, func(w io.Writer) error { return r.WriteRecords(w, round.Records) }); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	outputs := []struct {
		suffix string
		write  func(io.Writer) error
	}{
		{"_results.csv", func(w io.Writer) error { return r.WriteResults(w, analysis.Report.Tables) }},
		{"_agreement.csv", func(w io.Writer) error { return r.WriteAgreement(w, analysis.Report.Agreement) }},
		{"_lexical.csv", func(w io.Writer) error { return r.WriteLexical(w, analysis.Lexical) }},
		{"_report.json", func(w io.Writer) error { return r.WriteJSON(w, analysis.Report) }},
		{"_report.md", func(w io.Writer) error { return r.WriteMarkdown(w, analysis.Report) }},
	}
	for _, out := range outputs {
		path := filepath.Join(dir, name+out.suffix)
		if err := scenario.SaveFile(path, out.write); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	return written, nil
}

// WriteRecords writes records as comma-separated rows in record column order
func (r *Renderer) WriteRecords(w io.Writer, records []*model.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.RecordColumns); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(rec.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteResults writes the statistics tables with one total/criminal/percentage
// column group per round
func (r *Renderer) WriteResults(w io.Writer, tables []model.StatsTable) error {
	cw := csv.NewWriter(w)

	var rounds []string
	if len(tables) > 0 {
		rounds = tables[0].Rounds
	}
	header := []string{"table", "label"}
	for _, round := range rounds {
		header = append(header, round+"_total", round+"_criminal", round+"_percentage")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, table := range tables {
		for _, row := range table.Rows {
			line := []string{table.Name, row.Label}
			for _, cell := range row.Cells {
				line = append(line,
					strconv.Itoa(cell.Total),
					strconv.Itoa(cell.Criminal),
					strconv.FormatFloat(cell.Percentage, 'f', 2, 64))
			}
			if err := cw.Write(line); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteAgreement writes one kappa score per column and round pair. An
// undefined score is written as its error message.
func (r *Renderer) WriteAgreement(w io.Writer, agreements []model.Agreement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Column", "Rater Pair", "Kappa Score", "N"}); err != nil {
		return err
	}
	for _, a := range agreements {
		if err := cw.Write([]string{a.Column, a.RaterPair, kappaString(a), strconv.Itoa(a.N)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func kappaString(a model.Agreement) string {
	if !a.Defined {
		return "Error: " + a.Error
	}
	return strconv.FormatFloat(a.Kappa, 'f', 4, 64)
}

// WriteLexical writes one row of vocabulary metrics per character description
func (r *Renderer) WriteLexical(w io.Writer, entries []lexical.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(lexical.Columns); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write(e.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the report as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteMarkdown writes a human-readable report
func (r *Renderer) WriteMarkdown(w io.Writer, report *model.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Story bias report: %s\n\n", report.Model)
	fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))

	b.WriteString("## Extraction\n\n")
	b.WriteString("| Round | Responses | Records | Resolved | Unresolved | Failed |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, s := range report.Rounds {
		fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d |\n",
			s.Round, s.Responses, s.Records, s.Resolved, s.Unresolved, s.Failed)
	}
	b.WriteString("\n")

	for _, table := range report.Tables {
		fmt.Fprintf(&b, "## %s\n\n", titleCase(table.Name))
		b.WriteString("| |")
		for _, round := range table.Rounds {
			fmt.Fprintf(&b, " %s total | %s criminal | %s %% |", round, round, round)
		}
		b.WriteString("\n|---|")
		b.WriteString(strings.Repeat("---|---|---|", len(table.Rounds)))
		b.WriteString("\n")
		for _, row := range table.Rows {
			fmt.Fprintf(&b, "| %s |", row.Label)
			for _, cell := range row.Cells {
				fmt.Fprintf(&b, " %d | %d | %.2f |", cell.Total, cell.Criminal, cell.Percentage)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(report.Agreement) > 0 {
		b.WriteString("## Inter-round agreement (Cohen's kappa)\n\n")
		b.WriteString("| Column | Rounds | Kappa | N |\n|---|---|---|---|\n")
		for _, a := range report.Agreement {
			fmt.Fprintf(&b, "| %s | %s | %s | %d |\n", a.Column, a.RaterPair, kappaString(a), a.N)
		}
	}

	if lex := report.Lexical; lex != nil && len(lex.Rounds) > 0 {
		b.WriteString("\n## Character descriptions\n\n")
		b.WriteString("| Round | Descriptions | With text | Mean words | Mean TTR |\n|---|---|---|---|---|\n")
		for _, s := range lex.Rounds {
			fmt.Fprintf(&b, "| %d | %d | %d | %.2f | %.4f |\n", s.Round, s.Descriptions, s.Valid, s.MeanWords, s.MeanTTR)
		}
		for _, c := range lex.Comparisons {
			fmt.Fprintf(&b, "\n### TTR by %s\n\n", c.Dimension)
			b.WriteString("| Group | N | Mean TTR | Std TTR | Mean unique words | High-frequency ratio |\n|---|---|---|---|---|---|\n")
			for _, g := range c.Groups {
				fmt.Fprintf(&b, "| %s | %d | %.4f | %.4f | %.2f | %.4f |\n",
					g.Label, g.Count, g.MeanTTR, g.StdTTR, g.MeanUniqueWords, g.MeanHighFreqRatio)
			}
			if c.Defined {
				fmt.Fprintf(&b, "\nANOVA: F=%.4f, p=%.4f\n", c.F, c.P)
			} else {
				fmt.Fprintf(&b, "\nANOVA: %s\n", c.Error)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderSummary prints a short per-round overview
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	fmt.Fprintf(w, "\n%s\n", report.Model)
	for _, s := range report.Rounds {
		fmt.Fprintf(w, "  round %d: %d responses, %d resolved, %d unresolved, %d failed\n",
			s.Round, s.Responses, s.Resolved, s.Unresolved, s.Failed)
	}
	for _, table := range report.Tables {
		if table.Name != stats.TableImmigrant || len(table.Rows) == 0 {
			continue
		}
		for i, cell := range table.Rows[0].Cells {
			fmt.Fprintf(w, "  %s: %.1f%% of migrant characters were the criminal\n", table.Rounds[i], cell.Percentage)
		}
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
