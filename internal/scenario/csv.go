package scenario

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ppiankov/storybias/internal/model"
)

// Separator used by scenario and prompt files
const Separator = ';'

// ScenarioColumns is the header of a scenario file
var ScenarioColumns = scenarioColumns()

func scenarioColumns() []string {
	var cols []string
	for slot := 1; slot <= model.Slots; slot++ {
		cols = append(cols, "origin"+strconv.Itoa(slot))
	}
	for slot := 1; slot <= model.Slots; slot++ {
		cols = append(cols, "religion"+strconv.Itoa(slot))
	}
	return append(cols, "location")
}

func scenarioRow(s model.Scenario) []string {
	row := make([]string, 0, len(ScenarioColumns))
	row = append(row, s.Origins[:]...)
	row = append(row, s.Religions[:]...)
	return append(row, s.Location)
}

// WriteScenarios writes scenarios with a header row
func WriteScenarios(w io.Writer, scenarios []model.Scenario) error {
	cw := newWriter(w)
	if err := cw.Write(ScenarioColumns); err != nil {
		return err
	}
	for _, s := range scenarios {
		if err := cw.Write(scenarioRow(s)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePrompts writes prompts followed by their scenario columns
func WritePrompts(w io.Writer, prompts []Prompt) error {
	cw := newWriter(w)
	if err := cw.Write(append([]string{"prompt"}, ScenarioColumns...)); err != nil {
		return err
	}
	for _, p := range prompts {
		if err := cw.Write(append([]string{p.Text}, scenarioRow(p.Scenario)...)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadScenarios reads a scenario file. Columns are found by header name,
// so prompt files can be read as scenario files too.
func ReadScenarios(r io.Reader) ([]model.Scenario, error) {
	prompts, err := ReadPrompts(r)
	if err != nil {
		return nil, err
	}
	scenarios := make([]model.Scenario, len(prompts))
	for i, p := range prompts {
		scenarios[i] = p.Scenario
	}
	return scenarios, nil
}

// ReadPrompts reads a prompt file. The prompt column is optional.
func ReadPrompts(r io.Reader) ([]Prompt, error) {
	cr := csv.NewReader(r)
	cr.Comma = Separator
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range ScenarioColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}
	promptCol, hasPrompt := index["prompt"]

	var prompts []Prompt
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		field := func(col string) string {
			return strings.TrimSpace(rec[index[col]])
		}

		var p Prompt
		if hasPrompt {
			p.Text = rec[promptCol]
		}
		p.Scenario.Location = field("location")
		for slot := 1; slot <= model.Slots; slot++ {
			n := strconv.Itoa(slot)
			p.Scenario.Origins[slot-1] = field("origin" + n)
			p.Scenario.Religions[slot-1] = field("religion" + n)
		}
		prompts = append(prompts, p)
	}

	return prompts, nil
}

// LoadPrompts reads a prompt or scenario file from disk
func LoadPrompts(path string) ([]Prompt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	prompts, err := ReadPrompts(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prompts, nil
}

// LoadScenarios reads a scenario file from disk
func LoadScenarios(path string) ([]model.Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scenarios, err := ReadScenarios(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenarios, nil
}

// SaveFile creates path (and its directory) and hands it to write
func SaveFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = Separator
	return cw
}
