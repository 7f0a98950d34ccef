package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrUnknownCountry is returned when a country is missing from the reference table
var ErrUnknownCountry = errors.New("country not in reference table")

// Country is one row of the reference table
type Country struct {
	Name     string `json:"country"`
	Region   string `json:"region"`
	Religion string `json:"religion"`
}

// Table is the immutable Country -> (Region, Religion) lookup.
// It is safe for concurrent reads.
type Table struct {
	rows       []Country
	index      map[string]int
	duplicates []string
}

// NewTable builds a table from rows. When a country appears more than once
// the first row wins and the name is recorded in Duplicates.
func NewTable(rows []Country) *Table {
	t := &Table{
		rows:  make([]Country, 0, len(rows)),
		index: make(map[string]int, len(rows)),
	}
	for _, row := range rows {
		row.Name = strings.TrimSpace(row.Name)
		row.Region = strings.TrimSpace(row.Region)
		row.Religion = strings.TrimSpace(row.Religion)
		if _, exists := t.index[row.Name]; exists {
			t.duplicates = append(t.duplicates, row.Name)
			continue
		}
		t.index[row.Name] = len(t.rows)
		t.rows = append(t.rows, row)
	}
	return t
}

// LoadTable reads a ;-separated reference file with a Country;Region;Religion header
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference table: %w", err)
	}
	defer func() { _ = f.Close() }()

	table, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("read reference table %s: %w", path, err)
	}
	return table, nil
}

// ReadTable parses reference rows from r
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header, "Country", "Region", "Religion")
	if err != nil {
		return nil, err
	}

	var rows []Country
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, Country{
			Name:     record[cols[0]],
			Region:   record[cols[1]],
			Religion: record[cols[2]],
		})
	}

	return NewTable(rows), nil
}

// columnIndex finds the position of each named column in a header row
func columnIndex(header []string, names ...string) ([]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		positions[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	idx := make([]int, len(names))
	for i, name := range names {
		pos, ok := positions[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		idx[i] = pos
	}
	return idx, nil
}

// Lookup returns the row for an exact canonical country name
func (t *Table) Lookup(name string) (Country, error) {
	i, ok := t.index[name]
	if !ok {
		return Country{}, fmt.Errorf("%w: %q", ErrUnknownCountry, name)
	}
	return t.rows[i], nil
}

// Has reports whether the country is present
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of distinct countries
func (t *Table) Len() int {
	return len(t.rows)
}

// Countries returns the rows in file order
func (t *Table) Countries() []Country {
	out := make([]Country, len(t.rows))
	copy(out, t.rows)
	return out
}

// Regions returns the distinct regions in order of first appearance
func (t *Table) Regions() []string {
	return t.distinct(func(c Country) string { return c.Region })
}

// Religions returns the distinct religions in order of first appearance
func (t *Table) Religions() []string {
	return t.distinct(func(c Country) string { return c.Religion })
}

// Duplicates lists country names that appeared more than once in the source
func (t *Table) Duplicates() []string {
	out := make([]string, len(t.duplicates))
	copy(out, t.duplicates)
	return out
}

func (t *Table) distinct(field func(Country) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range t.rows {
		v := field(row)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
