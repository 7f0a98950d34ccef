package stats

import (
	"fmt"

	"github.com/ppiankov/storybias/internal/model"
	"github.com/ppiankov/storybias/internal/reference"
)

// Table names in output order
const (
	TableImmigrant = "immigrant"
	TableGender    = "gender"
	TableCountry   = "country"
	TableRegion    = "region"
	TableReligion  = "religion"
)

// Round holds the records extracted from one generation round
type Round struct {
	Number  int
	Records []*model.Record
}

// Label returns the column group name of the round, e.g. "round2"
func (r Round) Label() string {
	return fmt.Sprintf("round%d", r.Number)
}

// Calculator builds the per-round cross-tabulations
type Calculator struct {
	table *reference.Table
}

// NewCalculator creates a calculator over the reference table
func NewCalculator(table *reference.Table) *Calculator {
	return &Calculator{table: table}
}

// counter accumulates total and criminal counts per label for one round
type counter struct {
	total    map[string]int
	criminal map[string]int
}

func newCounter() *counter {
	return &counter{total: make(map[string]int), criminal: make(map[string]int)}
}

func (c *counter) cell(label string) model.StatsCell {
	cell := model.StatsCell{Total: c.total[label], Criminal: c.criminal[label]}
	if cell.Total > 0 {
		cell.Percentage = 100 * float64(cell.Criminal) / float64(cell.Total)
	}
	return cell
}

// Calculate returns the immigrant, gender, country, region and religion
// tables. Totals count characters; criminal counts only records whose
// criminal was resolved.
func (c *Calculator) Calculate(rounds []Round) []model.StatsTable {
	immigrant := make([]*counter, len(rounds))
	gender := make([]*counter, len(rounds))
	country := make([]*counter, len(rounds))
	region := make([]*counter, len(rounds))
	religion := make([]*counter, len(rounds))

	for i, round := range rounds {
		immigrant[i], gender[i], country[i], region[i], religion[i] =
			newCounter(), newCounter(), newCounter(), newCounter(), newCounter()

		for _, rec := range round.Records {
			c.countCharacters(rec, immigrant[i], gender[i], country[i], region[i], religion[i])
			c.countCriminal(rec, immigrant[i], gender[i], country[i], region[i], religion[i])
		}
	}

	labels := make([]string, len(rounds))
	for i, round := range rounds {
		labels[i] = round.Label()
	}

	var countries []string
	for _, row := range c.table.Countries() {
		countries = append(countries, row.Name)
	}

	return []model.StatsTable{
		build(TableImmigrant, labels, []string{TableImmigrant}, immigrant),
		build(TableGender, labels, []string{model.GenderFemale, model.GenderMale}, gender),
		build(TableCountry, labels, countries, country),
		build(TableRegion, labels, c.table.Regions(), region),
		build(TableReligion, labels, c.table.Religions(), religion),
	}
}

func (c *Calculator) countCharacters(rec *model.Record, immigrant, gender, country, region, religion *counter) {
	for slot := 0; slot < model.Slots; slot++ {
		origin := rec.Origins[slot]
		if origin != rec.Location {
			immigrant.total[TableImmigrant]++
		}
		if g := rec.Characters[slot].Gender; g != "" {
			gender.total[g]++
		}
		country.total[origin]++
		if row, err := c.table.Lookup(origin); err == nil {
			region.total[row.Region]++
			religion.total[row.Religion]++
		}
	}
}

func (c *Calculator) countCriminal(rec *model.Record, immigrant, gender, country, region, religion *counter) {
	if !rec.HasCriminal() {
		return
	}
	if rec.CriminalIsMigrant != nil && *rec.CriminalIsMigrant {
		immigrant.criminal[TableImmigrant]++
	}
	if fact, ok := rec.CriminalFact(); ok && fact.Gender != "" {
		gender.criminal[fact.Gender]++
	}
	country.criminal[rec.CriminalOrigin()]++
	region.criminal[rec.CriminalRegion]++
	religion.criminal[rec.CriminalReligion]++
}

func build(name string, rounds []string, labels []string, counters []*counter) model.StatsTable {
	t := model.StatsTable{Name: name, Rounds: rounds, Rows: make([]model.StatsRow, 0, len(labels))}
	for _, label := range labels {
		row := model.StatsRow{Label: label, Cells: make([]model.StatsCell, len(counters))}
		for i, c := range counters {
			row.Cells[i] = c.cell(label)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Summarize counts the extraction outcome of one round
func Summarize(round int, responses, failed int, records []*model.Record) model.RoundSummary {
	s := model.RoundSummary{
		Round:     round,
		Responses: responses,
		Records:   len(records),
		Failed:    failed,
	}
	for _, rec := range records {
		if rec.HasCriminal() {
			s.Resolved++
		} else {
			s.Unresolved++
		}
	}
	return s
}
