package stats

import (
	"math"
	"testing"

	"github.com/ppiankov/storybias/internal/model"
	"github.com/ppiankov/storybias/internal/reference"
)

func testTable() *reference.Table {
	return reference.NewTable([]reference.Country{
		{Name: "Nigeria", Region: "Africa", Religion: "Christianity"},
		{Name: "Peru", Region: "South America", Religion: "Catholicism"},
		{Name: "Laos", Region: "Asia", Religion: "Buddhism"},
		{Name: "Iraq", Region: "Middle East", Religion: "Islam"},
	})
}

func boolPtr(b bool) *bool { return &b }

// record builds a Nigeria-located record with the given criminal slot (0 = unknown)
func record(index, criminal int, genders ...string) *model.Record {
	rec := &model.Record{
		Key:       model.RecordKey{Model: "gpt", Round: 1, Index: index},
		Location:  "Nigeria",
		Origins:   [model.Slots]string{"Nigeria", "Peru", "Laos", "Iraq"},
		Religions: [model.Slots]string{"Christianity", "Catholicism", "Buddhism", "Islam"},
	}
	for i, g := range genders {
		rec.Characters[i] = model.CharacterFact{Name: "N", Gender: g}
	}
	if criminal > 0 {
		table := testTable()
		row, _ := table.Lookup(rec.Origins[criminal-1])
		rec.Criminal = criminal
		rec.CriminalIsMigrant = boolPtr(rec.Origins[criminal-1] != rec.Location)
		rec.CriminalRegion = row.Region
		rec.CriminalReligion = row.Religion
	}
	return rec
}

func findRow(t *testing.T, tables []model.StatsTable, name, label string) model.StatsRow {
	t.Helper()
	for _, table := range tables {
		if table.Name != name {
			continue
		}
		for _, row := range table.Rows {
			if row.Label == label {
				return row
			}
		}
	}
	t.Fatalf("row %s/%s not found", name, label)
	return model.StatsRow{}
}

func TestCalculator_Calculate(t *testing.T) {
	calc := NewCalculator(testTable())
	rounds := []Round{{
		Number: 1,
		Records: []*model.Record{
			record(0, 2, "male", "female", "male", "female"),
			record(1, 1, "male", "male", "female", ""),
			record(2, 0, "female", "female", "male", "male"),
		},
	}}

	tables := calc.Calculate(rounds)

	if len(tables) != 5 {
		t.Fatalf("Expected 5 tables, got %d", len(tables))
	}
	names := []string{TableImmigrant, TableGender, TableCountry, TableRegion, TableReligion}
	for i, name := range names {
		if tables[i].Name != name {
			t.Errorf("Expected table %d to be %s, got %s", i, name, tables[i].Name)
		}
		if len(tables[i].Rounds) != 1 || tables[i].Rounds[0] != "round1" {
			t.Errorf("Expected rounds [round1], got %v", tables[i].Rounds)
		}
	}

	immigrant := findRow(t, tables, TableImmigrant, TableImmigrant).Cells[0]
	if immigrant.Total != 9 || immigrant.Criminal != 1 {
		t.Errorf("Expected immigrant 9/1, got %d/%d", immigrant.Total, immigrant.Criminal)
	}

	female := findRow(t, tables, TableGender, "female").Cells[0]
	if female.Total != 5 || female.Criminal != 1 {
		t.Errorf("Expected female 5/1, got %d/%d", female.Total, female.Criminal)
	}
	if math.Abs(female.Percentage-20) > 1e-9 {
		t.Errorf("Expected female percentage 20, got %f", female.Percentage)
	}

	male := findRow(t, tables, TableGender, "male").Cells[0]
	if male.Total != 6 || male.Criminal != 1 {
		t.Errorf("Expected male 6/1, got %d/%d", male.Total, male.Criminal)
	}

	peru := findRow(t, tables, TableCountry, "Peru").Cells[0]
	if peru.Total != 3 || peru.Criminal != 1 {
		t.Errorf("Expected Peru 3/1, got %d/%d", peru.Total, peru.Criminal)
	}

	africa := findRow(t, tables, TableRegion, "Africa").Cells[0]
	if africa.Total != 3 || africa.Criminal != 1 {
		t.Errorf("Expected Africa 3/1, got %d/%d", africa.Total, africa.Criminal)
	}

	islam := findRow(t, tables, TableReligion, "Islam").Cells[0]
	if islam.Total != 3 || islam.Criminal != 0 || islam.Percentage != 0 {
		t.Errorf("Expected Islam 3/0/0, got %+v", islam)
	}
}

func TestCalculator_EmptyRoundHasZeroPercentages(t *testing.T) {
	calc := NewCalculator(testTable())
	tables := calc.Calculate([]Round{{Number: 1}, {Number: 2}})

	for _, table := range tables {
		for _, row := range table.Rows {
			if len(row.Cells) != 2 {
				t.Fatalf("Expected 2 cells in %s/%s, got %d", table.Name, row.Label, len(row.Cells))
			}
			for _, cell := range row.Cells {
				if cell.Total != 0 || cell.Percentage != 0 {
					t.Errorf("Expected empty cell in %s/%s, got %+v", table.Name, row.Label, cell)
				}
			}
		}
	}
}

func TestSummarize(t *testing.T) {
	records := []*model.Record{record(0, 1), record(1, 0), record(2, 3)}
	s := Summarize(2, 5, 2, records)

	if s.Round != 2 || s.Responses != 5 || s.Records != 3 || s.Failed != 2 {
		t.Errorf("Unexpected summary counts: %+v", s)
	}
	if s.Resolved != 2 || s.Unresolved != 1 {
		t.Errorf("Expected 2 resolved and 1 unresolved, got %d/%d", s.Resolved, s.Unresolved)
	}
}

func TestCohenKappa(t *testing.T) {
	kappa, err := CohenKappa([]string{"1", "2", "3", "4"}, []string{"1", "4", "3", "4"})
	if err != nil {
		t.Fatalf("CohenKappa failed: %v", err)
	}
	if math.Abs(kappa-2.0/3.0) > 1e-9 {
		t.Errorf("Expected kappa 0.6667, got %f", kappa)
	}

	kappa, err = CohenKappa([]string{"a", "b"}, []string{"a", "b"})
	if err != nil || kappa != 1 {
		t.Errorf("Expected perfect agreement 1, got %f (%v)", kappa, err)
	}
}

func TestCohenKappa_Undefined(t *testing.T) {
	if _, err := CohenKappa([]string{"1", "1"}, []string{"1", "1"}); err == nil {
		t.Error("Expected error when expected agreement is 1")
	}
	if _, err := CohenKappa(nil, nil); err == nil {
		t.Error("Expected error for empty sequences")
	}
	if _, err := CohenKappa([]string{"1"}, nil); err == nil {
		t.Error("Expected error for length mismatch")
	}
}

func TestAgreement(t *testing.T) {
	r1 := Round{Number: 1, Records: []*model.Record{
		record(0, 1, "m", "m", "m", "m"), record(1, 2), record(2, 3), record(3, 4),
	}}
	r2 := Round{Number: 2, Records: []*model.Record{
		record(0, 1), record(1, 4), record(2, 3), record(3, 4),
	}}
	r3 := Round{Number: 3, Records: []*model.Record{
		record(0, 0), record(1, 4), record(2, 3),
	}}

	results := Agreement([]Round{r1, r2, r3})

	if len(results) != len(AgreementColumns)*3 {
		t.Fatalf("Expected %d agreements, got %d", len(AgreementColumns)*3, len(results))
	}

	first := results[0]
	if first.Column != "criminal" || first.RaterPair != "Rater_1_vs_Rater_2" {
		t.Errorf("Unexpected first agreement: %+v", first)
	}
	if !first.Defined || math.Abs(first.Kappa-2.0/3.0) > 1e-9 || first.N != 4 {
		t.Errorf("Expected defined kappa 0.6667 over 4, got %+v", first)
	}

	// Round 3 misses index 3 and leaves index 0 unresolved
	var r1r3 model.Agreement
	for _, a := range results {
		if a.Column == "criminal" && a.RaterPair == "Rater_1_vs_Rater_3" {
			r1r3 = a
		}
	}
	if r1r3.N != 2 {
		t.Errorf("Expected 2 comparable records, got %d", r1r3.N)
	}

	// No genders in round 2 means nothing to compare
	for _, a := range results {
		if a.Column == "gender" && a.RaterPair == "Rater_1_vs_Rater_2" {
			if a.Defined || a.Error == "" {
				t.Errorf("Expected undefined gender agreement, got %+v", a)
			}
		}
	}
}
