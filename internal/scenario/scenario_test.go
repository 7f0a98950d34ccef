package scenario

import (
	"bytes"
	"io"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ppiankov/storybias/internal/model"
	"github.com/ppiankov/storybias/internal/reference"
)

func testTable() *reference.Table {
	return reference.NewTable([]reference.Country{
		{Name: "Nigeria", Region: "Africa", Religion: "Christianity"},
		{Name: "Peru", Region: "South America", Religion: "Catholicism"},
		{Name: "Laos", Region: "Asia", Religion: "Buddhism"},
		{Name: "Iran", Region: "Middle East", Religion: "Islam"},
		{Name: "Chile", Region: "South America", Religion: "Catholicism"},
		{Name: "Israel", Region: "Middle East", Religion: "Judaism"},
	})
}

func TestCombinations(t *testing.T) {
	combos := Combinations(testTable(), 4)

	// Peru/Chile and Iran/Israel share regions, so each combination picks one of each
	want := [][]int{
		{0, 1, 2, 3},
		{0, 1, 2, 5},
		{0, 2, 3, 4},
		{0, 2, 4, 5},
	}
	if !reflect.DeepEqual(combos, want) {
		t.Errorf("Expected %v, got %v", want, combos)
	}
}

func TestCombinations_Bounds(t *testing.T) {
	if got := Combinations(testTable(), 7); got != nil {
		t.Errorf("Expected no combinations larger than the table, got %v", got)
	}
	if got := Combinations(testTable(), 0); got != nil {
		t.Errorf("Expected no empty combinations, got %v", got)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	table := testTable()
	combos := Combinations(table, 4)

	a, err := Build(table, combos, 42)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	b, _ := Build(table, combos, 42)
	if !reflect.DeepEqual(a, b) {
		t.Error("Expected identical scenarios for the same seed")
	}

	for i, s := range a {
		members := make(map[string]bool)
		for _, idx := range combos[i] {
			members[table.Countries()[idx].Name] = true
		}
		for slot := 1; slot <= model.Slots; slot++ {
			origin := s.Origin(slot)
			if !members[origin] {
				t.Errorf("scenario %d: origin %s not from its combination", i, origin)
			}
			country, _ := table.Lookup(origin)
			if s.Religion(slot) != country.Religion {
				t.Errorf("scenario %d: religion %s does not belong to %s", i, s.Religion(slot), origin)
			}
			delete(members, origin)
		}
		if len(members) != 0 {
			t.Errorf("scenario %d: origins are not a permutation of the combination", i)
		}
		if !table.Has(s.Location) {
			t.Errorf("scenario %d: unknown location %s", i, s.Location)
		}
	}
}

func TestBuild_RejectsBadCombination(t *testing.T) {
	if _, err := Build(testTable(), [][]int{{0, 1, 2}}, 1); err == nil {
		t.Error("Expected error for short combination")
	}
	if _, err := Build(testTable(), [][]int{{0, 1, 2, 99}}, 1); err == nil {
		t.Error("Expected error for out of range row")
	}
}

func TestTemplate_Render(t *testing.T) {
	tmpl := Template("In LOC, a COUNT1 REL1 and a COUNT4 REL4 meet COUNT2 and COUNT3 (REL2, REL3).")
	s := model.Scenario{
		Location:  "Nigeria",
		Origins:   [4]string{"Nigeria", "Peru", "Laos", "Chile"},
		Religions: [4]string{"Christian", "Catholic", "Buddhist", "Catholic"},
	}

	got := tmpl.Render(s)
	want := "In Nigeria, a Nigeria Christian and a Chile Catholic meet Peru and Laos (Catholic, Buddhist)."
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	prompts := tmpl.RenderAll([]model.Scenario{s, s})
	if len(prompts) != 2 || prompts[1].Text != want || prompts[1].Scenario != s {
		t.Errorf("Unexpected prompts: %+v", prompts)
	}
}

func TestPromptsFileRoundTrip(t *testing.T) {
	s := model.Scenario{
		Location:  "Peru",
		Origins:   [4]string{"Nigeria", "Peru", "Laos", "Iran"},
		Religions: [4]string{"Christianity", "Catholicism", "Buddhism", "Islam"},
	}
	prompts := []Prompt{{Text: "Write a story; set in Peru.\nUse {Character 1}.", Scenario: s}}

	path := filepath.Join(t.TempDir(), "processed", "input_texts.csv")
	err := SaveFile(path, func(w io.Writer) error { return WritePrompts(w, prompts) })
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, err := LoadPrompts(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !reflect.DeepEqual(got, prompts) {
		t.Errorf("Expected %+v, got %+v", prompts, got)
	}

	scenarios, err := LoadScenarios(path)
	if err != nil || len(scenarios) != 1 || scenarios[0] != s {
		t.Errorf("Expected prompt file readable as scenarios, got %+v (%v)", scenarios, err)
	}
}

func TestWriteScenarios_Header(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteScenarios(&buf, nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := "origin1;origin2;origin3;origin4;religion1;religion2;religion3;religion4;location\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestReadScenarios_MissingColumn(t *testing.T) {
	_, err := ReadScenarios(strings.NewReader("origin1;origin2\nA;B\n"))
	if err == nil || !strings.Contains(err.Error(), "origin3") {
		t.Errorf("Expected missing column error, got %v", err)
	}
}
