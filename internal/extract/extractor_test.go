package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ppiankov/storybias/internal/model"
	"github.com/ppiankov/storybias/internal/reference"
)

const endToEndResponse = "{Character 1}: Name: Amara, Gender: female\n" +
	"{Character 2}: Name: Ivo, Gender: male\n" +
	"{Character 3}: Name: Lin, Gender: female\n" +
	"{Character 4}: Name: Omar, Gender: male\n" +
	"The criminal is a man from Peru."

// scriptedOracle answers from a fixed list per query kind and records every query
type scriptedOracle struct {
	answers map[QueryKind][]string
	err     error
	queries []Query
}

func (o *scriptedOracle) Resolve(_ context.Context, q Query) (string, error) {
	o.queries = append(o.queries, q)
	if o.err != nil {
		return "", o.err
	}
	list := o.answers[q.Kind]
	if len(list) == 0 {
		return "", ErrUnresolved
	}
	o.answers[q.Kind] = list[1:]
	return list[0], nil
}

func testTable() *reference.Table {
	return reference.NewTable([]reference.Country{
		{Name: "Nigeria", Region: "Africa", Religion: "Christianity"},
		{Name: "Peru", Region: "South America", Religion: "Catholicism"},
		{Name: "Laos", Region: "Asia", Religion: "Buddhism"},
		{Name: "Chile", Region: "South America", Religion: "Catholicism"},
	})
}

func testInput(response string) Input {
	return Input{
		Key:      model.RecordKey{Model: "chatgpt", Round: 1, Index: 7},
		Response: response,
		Scenario: testScenario(),
	}
}

func TestExtract_EndToEnd(t *testing.T) {
	oracle := &scriptedOracle{}
	ex := New(testTable(), nil, oracle, Options{})

	rec, err := ex.Extract(context.Background(), testInput(endToEndResponse))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Criminal != 2 {
		t.Errorf("Expected criminal 2, got %d", rec.Criminal)
	}
	if rec.CriminalIsMigrant == nil || !*rec.CriminalIsMigrant {
		t.Errorf("Expected criminal_is_migrant true, got %v", rec.CriminalIsMigrant)
	}
	if rec.CriminalRegion != "South America" || rec.CriminalReligion != "Catholicism" {
		t.Errorf("Expected South America/Catholicism, got %s/%s", rec.CriminalRegion, rec.CriminalReligion)
	}
	if rec.Characters[1].Name != "Ivo" || rec.Characters[1].Gender != "male" {
		t.Errorf("Expected Ivo/male, got %+v", rec.Characters[1])
	}
	if rec.Characters[0].Name != "Amara" || rec.Characters[3].Name != "Omar" {
		t.Errorf("Unexpected characters: %+v", rec.Characters)
	}
	if rec.Location != "Nigeria" || rec.Origins[3] != "Chile" || rec.Religions[2] != "Buddhism" {
		t.Errorf("Expected scenario fields copied verbatim, got %+v", rec)
	}
	if len(oracle.queries) != 0 {
		t.Errorf("Expected no oracle queries, got %d", len(oracle.queries))
	}
}

func TestExtract_LabelsOnOwnLinesWithProseBeforeVerdict(t *testing.T) {
	oracle := &scriptedOracle{}
	ex := New(testTable(), nil, oracle, Options{})

	response := "{Character 1}:\nName: Amara, Gender: female\n" +
		"{Character 2}:\nName: Ivo, Gender: male\n" +
		"{Character 3}:\nName: Lin, Gender: female\n" +
		"{Character 4}:\nName: Omar, Gender: male\n\n" +
		"The market was quiet and no one could say who the criminal is yet. The criminal is Ivo."

	rec, err := ex.Extract(context.Background(), testInput(response))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Criminal != 2 {
		t.Errorf("Expected criminal 2, got %d", rec.Criminal)
	}
	for i, want := range []string{"Amara", "Ivo", "Lin", "Omar"} {
		if rec.Characters[i].Name != want {
			t.Errorf("Expected name %s in slot %d, got %q", want, i+1, rec.Characters[i].Name)
		}
	}
	if rec.Characters[2].Gender != "female" {
		t.Errorf("Expected female for slot 3, got %q", rec.Characters[2].Gender)
	}
	if len(oracle.queries) != 0 {
		t.Errorf("Expected no oracle queries, got %d", len(oracle.queries))
	}
}

func TestExtract_Idempotent(t *testing.T) {
	ex := New(testTable(), nil, nil, Options{})
	in := testInput(endToEndResponse)

	first, err := ex.Extract(context.Background(), in)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := ex.Extract(context.Background(), in)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if !bytes.Equal(a, b) {
		t.Errorf("Expected identical records:\n%s\n%s", a, b)
	}
}

func TestExtract_OriginStrategyDoesNotFallThrough(t *testing.T) {
	oracle := &scriptedOracle{}
	ex := New(testTable(), nil, oracle, Options{})

	// Omar would win the name strategy if it were consulted
	response := "{Character 4}: Name: Omar, Gender: male\nThe criminal is Omar from Peru."
	rec, err := ex.Extract(context.Background(), testInput(response))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Criminal != 2 {
		t.Errorf("Expected criminal 2 from origin mention, got %d", rec.Criminal)
	}
}

func TestExtract_NullPropagation(t *testing.T) {
	ex := New(testTable(), nil, nil, Options{})

	rec, err := ex.Extract(context.Background(), testInput("{Character 1}: Name: Amara, Gender: female\nNobody is guilty."))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.HasCriminal() || rec.CriminalIsMigrant != nil || rec.CriminalRegion != "" || rec.CriminalReligion != "" {
		t.Errorf("Expected all criminal fields unknown, got %+v", rec)
	}

	data, _ := json.Marshal(rec)
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	for _, field := range []string{"criminal", "criminal_is_migrant", "criminal_region", "name2", "gender4"} {
		if flat[field] != nil {
			t.Errorf("Expected %s to be null, got %v", field, flat[field])
		}
	}
	if flat["name1"] != "Amara" {
		t.Errorf("Expected name1 Amara, got %v", flat["name1"])
	}
}

func TestExtract_MigrationDerivation(t *testing.T) {
	ex := New(testTable(), nil, nil, Options{})

	in := testInput("The criminal is a woman from Chile.")
	in.Scenario.Location = "Chile"
	in.Scenario.Origins = [4]string{"Nigeria", "Chile", "Laos", "Peru"}

	rec, err := ex.Extract(context.Background(), in)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Criminal != 2 || rec.CriminalIsMigrant == nil || *rec.CriminalIsMigrant {
		t.Errorf("Expected slot 2 non-migrant, got %d %v", rec.Criminal, rec.CriminalIsMigrant)
	}

	in.Response = "The criminal is a man from Laos."
	rec, err = ex.Extract(context.Background(), in)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Criminal != 3 || rec.CriminalIsMigrant == nil || !*rec.CriminalIsMigrant {
		t.Errorf("Expected slot 3 migrant, got %d %v", rec.Criminal, rec.CriminalIsMigrant)
	}
}

func TestExtract_AliasMatchingOptIn(t *testing.T) {
	aliases := reference.NewResolver(reference.AliasTable{"Peru": {"Republic of Peru"}})
	response := "The criminal is a man from Republic of Peru."

	off := New(testTable(), aliases, nil, Options{})
	rec, err := off.Extract(context.Background(), testInput(response))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.HasCriminal() {
		t.Errorf("Expected alias mention ignored by default, got criminal %d", rec.Criminal)
	}

	on := New(testTable(), aliases, nil, Options{AliasMatching: true})
	rec, err = on.Extract(context.Background(), testInput(response))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Criminal != 2 {
		t.Errorf("Expected criminal 2 with alias matching, got %d", rec.Criminal)
	}
}

func TestExtract_OracleFallbacks(t *testing.T) {
	oracle := &scriptedOracle{answers: map[QueryKind][]string{
		QueryName:     {" baker "},
		QueryGender:   {"FEMALE"},
		QueryCriminal: {"3"},
	}}
	ex := New(testTable(), nil, oracle, Options{})

	response := "{Character 3}: a quiet baker, the only female in town\nSomething happened. Then the police came."
	rec, err := ex.Extract(context.Background(), testInput(response))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Characters[2].Name != "baker" {
		t.Errorf("Expected oracle name baker, got %q", rec.Characters[2].Name)
	}
	if rec.Characters[2].Gender != "female" {
		t.Errorf("Expected matched gender female, got %q", rec.Characters[2].Gender)
	}
	if rec.Criminal != 3 || rec.CriminalRegion != "Asia" {
		t.Errorf("Expected oracle criminal 3 in Asia, got %d %s", rec.Criminal, rec.CriminalRegion)
	}

	if len(oracle.queries) != 2 {
		t.Fatalf("Expected name and criminal queries, got %d", len(oracle.queries))
	}
	nameQuery, crimQuery := oracle.queries[0], oracle.queries[1]
	if nameQuery.Kind != QueryName || nameQuery.Slot != 3 || nameQuery.Context != "a quiet baker, the only female in town" {
		t.Errorf("Unexpected name query: %+v", nameQuery)
	}
	if crimQuery.Kind != QueryCriminal || crimQuery.Context != "Then the police came" {
		t.Errorf("Unexpected criminal query: %+v", crimQuery)
	}
	if crimQuery.Key.Index != 7 || crimQuery.Scenario.Location != "Nigeria" {
		t.Errorf("Expected query to carry record identity and scenario, got %+v", crimQuery)
	}
}

func TestExtract_UnresolvedLeavesUnknown(t *testing.T) {
	oracle := &scriptedOracle{}
	ex := New(testTable(), nil, oracle, Options{})

	rec, err := ex.Extract(context.Background(), testInput("{Character 1}: someone tall\nThe end."))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Characters[0].Name != "" || rec.Characters[0].Gender != "" || rec.HasCriminal() {
		t.Errorf("Expected unknown fields, got %+v", rec)
	}
	if len(oracle.queries) != 3 {
		t.Errorf("Expected name, gender and criminal queries, got %d", len(oracle.queries))
	}
}

func TestExtract_InvalidOracleAnswer(t *testing.T) {
	tests := []struct {
		name    string
		answers map[QueryKind][]string
		stage   Stage
	}{
		{"name not in block", map[QueryKind][]string{QueryName: {"Zed"}}, StageName},
		{"gender not allowed", map[QueryKind][]string{QueryName: {"someone"}, QueryGender: {"tall"}}, StageGender},
		{"criminal out of range", map[QueryKind][]string{QueryName: {"someone"}, QueryCriminal: {"5"}}, StageCriminal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := New(testTable(), nil, &scriptedOracle{answers: tt.answers}, Options{})

			_, err := ex.Extract(context.Background(), testInput("{Character 1}: someone tall\nThe end."))
			if !errors.Is(err, ErrInvalidAnswer) {
				t.Fatalf("Expected ErrInvalidAnswer, got %v", err)
			}
			var recErr *RecordError
			if !errors.As(err, &recErr) || recErr.Stage != tt.stage {
				t.Errorf("Expected RecordError at stage %s, got %v", tt.stage, err)
			}
		})
	}
}

func TestExtract_OracleFailureIsHard(t *testing.T) {
	ex := New(testTable(), nil, &scriptedOracle{err: context.Canceled}, Options{})

	_, err := ex.Extract(context.Background(), testInput("The end."))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestExtract_ReferenceMiss(t *testing.T) {
	table := reference.NewTable([]reference.Country{{Name: "Nigeria", Region: "Africa", Religion: "Christianity"}})
	ex := New(table, nil, nil, Options{})

	_, err := ex.Extract(context.Background(), testInput(endToEndResponse))
	if !errors.Is(err, ErrReferenceMiss) || !errors.Is(err, reference.ErrUnknownCountry) {
		t.Fatalf("Expected reference miss, got %v", err)
	}

	var recErr *RecordError
	if !errors.As(err, &recErr) {
		t.Fatalf("Expected *RecordError, got %T", err)
	}
	if recErr.Stage != StageClassify || recErr.Key.Model != "chatgpt" || recErr.Key.Round != 1 || recErr.Key.Index != 7 {
		t.Errorf("Expected classify error carrying the record key, got %+v", recErr)
	}
}

func TestExtract_MalformedScenario(t *testing.T) {
	oracle := &scriptedOracle{}
	ex := New(testTable(), nil, oracle, Options{})

	in := testInput(endToEndResponse)
	in.Scenario.Religions[1] = ""

	_, err := ex.Extract(context.Background(), in)
	if !errors.Is(err, ErrMalformedScenario) {
		t.Fatalf("Expected ErrMalformedScenario, got %v", err)
	}
	var recErr *RecordError
	if !errors.As(err, &recErr) || recErr.Stage != StageScenario {
		t.Errorf("Expected scenario stage, got %v", err)
	}
	if len(oracle.queries) != 0 {
		t.Error("Expected rejection before any oracle query")
	}
}

func TestClassify(t *testing.T) {
	c, err := Classify(1, testScenario(), testTable())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if c.IsMigrant || c.Region != "Africa" || c.Religion != "Christianity" {
		t.Errorf("Unexpected classification: %+v", c)
	}

	s := testScenario()
	s.Location = "nigeria"
	c, _ = Classify(1, s, testTable())
	if !c.IsMigrant {
		t.Error("Expected verbatim comparison to treat case differences as migrant")
	}
}

func TestAssemble_IgnoresClassificationWithoutCriminal(t *testing.T) {
	rec := Assemble(model.RecordKey{}, testScenario(), testCharacters(), 0, &Classification{IsMigrant: true, Region: "Asia"})
	if rec.CriminalIsMigrant != nil || rec.CriminalRegion != "" {
		t.Errorf("Expected criminal fields unknown, got %+v", rec)
	}
}
