package reference

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Peru", "peru"},
		{"  The   Gambia ", "gambia"},
		{"the Gambia", "gambia"},
		{"Côte d'Ivoire", "cote d'ivoire"},
		{"Côte d’Ivoire", "cote d'ivoire"},
		{"São Tomé and Príncipe", "sao tome and principe"},
		{"CURAÇAO", "curacao"},
		{"Theland", "theland"},
		{"", ""},
		{"北京", "北京"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_DecomposedInput(t *testing.T) {
	// "o" followed by a combining circumflex
	decomposed := "Co\u0302te d'Ivoire"
	if got := Normalize(decomposed); got != "cote d'ivoire" {
		t.Errorf("expected composed accent to fold, got %q", got)
	}
}

func TestNormalize_OnlyOneLeadingArticle(t *testing.T) {
	if got := Normalize("The the Bahamas"); got != "the bahamas" {
		t.Errorf("expected a single article stripped, got %q", got)
	}
}

const sampleTable = `Country;Region;Religion
Nigeria; Africa ;Christianity
Peru;South America;Catholicism
Laos;Asia;Buddhism
Chile;South America;Catholicism
Nigeria;Europe;Islam
`

func TestReadTable(t *testing.T) {
	table, err := ReadTable(strings.NewReader(sampleTable))
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}

	if table.Len() != 4 {
		t.Errorf("expected 4 countries, got %d", table.Len())
	}

	row, err := table.Lookup("Nigeria")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if row.Region != "Africa" {
		t.Errorf("expected first row to win with trimmed region Africa, got %q", row.Region)
	}

	dups := table.Duplicates()
	if len(dups) != 1 || dups[0] != "Nigeria" {
		t.Errorf("expected Nigeria reported as duplicate, got %v", dups)
	}

	regions := table.Regions()
	want := []string{"Africa", "South America", "Asia"}
	if strings.Join(regions, ",") != strings.Join(want, ",") {
		t.Errorf("expected regions %v, got %v", want, regions)
	}

	if len(table.Religions()) != 3 {
		t.Errorf("expected 3 religions, got %v", table.Religions())
	}
}

func TestTable_LookupMiss(t *testing.T) {
	table := NewTable([]Country{{Name: "Peru", Region: "South America", Religion: "Catholicism"}})

	_, err := table.Lookup("Atlantis")
	if !errors.Is(err, ErrUnknownCountry) {
		t.Errorf("expected ErrUnknownCountry, got %v", err)
	}
	if table.Has("Atlantis") {
		t.Error("expected Has to be false for a missing country")
	}
}

func TestReadTable_MissingColumn(t *testing.T) {
	_, err := ReadTable(strings.NewReader("Country;Region\nPeru;South America\n"))
	if err == nil {
		t.Error("expected error for missing Religion column")
	}
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countries.csv")
	if err := os.WriteFile(path, []byte("\ufeff"+sampleTable), 0644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}
	if !table.Has("Laos") {
		t.Error("expected Laos in table")
	}

	if _, err := LoadTable(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolver(t *testing.T) {
	r := NewResolver(AliasTable{
		"Côte d'Ivoire":         {"Ivory Coast", "Republic of Côte d'Ivoire"},
		"Gambia":                {"The Gambia", "Republic of the Gambia"},
		"Congo":                 {"Republic of the Congo", "Congo"},
		"Democratic Republic X": {"Shared Name"},
		"Other Republic X":      {"Shared Name"},
	})

	tests := []struct {
		mention string
		want    string
		ok      bool
	}{
		{"Ivory Coast", "cote d'ivoire", true},
		{"ivory   coast", "cote d'ivoire", true},
		{"Cote d'Ivoire", "cote d'ivoire", true},
		{"republic of cote d'ivoire", "cote d'ivoire", true},
		{"the Gambia", "gambia", true},
		{"Congo", "congo", true},
		{"Shared Name", "", false},
		{"Narnia", "", false},
	}

	for _, tt := range tests {
		got, ok := r.Resolve(tt.mention)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)", tt.mention, got, ok, tt.want, tt.ok)
		}
	}

	var nilResolver *Resolver
	if _, ok := nilResolver.Resolve("Peru"); ok {
		t.Error("expected nil resolver to resolve nothing")
	}
}

func TestParseAliases(t *testing.T) {
	aliases, err := ParseAliases([]byte(`{"Gambia": ["The Gambia"], "Peru": []}`))
	if err != nil {
		t.Fatalf("ParseAliases failed: %v", err)
	}
	if len(aliases["Gambia"]) != 1 {
		t.Errorf("expected one Gambia alias, got %v", aliases["Gambia"])
	}

	invalid := []string{
		`["Gambia"]`,
		`{"Gambia": "The Gambia"}`,
		`{"Gambia": [1]}`,
		`{"Gambia": [""]}`,
		`not json`,
	}
	for _, data := range invalid {
		if _, err := ParseAliases([]byte(data)); err == nil {
			t.Errorf("expected validation error for %s", data)
		}
	}
}

func TestLoadAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.json")
	if err := os.WriteFile(path, []byte(`{"Côte d'Ivoire": ["Ivory Coast"]}`), 0644); err != nil {
		t.Fatal(err)
	}

	aliases, err := LoadAliases(path)
	if err != nil {
		t.Fatalf("LoadAliases failed: %v", err)
	}
	if got, ok := NewResolver(aliases).Resolve("Ivory Coast"); !ok || got != "cote d'ivoire" {
		t.Errorf("expected alias to resolve, got %q %v", got, ok)
	}
}
