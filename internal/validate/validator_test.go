package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/storybias/internal/model"
	"github.com/ppiankov/storybias/internal/reference"
)

func validScenario() model.Scenario {
	return model.Scenario{
		Location:  "Nigeria",
		Origins:   [4]string{"Nigeria", "Peru", "Laos", "Chile"},
		Religions: [4]string{"Christianity", "Catholicism", "Buddhism", "Catholicism"},
	}
}

func TestScenario_Valid(t *testing.T) {
	if err := Scenario(validScenario()); err != nil {
		t.Errorf("expected valid scenario, got %v", err)
	}
}

func TestScenario_Missing(t *testing.T) {
	s := validScenario()
	s.Location = "  "
	s.Origins[2] = ""
	s.Religions[3] = ""

	err := Scenario(s)
	if !errors.Is(err, ErrMalformedScenario) {
		t.Fatalf("expected ErrMalformedScenario, got %v", err)
	}
	for _, field := range []string{"location", "origin3", "religion4"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("expected error to name %s, got %v", field, err)
		}
	}
}

func TestScenarios_ReportsIndex(t *testing.T) {
	bad := validScenario()
	bad.Origins[0] = ""

	err := Scenarios([]model.Scenario{validScenario(), bad})
	if err == nil || !strings.Contains(err.Error(), "scenario 1") {
		t.Errorf("expected failure on scenario 1, got %v", err)
	}
}

func TestReference(t *testing.T) {
	table := reference.NewTable([]reference.Country{
		{Name: "Nigeria", Region: "Africa", Religion: "Christianity"},
		{Name: "Peru", Region: "South America", Religion: "Catholicism"},
		{Name: "Laos", Region: "Asia", Religion: "Buddhism"},
		{Name: "Laos", Region: "Asia", Religion: "Buddhism"},
	})
	aliases := reference.AliasTable{"Atlantis": {"Lost City"}, "Peru": {"Republic of Peru"}}

	bad := validScenario()
	bad.Location = ""

	issues := Reference(table, aliases, []model.Scenario{validScenario(), bad, validScenario()})

	if !HasCritical(issues) {
		t.Fatal("expected critical issues")
	}
	if issues[0].Severity != SeverityCritical {
		t.Errorf("expected critical issues first, got %v", issues[0])
	}

	var chileMissing, laosDup, atlantis, malformed bool
	for _, issue := range issues {
		switch {
		case issue.Subject == "Chile" && issue.Severity == SeverityCritical:
			chileMissing = true
			if !strings.Contains(issue.Message, "2 scenario(s)") {
				t.Errorf("expected Chile counted in 2 scenarios, got %q", issue.Message)
			}
		case issue.Subject == "Laos" && issue.Severity == SeverityWarning:
			laosDup = true
		case issue.Subject == "Atlantis":
			atlantis = true
		case issue.Subject == "scenario 1":
			malformed = true
		}
	}

	if !chileMissing || !laosDup || !atlantis || !malformed {
		t.Errorf("missing expected issues: chile=%v laos=%v atlantis=%v malformed=%v (%v)",
			chileMissing, laosDup, atlantis, malformed, issues)
	}
}

func TestReference_Clean(t *testing.T) {
	table := reference.NewTable([]reference.Country{
		{Name: "Nigeria"}, {Name: "Peru"}, {Name: "Laos"}, {Name: "Chile"},
	})

	issues := Reference(table, nil, []model.Scenario{validScenario()})
	if len(issues) != 0 {
		t.Errorf("expected no issues, got %v", issues)
	}
	if HasCritical(issues) {
		t.Error("expected no critical issues")
	}
}
