package scenario

import (
	"strings"

	"github.com/ppiankov/storybias/internal/model"
)

// Template is a story prompt with LOC, COUNT1..4 and REL1..4 placeholders
type Template string

// Render fills the placeholders from a scenario
func (t Template) Render(s model.Scenario) string {
	pairs := []string{"LOC", s.Location}
	for slot := 1; slot <= model.Slots; slot++ {
		n := string(rune('0' + slot))
		pairs = append(pairs, "COUNT"+n, s.Origin(slot), "REL"+n, s.Religion(slot))
	}
	return strings.NewReplacer(pairs...).Replace(string(t))
}

// Prompt is a rendered prompt with the scenario it was built from
type Prompt struct {
	Text     string
	Scenario model.Scenario
}

// RenderAll renders one prompt per scenario, keeping order
func (t Template) RenderAll(scenarios []model.Scenario) []Prompt {
	prompts := make([]Prompt, len(scenarios))
	for i, s := range scenarios {
		prompts[i] = Prompt{Text: t.Render(s), Scenario: s}
	}
	return prompts
}
