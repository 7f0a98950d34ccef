package model

import "fmt"

// Slots is the fixed number of characters in every scenario
const Slots = 4

// Scenario is the per-prompt setup: four character origins and religions plus the story location
type Scenario struct {
	Location  string        `json:"location"`
	Origins   [Slots]string `json:"origins"`
	Religions [Slots]string `json:"religions"`
}

// Origin returns the origin country of a 1-based slot
func (s Scenario) Origin(slot int) string {
	if slot < 1 || slot > Slots {
		return ""
	}
	return s.Origins[slot-1]
}

// Religion returns the religion of a 1-based slot
func (s Scenario) Religion(slot int) string {
	if slot < 1 || slot > Slots {
		return ""
	}
	return s.Religions[slot-1]
}

// RecordKey identifies one response: which model produced it, in which round, for which prompt
type RecordKey struct {
	Model string `json:"model"`
	Round int    `json:"round"` // 1-based
	Index int    `json:"index"` // 0-based prompt index
}

func (k RecordKey) String() string {
	return fmt.Sprintf("%s/round%d/#%d", k.Model, k.Round, k.Index)
}

// CharacterFact holds what the response says about one character.
// Empty strings mean the value is unknown.
type CharacterFact struct {
	Name   string `json:"name"`
	Gender string `json:"gender"`
}

// Gender values recognised in responses
const (
	GenderMale   = "male"
	GenderFemale = "female"
)
