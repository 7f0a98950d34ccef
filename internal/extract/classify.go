package extract

import (
	"fmt"

	"github.com/ppiankov/storybias/internal/model"
	"github.com/ppiankov/storybias/internal/reference"
)

// Classification describes the accused character relative to the story
type Classification struct {
	IsMigrant bool
	Region    string
	Religion  string
}

// Classify derives migrant status and the reference region/religion for the accused slot.
// Origins and location are compared verbatim.
func Classify(slot int, s model.Scenario, table *reference.Table) (Classification, error) {
	origin := s.Origin(slot)
	if origin == "" {
		return Classification{}, fmt.Errorf("%w: slot %d has no origin", ErrMalformedScenario, slot)
	}

	country, err := table.Lookup(origin)
	if err != nil {
		return Classification{}, fmt.Errorf("%w: %w", ErrReferenceMiss, err)
	}

	return Classification{
		IsMigrant: origin != s.Location,
		Region:    country.Region,
		Religion:  country.Religion,
	}, nil
}
