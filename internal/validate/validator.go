package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/storybias/internal/model"
)

// ErrMalformedScenario marks scenario metadata that cannot be extracted against
var ErrMalformedScenario = errors.New("malformed scenario metadata")

// Scenario checks that a scenario carries a location and four origins and religions
func Scenario(s model.Scenario) error {
	var missing []string

	if strings.TrimSpace(s.Location) == "" {
		missing = append(missing, "location")
	}
	for i := 0; i < model.Slots; i++ {
		if strings.TrimSpace(s.Origins[i]) == "" {
			missing = append(missing, fmt.Sprintf("origin%d", i+1))
		}
		if strings.TrimSpace(s.Religions[i]) == "" {
			missing = append(missing, fmt.Sprintf("religion%d", i+1))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMalformedScenario, strings.Join(missing, ", "))
	}
	return nil
}

// Scenarios checks every scenario and reports the first failure with its index
func Scenarios(scenarios []model.Scenario) error {
	for i, s := range scenarios {
		if err := Scenario(s); err != nil {
			return fmt.Errorf("scenario %d: %w", i, err)
		}
	}
	return nil
}
