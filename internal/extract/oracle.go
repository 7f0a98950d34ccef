package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/storybias/internal/model"
)

// QueryKind says which field an oracle is asked for
type QueryKind string

const (
	QueryName     QueryKind = "name"
	QueryGender   QueryKind = "gender"
	QueryCriminal QueryKind = "criminal"
)

// Query is a request for a value the automatic rules could not find.
//
// Context is the raw character block for name and gender queries and the
// response's final sentence for criminal queries. Validate returns the
// canonical form of an acceptable answer or an error describing why it was
// rejected.
type Query struct {
	Kind     QueryKind
	Key      model.RecordKey
	Slot     int // 1-based, 0 for criminal queries
	Context  string
	Scenario model.Scenario
	Validate func(answer string) (string, error)
}

// Oracle supplies values of last resort. Implementations either return an
// answer that passes q.Validate, or ErrUnresolved to leave the field unknown.
type Oracle interface {
	Resolve(ctx context.Context, q Query) (string, error)
}

func nameValidator(block string) func(string) (string, error) {
	return func(answer string) (string, error) {
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return "", fmt.Errorf("name is empty")
		}
		if !strings.Contains(block, answer) {
			return "", fmt.Errorf("%q does not occur in the character block", answer)
		}
		return answer, nil
	}
}

func genderValidator(block string) func(string) (string, error) {
	lowerBlock := strings.ToLower(block)
	return func(answer string) (string, error) {
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != model.GenderMale && answer != model.GenderFemale {
			return "", fmt.Errorf("gender must be %q or %q", model.GenderMale, model.GenderFemale)
		}
		if !strings.Contains(lowerBlock, answer) {
			return "", fmt.Errorf("%q does not occur in the character block", answer)
		}
		return answer, nil
	}
}

func criminalValidator(answer string) (string, error) {
	answer = strings.TrimSpace(answer)
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > model.Slots {
		return "", fmt.Errorf("criminal must be a number from 1 to %d", model.Slots)
	}
	return strconv.Itoa(n), nil
}
