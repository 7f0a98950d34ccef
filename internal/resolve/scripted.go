package resolve

import (
	"context"
	"sync"

	"github.com/ppiankov/storybias/internal/extract"
)

// Scripted replays fixed answers in order, skipping answers that fail
// validation the way an operator would be re-prompted. Once the script
// runs out every query is unresolved.
type Scripted struct {
	mu      sync.Mutex
	answers []string
	queries []extract.Query
}

// NewScripted creates a scripted oracle
func NewScripted(answers ...string) *Scripted {
	return &Scripted{answers: answers}
}

func (s *Scripted) Resolve(_ context.Context, q extract.Query) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries = append(s.queries, q)

	for len(s.answers) > 0 {
		answer := s.answers[0]
		s.answers = s.answers[1:]
		if valid, err := q.Validate(answer); err == nil {
			return valid, nil
		}
	}
	return "", extract.ErrUnresolved
}

// Queries returns every query received so far
func (s *Scripted) Queries() []extract.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]extract.Query(nil), s.queries...)
}

// Unresolved declines every query, leaving unmatched fields unknown
type Unresolved struct{}

func (Unresolved) Resolve(context.Context, extract.Query) (string, error) {
	return "", extract.ErrUnresolved
}
