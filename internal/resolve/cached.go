package resolve

import (
	"context"
	"strconv"
	"time"

	"github.com/ppiankov/storybias/internal/cache"
	"github.com/ppiankov/storybias/internal/extract"
)

// Cached remembers answers from another oracle so reruns of an analysis do not
// ask the operator again. Entries are keyed by record identity, query kind,
// slot and the text shown to the operator, and are re-validated on every hit.
type Cached struct {
	next  extract.Oracle
	store cache.Cache
	ttl   time.Duration
}

// NewCached wraps next with an answer cache
func NewCached(next extract.Oracle, store cache.Cache, ttl time.Duration) *Cached {
	return &Cached{next: next, store: store, ttl: ttl}
}

func (c *Cached) Resolve(ctx context.Context, q extract.Query) (string, error) {
	key := answerKey(q)

	if data, ok := c.store.Get(key); ok {
		if answer, err := q.Validate(string(data)); err == nil {
			return answer, nil
		}
		_ = c.store.Delete(key)
	}

	answer, err := c.next.Resolve(ctx, q)
	if err != nil {
		return "", err
	}

	// A failed write only means the operator is asked again next run
	_ = c.store.Set(key, []byte(answer), c.ttl)
	return answer, nil
}

func answerKey(q extract.Query) string {
	return cache.Key(string(q.Kind), q.Key.String(), strconv.Itoa(q.Slot), q.Context)
}
