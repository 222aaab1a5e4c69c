package batch

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"vn.io.arda/console-sync/internal/domain"
)

const defaultJournalSize = 500

// MemoryJournal is a bounded in-process domain.BatchJournal. The oldest
// saved results are dropped first; reads never change that order. Used when
// no database is configured.
type MemoryJournal struct {
	results *lru.Cache[uuid.UUID, domain.BatchResult]
}

// NewMemoryJournal keeps at most max results (500 if max <= 0).
func NewMemoryJournal(max int) *MemoryJournal {
	if max <= 0 {
		max = defaultJournalSize
	}
	results, err := lru.New[uuid.UUID, domain.BatchResult](max)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &MemoryJournal{results: results}
}

// Save stores result, making it the most recent.
func (j *MemoryJournal) Save(_ context.Context, result *domain.BatchResult) error {
	j.results.Add(result.ID, *result)
	return nil
}

func (j *MemoryJournal) Get(_ context.Context, id uuid.UUID) (*domain.BatchResult, error) {
	r, ok := j.results.Peek(id)
	if !ok {
		return nil, fmt.Errorf("batch %s: %w", id, domain.ErrNotFound)
	}
	return &r, nil
}

func (j *MemoryJournal) Recent(_ context.Context, limit int) ([]*domain.BatchResult, error) {
	keys := j.results.Keys() // oldest first
	if limit <= 0 || limit > len(keys) {
		limit = len(keys)
	}
	out := make([]*domain.BatchResult, 0, limit)
	for i := len(keys) - 1; i >= 0 && len(out) < limit; i-- {
		if r, ok := j.results.Peek(keys[i]); ok {
			out = append(out, &r)
		}
	}
	return out, nil
}
