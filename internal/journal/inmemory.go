package journal

import (
	"context"
	"sort"
	"sync"
)

type inMemoryJournal struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewInMemory creates a concurrency-safe in-memory journal used when no
// database is configured and in unit tests.
func NewInMemory() Journal {
	return &inMemoryJournal{records: make(map[string]*Record)}
}

func (j *inMemoryJournal) Begin(_ context.Context, attempt Attempt) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records[attempt.ID] = &Record{Attempt: attempt}
	return nil
}

func (j *inMemoryJournal) Complete(_ context.Context, attemptID string, outcome Outcome) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	rec, ok := j.records[attemptID]
	if !ok {
		return ErrAttemptNotFound
	}
	out := outcome
	rec.Outcome = &out
	return nil
}

func (j *inMemoryJournal) Recent(_ context.Context, limit int) ([]Record, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	records := make([]Record, 0, len(j.records))
	for _, rec := range j.records {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, k int) bool {
		return records[i].StartedAt.After(records[k].StartedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
