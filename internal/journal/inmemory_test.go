package journal

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBeginCompleteRecent(t *testing.T) {
	j := NewInMemory()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"a1", "a2", "a3"} {
		err := j.Begin(ctx, Attempt{
			ID:          id,
			AmountMinor: int64(1000 * (i + 1)),
			Currency:    "XAF",
			StartedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("begin %s: %v", id, err)
		}
	}

	if err := j.Complete(ctx, "a2", Outcome{Result: ResultCompleted, UserID: "u1", RequestID: "r1"}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	records, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "a3" || records[1].ID != "a2" {
		t.Fatalf("expected newest first, got %s, %s", records[0].ID, records[1].ID)
	}
	if records[1].Outcome == nil || records[1].Outcome.Result != ResultCompleted {
		t.Fatalf("expected completed outcome on a2: %+v", records[1].Outcome)
	}
	if records[0].Outcome != nil {
		t.Fatalf("expected open attempt a3 to have no outcome")
	}
}

func TestCompleteUnknownAttempt(t *testing.T) {
	j := NewInMemory()
	if err := j.Complete(context.Background(), "missing", Outcome{Result: ResultFailed}); !errors.Is(err, ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}
}

func TestSeedAttempt(t *testing.T) {
	j := NewInMemory()
	SeedAttempt(j, Attempt{ID: "seeded", StartedAt: time.Now()}, Outcome{Result: ResultExpired})

	records, err := j.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 1 || records[0].Outcome == nil || records[0].Outcome.Result != ResultExpired {
		t.Fatalf("unexpected records: %+v", records)
	}
}
