package journal

import (
	"context"
	"errors"
	"time"
)

// ErrAttemptNotFound indicates the attempt identifier has no journal entry.
var ErrAttemptNotFound = errors.New("attempt not found")

// Attempt outcomes recorded by the terminal.
const (
	ResultCompleted = "completed"
	ResultFailed    = "failed"
	ResultExpired   = "expired"
	ResultCancelled = "cancelled"
	ResultError     = "error"
)

// Attempt is one charge attempt started at the terminal.
type Attempt struct {
	ID          string
	AmountMinor int64
	Currency    string
	Description string
	StartedAt   time.Time
}

// Outcome closes an attempt with its terminal result.
type Outcome struct {
	Result      string
	UserID      string
	RequestID   string
	Detail      string
	CompletedAt time.Time
}

// Record is a journaled attempt with its outcome, if any.
type Record struct {
	Attempt
	Outcome *Outcome
}

// Journal is the local audit trail of scan attempts. It is best-effort
// bookkeeping: the payment of record lives server-side.
type Journal interface {
	Begin(ctx context.Context, attempt Attempt) error
	Complete(ctx context.Context, attemptID string, outcome Outcome) error
	Recent(ctx context.Context, limit int) ([]Record, error)
}
