package journal

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresJournal persists scan attempts in PostgreSQL.
type PostgresJournal struct {
	db *pgxpool.Pool
}

// NewPostgresJournal constructs a Postgres-backed journal.
func NewPostgresJournal(db *pgxpool.Pool) *PostgresJournal {
	return &PostgresJournal{db: db}
}

// Begin records the start of a charge attempt.
func (j *PostgresJournal) Begin(ctx context.Context, attempt Attempt) error {
	const query = `
        INSERT INTO scan_attempts (id, amount, currency, description, started_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO NOTHING`
	_, err := j.db.Exec(ctx, query,
		attempt.ID, attempt.AmountMinor, attempt.Currency, attempt.Description, attempt.StartedAt)
	return err
}

// Complete stores the terminal outcome of an attempt.
func (j *PostgresJournal) Complete(ctx context.Context, attemptID string, outcome Outcome) error {
	const query = `
        UPDATE scan_attempts
        SET result = $2, user_id = $3, request_id = $4, detail = $5, completed_at = $6
        WHERE id = $1`
	tag, err := j.db.Exec(ctx, query,
		attemptID, outcome.Result, outcome.UserID, outcome.RequestID, outcome.Detail, outcome.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

// Recent returns the latest attempts, newest first.
func (j *PostgresJournal) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, amount, currency, description, started_at,
               result, user_id, request_id, detail, completed_at
        FROM scan_attempts
        ORDER BY started_at DESC
        LIMIT $1`

	rows, err := j.db.Query(ctx, query, limit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var result, userID, requestID, detail *string
		var completedAt *time.Time
		if err := rows.Scan(
			&rec.ID, &rec.AmountMinor, &rec.Currency, &rec.Description, &rec.StartedAt,
			&result, &userID, &requestID, &detail, &completedAt,
		); err != nil {
			return nil, err
		}
		if result != nil {
			out := Outcome{Result: *result}
			if userID != nil {
				out.UserID = *userID
			}
			if requestID != nil {
				out.RequestID = *requestID
			}
			if detail != nil {
				out.Detail = *detail
			}
			if completedAt != nil {
				out.CompletedAt = *completedAt
			}
			rec.Outcome = &out
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
