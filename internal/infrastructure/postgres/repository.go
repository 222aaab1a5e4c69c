package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vn.io.arda/console-sync/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS batch_runs (
	id            UUID PRIMARY KEY,
	kind          TEXT NOT NULL,
	action        TEXT NOT NULL,
	view          TEXT NOT NULL DEFAULT '',
	actor         TEXT NOT NULL DEFAULT '',
	succeeded     JSONB NOT NULL DEFAULT '[]',
	failed        JSONB NOT NULL DEFAULT '[]',
	not_attempted JSONB NOT NULL DEFAULT '[]',
	retry_of      UUID,
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS batch_runs_started_at_idx ON batch_runs (started_at DESC);
`

// Journal is the PostgreSQL implementation of domain.BatchJournal.
type Journal struct {
	pool *pgxpool.Pool
}

// New creates a new postgres Journal.
func New(pool *pgxpool.Pool) *Journal {
	return &Journal{pool: pool}
}

// EnsureSchema creates the batch_runs table if it does not exist.
func (j *Journal) EnsureSchema(ctx context.Context) error {
	if _, err := j.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure batch_runs schema: %w", err)
	}
	return nil
}

// Save inserts the result, replacing an earlier row with the same id.
func (j *Journal) Save(ctx context.Context, r *domain.BatchResult) error {
	succeeded, err := json.Marshal(r.Succeeded)
	if err != nil {
		return fmt.Errorf("marshal succeeded: %w", err)
	}
	failed, err := json.Marshal(r.Failed)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	notAttempted, err := json.Marshal(r.NotAttempted)
	if err != nil {
		return fmt.Errorf("marshal not_attempted: %w", err)
	}

	_, err = j.pool.Exec(ctx, `
		INSERT INTO batch_runs (id, kind, action, view, actor, succeeded, failed, not_attempted, retry_of, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			succeeded = EXCLUDED.succeeded,
			failed = EXCLUDED.failed,
			not_attempted = EXCLUDED.not_attempted,
			finished_at = EXCLUDED.finished_at
	`, r.ID, string(r.Kind), string(r.Action), string(r.View), r.Actor,
		succeeded, failed, notAttempted, r.RetryOf, r.StartedAt, r.FinishedAt)
	if err != nil {
		return fmt.Errorf("save batch %s: %w", r.ID, err)
	}
	return nil
}

// Get fetches a single batch result.
func (j *Journal) Get(ctx context.Context, id uuid.UUID) (*domain.BatchResult, error) {
	row := j.pool.QueryRow(ctx, `
		SELECT id, kind, action, view, actor, succeeded, failed, not_attempted, retry_of, started_at, finished_at
		FROM batch_runs WHERE id = $1
	`, id)

	r, err := scanBatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("batch %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return r, nil
}

// Recent lists the newest batch results first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]*domain.BatchResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := j.pool.Query(ctx, `
		SELECT id, kind, action, view, actor, succeeded, failed, not_attempted, retry_of, started_at, finished_at
		FROM batch_runs ORDER BY started_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var results []*domain.BatchResult
	for rows.Next() {
		r, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// scanBatch is a helper to scan a row into a BatchResult struct.
type scannable interface {
	Scan(dest ...any) error
}

func scanBatch(row scannable) (*domain.BatchResult, error) {
	var r domain.BatchResult
	var kind, action, view string
	var succeeded, failed, notAttempted []byte

	err := row.Scan(
		&r.ID, &kind, &action, &view, &r.Actor,
		&succeeded, &failed, &notAttempted, &r.RetryOf, &r.StartedAt, &r.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan batch: %w", err)
	}
	r.Kind, r.Action, r.View = domain.Kind(kind), domain.Action(action), domain.View(view)

	if err := json.Unmarshal(succeeded, &r.Succeeded); err != nil {
		return nil, fmt.Errorf("decode succeeded: %w", err)
	}
	if err := json.Unmarshal(failed, &r.Failed); err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}
	if err := json.Unmarshal(notAttempted, &r.NotAttempted); err != nil {
		return nil, fmt.Errorf("decode not_attempted: %w", err)
	}
	return &r, nil
}
