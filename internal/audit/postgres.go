package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_events (
	id           UUID PRIMARY KEY,
	kind         TEXT NOT NULL,
	actor        TEXT NOT NULL,
	counterparty TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL DEFAULT '',
	amount       TEXT NOT NULL DEFAULT '',
	reference    TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ledger_events_kind_created ON ledger_events (kind, created_at);
CREATE INDEX IF NOT EXISTS idx_ledger_events_actor ON ledger_events (actor);
`

// PostgresRecorder persists events to the ledger_events table.
type PostgresRecorder struct {
	db *sqlx.DB
}

// NewPostgresRecorder creates a new PostgreSQL recorder.
func NewPostgresRecorder(db *sqlx.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

// EnsureSchema creates the audit tables if they do not exist.
func EnsureSchema(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("ensuring audit schema: %w", err)
	}
	return nil
}

// Record implements Recorder.
func (r *PostgresRecorder) Record(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO ledger_events (
			id, kind, actor, counterparty, category, amount, reference, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.Kind, event.Actor, event.Counterparty,
		event.Category, event.Amount, event.Reference, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record ledger event: %w", err)
	}
	return nil
}

// ListRecent returns the most recent events, newest first, optionally
// filtered by kind.
func (r *PostgresRecorder) ListRecent(ctx context.Context, kind *EventKind, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []Event
	var err error
	if kind != nil {
		query := `SELECT * FROM ledger_events WHERE kind = $1 ORDER BY created_at DESC LIMIT $2`
		err = r.db.SelectContext(ctx, &events, query, *kind, limit)
	} else {
		query := `SELECT * FROM ledger_events ORDER BY created_at DESC LIMIT $1`
		err = r.db.SelectContext(ctx, &events, query, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger events: %w", err)
	}
	return events, nil
}

// TotalsByCategory sums recorded amounts per category for one event kind
// since the given time. Amounts are summed as numerics in the database.
func (r *PostgresRecorder) TotalsByCategory(ctx context.Context, kind EventKind, since time.Time) (map[string]string, error) {
	query := `
		SELECT category, SUM(amount::NUMERIC)::TEXT AS total
		FROM ledger_events
		WHERE kind = $1 AND amount <> '' AND created_at >= $2
		GROUP BY category
	`
	rows, err := r.db.QueryxContext(ctx, query, kind, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ledger events: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]string)
	for rows.Next() {
		var category, total string
		if err := rows.Scan(&category, &total); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		totals[category] = total
	}
	return totals, rows.Err()
}
