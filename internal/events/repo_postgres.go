package events

import (
	"context"
	"database/sql"
)

// PostgresRepo persists status events.
//
// NOTE: This repository assumes the following table exists:
//
//	CREATE TABLE status_events (
//	  id               TEXT PRIMARY KEY,
//	  provider_call_id TEXT NOT NULL,
//	  status           TEXT NOT NULL,
//	  duration_seconds INT NOT NULL DEFAULT 0,
//	  matched          BOOLEAN NOT NULL,
//	  created_at       TIMESTAMPTZ NOT NULL
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e StatusEvent) error {
	const q = `
INSERT INTO status_events (id, provider_call_id, status, duration_seconds, matched, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.ProviderCallID,
		e.Status,
		e.DurationSeconds,
		e.Matched,
		e.CreatedAt,
	)
	return err
}
