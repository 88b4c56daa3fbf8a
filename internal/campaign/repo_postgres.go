package campaign

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"autodialer/pkg/utils"
)

// PostgresRepo is the durable Repository implementation.
//
// NOTE: This repository assumes the following table exists:
//
//	CREATE TABLE call_records (
//	  id               BIGINT PRIMARY KEY,
//	  number           TEXT NOT NULL UNIQUE,
//	  status           TEXT NOT NULL,
//	  provider_call_id TEXT NOT NULL DEFAULT '',
//	  duration_seconds INT NOT NULL DEFAULT 0,
//	  created_at       TIMESTAMPTZ NOT NULL,
//	  dispatched_at    TIMESTAMPTZ,
//	  notes            TEXT NOT NULL DEFAULT ''
//	);
//
// Insert serializes id assignment and the number uniqueness check behind an
// exclusive table lock; updates serialize per-record via FOR UPDATE row locks.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const recordColumns = `id, number, status, provider_call_id, duration_seconds, created_at, dispatched_at, notes`

func (r *PostgresRepo) ListAll(ctx context.Context) ([]CallRecord, error) {
	const q = `
SELECT ` + recordColumns + `
FROM call_records
ORDER BY id
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CallRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Insert(ctx context.Context, rec CallRecord) (CallRecord, error) {
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		// Single-writer boundary: id assignment and the duplicate check must
		// observe the same state they commit against.
		if _, err := tx.ExecContext(ctx, `LOCK TABLE call_records IN EXCLUSIVE MODE`); err != nil {
			return err
		}

		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM call_records WHERE number = $1)`, rec.Number,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrDuplicateNumber
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(id), 0) + 1 FROM call_records`,
		).Scan(&rec.ID); err != nil {
			return err
		}

		const q = `
INSERT INTO call_records (` + recordColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
		_, err := tx.ExecContext(ctx, q,
			rec.ID,
			rec.Number,
			rec.State,
			rec.ProviderCallID,
			rec.DurationSeconds,
			rec.CreatedAt,
			nullableTime(rec.DispatchedAt),
			rec.Notes,
		)
		return err
	})
	if err != nil {
		return CallRecord{}, err
	}
	return rec, nil
}

func (r *PostgresRepo) UpdateByNumber(ctx context.Context, number string, fn Mutation) (CallRecord, error) {
	return r.updateWhere(ctx, `number = $1`, number, fn)
}

func (r *PostgresRepo) UpdateByProviderCallID(ctx context.Context, providerCallID string, fn Mutation) (CallRecord, error) {
	if providerCallID == "" {
		// Pre-dispatch failures have no correlation id; the empty string
		// must never match their rows.
		return CallRecord{}, ErrNotFound
	}
	return r.updateWhere(ctx, `provider_call_id = $1`, providerCallID, fn)
}

func (r *PostgresRepo) updateWhere(ctx context.Context, where string, key string, fn Mutation) (CallRecord, error) {
	var out CallRecord
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		q := `
SELECT ` + recordColumns + `
FROM call_records
WHERE ` + where + `
FOR UPDATE
`
		rec, err := scanRecord(tx.QueryRowContext(ctx, q, key))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		fn(&rec)

		const upd = `
UPDATE call_records
SET status = $2, provider_call_id = $3, duration_seconds = $4, dispatched_at = $5, notes = $6
WHERE id = $1
`
		if _, err := tx.ExecContext(ctx, upd,
			rec.ID,
			rec.State,
			rec.ProviderCallID,
			rec.DurationSeconds,
			nullableTime(rec.DispatchedAt),
			rec.Notes,
		); err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return CallRecord{}, err
	}
	return out, nil
}

func (r *PostgresRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM call_records`)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (CallRecord, error) {
	var rec CallRecord
	var dispatchedAt sql.NullTime
	if err := row.Scan(
		&rec.ID,
		&rec.Number,
		&rec.State,
		&rec.ProviderCallID,
		&rec.DurationSeconds,
		&rec.CreatedAt,
		&dispatchedAt,
		&rec.Notes,
	); err != nil {
		return CallRecord{}, err
	}
	if dispatchedAt.Valid {
		t := dispatchedAt.Time
		rec.DispatchedAt = &t
	}
	return rec, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
