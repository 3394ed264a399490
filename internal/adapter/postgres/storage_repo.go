package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"recipebook/internal/domain"
)

var _ domain.Storage = (*DB)(nil)

// Get returns the value stored under key for a browser.
func (d *DB) Get(ctx context.Context, browserID, key string) (string, error) {
	var v string
	err := d.sql.QueryRowContext(ctx,
		"SELECT value FROM browser_storage WHERE browser_id = $1 AND key = $2",
		browserID, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Set upserts a value.
func (d *DB) Set(ctx context.Context, browserID, key, value string) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO browser_storage (browser_id, key, value, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (browser_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		browserID, key, value, time.Now().UTC(),
	)
	return err
}

// Delete removes keys for a browser.
func (d *DB) Delete(ctx context.Context, browserID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := d.sql.ExecContext(ctx,
		"DELETE FROM browser_storage WHERE browser_id = $1 AND key = ANY($2)",
		browserID, pq.Array(keys),
	)
	return err
}

// DeleteStale removes entries not written since before cutoff and reports how
// many rows went away.
func (d *DB) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM browser_storage WHERE updated_at < $1", cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
