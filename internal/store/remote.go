package store

import (
	"context"
	"database/sql"
	"errors"
)

// Remote keeps the last pushed payload per key, standing in for a hosted sync target.
type Remote struct {
	store *Store
}

// Remote returns the sync snapshot view.
func (s *Store) Remote() *Remote {
	return &Remote{store: s}
}

// Push replaces the snapshot stored under key.
func (r *Remote) Push(ctx context.Context, key string, payload []byte) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO remote_snapshots (key, payload, pushed_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, pushed_at = excluded.pushed_at`,
		key, payload, r.store.timestamp())
	return err
}

// Snapshot returns the last payload pushed under key.
func (r *Remote) Snapshot(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := r.store.db.QueryRowContext(ctx,
		`SELECT payload FROM remote_snapshots WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}
