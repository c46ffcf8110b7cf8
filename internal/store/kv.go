package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// KV is a namespaced JSON key-value view of the store.
type KV struct {
	store     *Store
	namespace string
}

// KV returns the key-value view for namespace.
func (s *Store) KV(namespace string) *KV {
	return &KV{store: s, namespace: namespace}
}

// Load decodes the value stored under key into dst. It reports false when the key is absent.
func (kv *KV) Load(ctx context.Context, key string, dst any) (bool, error) {
	var raw string
	err := kv.store.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE namespace = ? AND key = ?`, kv.namespace, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("failed to decode %s/%s: %w", kv.namespace, key, err)
	}
	return true, nil
}

// Save stores v under key as JSON, replacing any previous value.
func (kv *KV) Save(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", kv.namespace, key, err)
	}
	_, err = kv.store.db.ExecContext(ctx,
		`INSERT INTO kv (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		kv.namespace, key, string(payload), kv.store.timestamp())
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (kv *KV) Delete(ctx context.Context, key string) error {
	_, err := kv.store.db.ExecContext(ctx,
		`DELETE FROM kv WHERE namespace = ? AND key = ?`, kv.namespace, key)
	return err
}
