package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/soundwave/internal/shared"
)

// Entry is one row of the kv_store table.
type Entry struct {
	ID        string
	Sequence  int
	Key       string
	Value     []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// KVRepository persists opaque blobs by key in sqlite.
type KVRepository struct {
	db *sql.DB
}

// NewKVRepository creates a new [KVRepository] with the given database connection
func NewKVRepository(db *sql.DB) *KVRepository {
	return &KVRepository{db: db}
}

// Get retrieves the entry stored under key, or [shared.ErrNotFound].
func (r *KVRepository) Get(ctx context.Context, key string) (*Entry, error) {
	query := `
		SELECT id, sequence, key, value, created_at, updated_at
		FROM kv_store
		WHERE key = ?
	`

	var e Entry
	err := r.db.QueryRowContext(ctx, query, key).Scan(&e.ID, &e.Sequence, &e.Key, &e.Value, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query entry: %w", err)
	}

	return &e, nil
}

// Put inserts or replaces the value stored under key.
//
// A replaced entry keeps its id and created_at but takes a new sequence number.
func (r *KVRepository) Put(ctx context.Context, key string, value []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(tx, "kv_store")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO kv_store (id, sequence, key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			sequence = excluded.sequence,
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, query, shared.GenerateID(), sequence, key, value, now, now); err != nil {
		return fmt.Errorf("failed to upsert entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entry: %w", err)
	}
	return nil
}

// Delete removes the entry stored under key. Deleting a missing key is not an error.
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM kv_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// Keys lists stored keys ordered by sequence.
func (r *KVRepository) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT key FROM kv_store ORDER BY sequence")
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
