package store

import (
	"context"
	"database/sql"

	"github.com/desertthunder/soundwave/internal/repositories"
)

// SQLiteStore is a [BlobStore] over the kv_store table.
type SQLiteStore struct {
	repo *repositories.KVRepository
}

// NewSQLiteStore expects db to have the shared migrations applied.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{repo: repositories.NewKVRepository(db)}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	return s.repo.Put(ctx, key, value)
}

func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}
