package store

import (
	"context"
	"fmt"
	"io"

	"github.com/desertthunder/soundwave/internal/shared"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the [BlobStore] selected by config.Store.Backend. The returned closer releases
// the backend's connections and is never nil.
func Open(ctx context.Context, config *shared.Config) (BlobStore, io.Closer, error) {
	switch config.Store.Backend {
	case "", "sqlite":
		db, err := shared.OpenDatabase(config.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", shared.ErrStorage, err)
		}
		return NewSQLiteStore(db), db, nil
	case "file":
		if config.Store.Path == "" {
			return nil, nil, fmt.Errorf("%w: store.path is required for the file backend", shared.ErrInvalidConfig)
		}
		return NewFileStore(config.Store.Path), nopCloser{}, nil
	case "redis":
		rs := NewRedisStore(config.Store.Redis)
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, nil, fmt.Errorf("%w: redis ping: %w", shared.ErrStorage, err)
		}
		return rs, rs, nil
	case "memory":
		return NewMemoryStore(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store backend %q", shared.ErrInvalidConfig, config.Store.Backend)
	}
}
