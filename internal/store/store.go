// Package store persists the session's token record behind an opaque blob capability.
//
// [BlobStore] is the get/set/remove contract; [TokenStore] adds the JSON record format and the
// fixed storage key. Backends: [MemoryStore], [FileStore], [SQLiteStore] and [RedisStore].
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/shared"
)

// TokenKey is the storage key holding the serialized [models.TokenRecord].
const TokenKey = "@spotify_tokens"

// BlobStore gets, sets and removes named blobs. Get returns [shared.ErrNotFound] for absent keys.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// TokenStore reads and writes the token record under [TokenKey].
type TokenStore struct {
	blobs  BlobStore
	logger *log.Logger
}

// NewTokenStore wraps blobs. A nil logger falls back to [shared.NewLogger].
func NewTokenStore(blobs BlobStore, logger *log.Logger) *TokenStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TokenStore{blobs: blobs, logger: shared.WithLogger(logger, "component", "store")}
}

// Load returns the persisted record, or (nil, nil) when none is stored.
//
// Read and parse failures wrap [shared.ErrStorage].
func (s *TokenStore) Load(ctx context.Context) (*models.TokenRecord, error) {
	data, err := s.blobs.Get(ctx, TokenKey)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read: %w", shared.ErrStorage, err)
	}

	var record models.TokenRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: parse: %w", shared.ErrStorage, err)
	}
	if record.AccessToken == "" {
		return nil, fmt.Errorf("%w: stored record has no access token", shared.ErrStorage)
	}

	return &record, nil
}

// Save validates and persists record.
func (s *TokenStore) Save(ctx context.Context, record models.TokenRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrStorage, err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", shared.ErrStorage, err)
	}

	if err := s.blobs.Set(ctx, TokenKey, data); err != nil {
		return fmt.Errorf("%w: write: %w", shared.ErrStorage, err)
	}

	s.logger.Debug("token record saved", "expires_in", record.ExpiresInSeconds)
	return nil
}

// Erase removes the persisted record.
func (s *TokenStore) Erase(ctx context.Context) error {
	if err := s.blobs.Remove(ctx, TokenKey); err != nil {
		return fmt.Errorf("%w: erase: %w", shared.ErrStorage, err)
	}
	return nil
}
