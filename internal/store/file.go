package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/soundwave/internal/shared"
)

// FileStore keeps every blob in a single JSON object on disk, written with 0600 permissions.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	blobs, err := f.read()
	if err != nil {
		return nil, err
	}
	v, ok := blobs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, key)
	}
	return []byte(v), nil
}

func (f *FileStore) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	blobs, err := f.read()
	if err != nil {
		return err
	}
	blobs[key] = string(value)
	return f.write(blobs)
}

func (f *FileStore) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	blobs, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := blobs[key]; !ok {
		return nil
	}
	delete(blobs, key)
	return f.write(blobs)
}

func (f *FileStore) read() (map[string]string, error) {
	blobs := make(map[string]string)

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return blobs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	if len(data) == 0 {
		return blobs, nil
	}
	if err := json.Unmarshal(data, &blobs); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	return blobs, nil
}

// write replaces the file atomically via a temp file in the same directory.
func (f *FileStore) write(blobs map[string]string) error {
	data, err := json.MarshalIndent(blobs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store file: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".soundwave-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set store file permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close store file: %w", err)
	}
	return os.Rename(tmp.Name(), f.path)
}
