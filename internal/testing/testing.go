// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/desertthunder/soundwave/internal/shared"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// FlakyStore is an in-memory blob store whose operations can be made to fail.
type FlakyStore struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	GetErr    error
	SetErr    error
	RemoveErr error
	Removes   int
}

func NewFlakyStore() *FlakyStore {
	return &FlakyStore{blobs: make(map[string][]byte)}
}

func (s *FlakyStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	v, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, key)
	}
	return v, nil
}

func (s *FlakyStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return s.SetErr
	}
	s.blobs[key] = value
	return nil
}

// Remove always deletes the key, even when RemoveErr is set, so tests can tell a
// reported failure apart from a skipped erase.
func (s *FlakyStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Removes++
	delete(s.blobs, key)
	return s.RemoveErr
}

// Raw returns the stored blob without going through GetErr.
func (s *FlakyStore) Raw(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.blobs[key]
	return v, ok
}

// Put stores a blob directly, bypassing SetErr.
func (s *FlakyStore) Put(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = value
}

// BrowserFunc adapts a function to the auth browser-session contract.
type BrowserFunc func(ctx context.Context, authURL, redirectURI string) (string, error)

func (f BrowserFunc) Authorize(ctx context.Context, authURL, redirectURI string) (string, error) {
	return f(ctx, authURL, redirectURI)
}

// RedirectWithCode returns a browser function that answers every authorization request with
// a redirect carrying code and the request's own state parameter.
func RedirectWithCode(code string) BrowserFunc {
	return func(_ context.Context, authURL, redirectURI string) (string, error) {
		u, err := url.Parse(authURL)
		if err != nil {
			return "", err
		}
		q := url.Values{}
		q.Set("code", code)
		q.Set("state", u.Query().Get("state"))
		return redirectURI + "?" + q.Encode(), nil
	}
}
