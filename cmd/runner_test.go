package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/shared"
	"github.com/desertthunder/soundwave/internal/store"
	tu "github.com/desertthunder/soundwave/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	testClientID     = "client-id"
	testClientSecret = "client-secret"
)

// fakeSpotify serves the identity provider token endpoint under /api/token and a small slice
// of the Web API under /v1.
type fakeSpotify struct {
	*httptest.Server

	mu        sync.Mutex
	requests  []string
	grants    []string
	rejectAT1 bool
	playing   bool
	track     *models.Track
	devices   []models.Device
	saved     []models.Track
}

func newFakeSpotify(t *testing.T) *fakeSpotify {
	t.Helper()
	f := &fakeSpotify{
		devices: []models.Device{
			{ID: "d1", Name: "Laptop", Type: models.DeviceComputer, IsActive: true},
			{ID: "d2", Name: "Phone", Type: models.DeviceSmartphone},
		},
	}
	for i := range 3 {
		id := strconv.Itoa(i + 1)
		f.saved = append(f.saved, models.Track{
			ID:         id,
			URI:        "spotify:track:" + id,
			Name:       "Saved " + id,
			Artists:    []models.Artist{{Name: "Band"}},
			DurationMS: 200000,
		})
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeSpotify) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	route := r.Method + " " + r.URL.Path
	f.requests = append(f.requests, route)

	if r.URL.Path == "/api/token" {
		f.token(w, r)
		return
	}

	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if bearer == "" || (f.rejectAT1 && bearer == "AT1") {
		respond(w, http.StatusUnauthorized, map[string]any{
			"error": map[string]any{"status": 401, "message": "The access token expired"},
		})
		return
	}

	switch route {
	case "GET /v1/me":
		respond(w, http.StatusOK, models.User{ID: "u1", DisplayName: "Tester"})
	case "GET /v1/me/player/currently-playing", "GET /v1/me/player":
		if f.track == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		respond(w, http.StatusOK, models.Playback{Item: f.track, IsPlaying: f.playing})
	case "GET /v1/me/player/devices":
		respond(w, http.StatusOK, map[string]any{"devices": f.devices})
	case "PUT /v1/me/player":
		var body struct {
			DeviceIDs []string `json:"device_ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for i := range f.devices {
			f.devices[i].IsActive = len(body.DeviceIDs) > 0 && f.devices[i].ID == body.DeviceIDs[0]
		}
		w.WriteHeader(http.StatusNoContent)
	case "PUT /v1/me/player/play":
		var body models.PlayRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.URIs) > 0 {
			f.track = &models.Track{URI: body.URIs[0], Name: "Requested"}
		}
		f.playing = true
		w.WriteHeader(http.StatusNoContent)
	case "PUT /v1/me/player/pause":
		f.playing = false
		w.WriteHeader(http.StatusNoContent)
	case "GET /v1/me/tracks", "GET /v1/playlists/p1/tracks":
		f.trackPage(w, r)
	case "GET /v1/playlists/p1":
		playlist := models.Playlist{ID: "p1", Name: "Road Trip", Owner: models.Owner{ID: "u1", DisplayName: "Tester"}}
		playlist.Tracks.Total = len(f.saved)
		respond(w, http.StatusOK, playlist)
	default:
		respond(w, http.StatusNotFound, map[string]any{"error": map[string]any{"status": 404, "message": "Not found"}})
	}
}

func (f *fakeSpotify) token(w http.ResponseWriter, r *http.Request) {
	id, secret, ok := r.BasicAuth()
	if !ok || id != testClientID || secret != testClientSecret {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	grant := r.PostForm.Get("grant_type")
	f.grants = append(f.grants, grant)
	switch grant {
	case "authorization_code":
		respond(w, http.StatusOK, map[string]any{"access_token": "AT1", "refresh_token": "RT1", "expires_in": 3600, "token_type": "Bearer"})
	case "refresh_token":
		respond(w, http.StatusOK, map[string]any{"access_token": "AT2", "expires_in": 3600, "token_type": "Bearer"})
	default:
		respond(w, http.StatusBadRequest, map[string]any{"error": "unsupported_grant_type"})
	}
}

func (f *fakeSpotify) trackPage(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	end := min(offset+limit, len(f.saved))

	items := []map[string]any{}
	for _, t := range f.saved[offset:end] {
		items = append(items, map[string]any{"added_at": "2024-01-01T00:00:00Z", "track": t})
	}
	respond(w, http.StatusOK, map[string]any{"items": items, "total": len(f.saved), "limit": limit, "offset": offset})
}

func (f *fakeSpotify) set(fn func(f *fakeSpotify)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeSpotify) seen(route string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r == route {
			return true
		}
	}
	return false
}

func (f *fakeSpotify) grantTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.grants...)
}

type harness struct {
	runner *Runner
	output *bytes.Buffer
	blobs  *store.MemoryStore
	server *fakeSpotify
}

func newHarness(t *testing.T, client *http.Client) *harness {
	t.Helper()

	f := newFakeSpotify(t)
	config := shared.DefaultConfig()
	config.Credentials.Spotify = shared.SpotifyConfig{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		RedirectURI:  "http://127.0.0.1:8888/callback",
	}
	config.Player.ReconcileDelay.Duration = 10 * time.Millisecond
	config.Player.RequestsPerSecond = 0

	output := &bytes.Buffer{}
	blobs := store.NewMemoryStore()
	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: filepath.Join(t.TempDir(), "config.toml"),
		HTTPClient: client,
		Logger:     shared.NewLogger(io.Discard),
		Output:     output,
		Browser:    tu.RedirectWithCode("abc123"),
		Blobs:      blobs,
		BaseURL:    f.URL + "/v1",
		Endpoint:   &oauth2.Endpoint{AuthURL: f.URL + "/authorize", TokenURL: f.URL + "/api/token"},
	})
	return &harness{runner: runner, output: output, blobs: blobs, server: f}
}

func (h *harness) run(args ...string) error {
	return h.runner.command().Run(context.Background(), append([]string{"soundwave"}, args...))
}

func (h *harness) seed(t *testing.T) {
	t.Helper()
	record := models.TokenRecord{AccessToken: "AT1", RefreshToken: "RT1", ExpiresInSeconds: 3600}
	require.NoError(t, store.NewTokenStore(h.blobs, nil).Save(context.Background(), record))
}

func (h *harness) stored(t *testing.T) *models.TokenRecord {
	t.Helper()
	record, err := store.NewTokenStore(h.blobs, nil).Load(context.Background())
	require.NoError(t, err)
	return record
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			input := strings.NewReader("")
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				Input:      input,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.input != input {
				t.Error("expected input to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil config defers loading", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config != nil {
				t.Error("expected config to be loaded by the root command")
			}
			if runner.settings() == nil {
				t.Error("expected settings to fall back to defaults")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writes plain text without formatting", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("simple text")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "simple text" {
				t.Errorf("expected 'simple text', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "auth", "player", "devices", "library", "tui"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})

	t.Run("load", func(t *testing.T) {
		t.Run("reads the --config file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			data := "[store]\nbackend = \"memory\"\n\n[log]\nlevel = \"error\"\n"
			require.NoError(t, os.WriteFile(path, []byte(data), 0600))

			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: output})
			err := runner.command().Run(context.Background(), []string{"soundwave", "--config", path, "auth", "status"})
			require.NoError(t, err)
			assert.Contains(t, output.String(), "Not logged in")

			assert.Equal(t, path, runner.configPath)
			require.NotNil(t, runner.config)
			assert.Equal(t, "memory", runner.config.Store.Backend)
		})

		t.Run("rejects an unparseable file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0600))

			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})
			err := runner.command().Run(context.Background(), []string{"soundwave", "--config", path, "auth", "status"})
			assert.ErrorIs(t, err, shared.ErrInvalidConfig)
		})
	})
}

func TestSetup(t *testing.T) {
	t.Run("runs migrations for the sqlite store", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		data := "[database]\npath = \"" + filepath.ToSlash(filepath.Join(dir, "soundwave.db")) + "\"\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0600))

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: output})
		require.NoError(t, runner.command().Run(context.Background(), []string{"soundwave", "-c", path, "setup"}))

		assert.Contains(t, output.String(), "Database ready")
		assert.Contains(t, output.String(), "soundwave auth login")
		assert.FileExists(t, filepath.Join(dir, "soundwave.db"))
	})

	t.Run("creates a missing config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{ConfigPath: path, Logger: shared.NewLogger(io.Discard), Output: output})

		// The template's database path is relative to the working directory.
		t.Chdir(dir)
		require.NoError(t, runner.command().Run(context.Background(), []string{"soundwave", "setup"}))

		assert.FileExists(t, path)
		assert.Contains(t, output.String(), "Created "+path)
		assert.FileExists(t, filepath.Join(dir, "soundwave.db"))
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("login persists the session", func(t *testing.T) {
		h := newHarness(t, nil)

		require.NoError(t, h.run("auth", "login"))
		assert.Contains(t, h.output.String(), "Logged in as Tester (u1)")
		assert.Equal(t, []string{"authorization_code"}, h.server.grantTypes())

		record := h.stored(t)
		require.NotNil(t, record)
		assert.Equal(t, models.TokenRecord{AccessToken: "AT1", RefreshToken: "RT1", ExpiresInSeconds: 3600}, *record)

		h.output.Reset()
		require.NoError(t, h.run("auth", "status"))
		assert.Contains(t, h.output.String(), "Logged in")
		assert.Contains(t, h.output.String(), "Account: Tester (u1)")
		assert.Contains(t, h.output.String(), "Token refresh: every 50m0s")
	})

	t.Run("status without a session", func(t *testing.T) {
		h := newHarness(t, nil)

		require.NoError(t, h.run("auth", "status"))
		assert.Contains(t, h.output.String(), "Not logged in")
		assert.False(t, h.server.seen("GET /v1/me"))
	})

	t.Run("logout erases the record", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seed(t)

		require.NoError(t, h.run("auth", "logout"))
		assert.Nil(t, h.stored(t))
		assert.Contains(t, h.output.String(), "Logged out")
	})

	t.Run("refresh keeps the refresh token", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seed(t)

		require.NoError(t, h.run("auth", "refresh"))
		assert.Equal(t, &models.TokenRecord{AccessToken: "AT2", RefreshToken: "RT1", ExpiresInSeconds: 3600}, h.stored(t))
	})

	t.Run("refresh failure logs out", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		h := newHarness(t, client)
		h.seed(t)

		err := h.run("auth", "refresh")
		assert.ErrorIs(t, err, shared.ErrAuthExchange)
		assert.Nil(t, h.stored(t))
	})

	t.Run("refresh requires a session", func(t *testing.T) {
		h := newHarness(t, nil)
		assert.ErrorIs(t, h.run("auth", "refresh"), shared.ErrNotAuthenticated)
	})
}

func TestCallbackAddr(t *testing.T) {
	config := shared.DefaultConfig()
	runner := NewRunner(RunnerOpts{Config: config})
	assert.Equal(t, "127.0.0.1:8888", runner.callbackAddr())

	config.Server.Port = 0
	assert.Empty(t, runner.callbackAddr())
}

func TestPlayerCommands(t *testing.T) {
	playing := func(f *fakeSpotify) {
		f.track = &models.Track{URI: "spotify:track:1", Name: "Song", Artists: []models.Artist{{Name: "Band"}}}
		f.playing = true
	}

	t.Run("now", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seed(t)
		h.server.set(playing)

		require.NoError(t, h.run("player", "now"))
		assert.Contains(t, h.output.String(), "▶ Playing: Band - Song")
	})

	t.Run("now with nothing playing", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seed(t)

		require.NoError(t, h.run("player", "now", "--json"))
		assert.JSONEq(t, `{"track":null,"is_playing":false}`, h.output.String())
	})

	t.Run("requires a session", func(t *testing.T) {
		h := newHarness(t, nil)
		assert.ErrorIs(t, h.run("player", "now"), shared.ErrNotAuthenticated)
	})

	t.Run("expired access token is refreshed once", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seed(t)
		h.server.set(playing)
		h.server.set(func(f *fakeSpotify) { f.rejectAT1 = true })

		require.NoError(t, h.run("player", "now"))
		assert.Contains(t, h.output.String(), "Band - Song")
		assert.Equal(t, []string{"refresh_token"}, h.server.grantTypes())
		assert.Equal(t, "AT2", h.stored(t).AccessToken)
	})

	t.Run("toggle pauses and prints the reconciled state", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seed(t)
		h.server.set(playing)

		require.NoError(t, h.run("player", "toggle"))
		assert.True(t, h.server.seen("PUT /v1/me/player/pause"))
		assert.Contains(t, h.output.String(), "⏸ Paused: Band - Song")
	})

	t.Run("skip without an active device", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seed(t)
		h.server.set(func(f *fakeSpotify) {
			for i := range f.devices {
				f.devices[i].IsActive = false
			}
		})

		assert.ErrorIs(t, h.run("player", "next"), shared.ErrNoActiveDevice)
		assert.False(t, h.server.seen("POST /v1/me/player/next"))
	})

	t.Run("play on a named device", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seed(t)

		require.NoError(t, h.run("player", "play", "--uri", "https://open.spotify.com/track/abc", "--device", "Phone"))
		assert.True(t, h.server.seen("PUT /v1/me/player"))
		assert.True(t, h.server.seen("PUT /v1/me/player/play"))
		assert.Contains(t, h.output.String(), "▶ Playing: Requested")
	})

	t.Run("play on an unknown device", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seed(t)

		err := h.run("player", "play", "--uri", "abc", "--device", "Fridge")
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
		assert.False(t, h.server.seen("PUT /v1/me/player/play"))
	})
}

func TestDevicesCommands(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seed(t)

		require.NoError(t, h.run("devices", "list"))
		out := h.output.String()
		assert.Contains(t, out, "Laptop")
		assert.Contains(t, out, "Phone")
		assert.True(t, strings.HasPrefix(out, "*"), "active device is marked first: %q", out)
	})

	t.Run("select", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seed(t)

		require.NoError(t, h.run("devices", "select", "d2"))
		assert.Contains(t, h.output.String(), "Playback transferred to")
		assert.Contains(t, h.output.String(), "Phone")
	})

	t.Run("select requires an argument", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seed(t)
		assert.ErrorIs(t, h.run("devices", "select"), shared.ErrMissingArgument)
	})
}

func TestLibraryCommands(t *testing.T) {
	t.Run("tracks loads every page with --all", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seed(t)

		require.NoError(t, h.run("library", "tracks", "--limit", "2", "--all"))
		out := h.output.String()
		assert.Contains(t, out, "Liked Songs (3)")
		assert.Contains(t, out, "3. Band - Saved 3 [3:20]")
		assert.NotContains(t, out, "More available")
	})

	t.Run("tracks hints at the next page", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seed(t)

		require.NoError(t, h.run("library", "tracks", "--limit", "2"))
		assert.Contains(t, h.output.String(), "More available: --offset 2")
	})

	t.Run("export to stdout", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seed(t)

		require.NoError(t, h.run("library", "export", "p1", "--format", "csv", "--output", "-"))
		out := h.output.String()
		assert.Contains(t, out, "URI,Name,Artists,Album,Duration,Explicit")
		assert.Contains(t, out, "spotify:track:3,Saved 3,Band")
	})

	t.Run("export rejects unknown formats", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seed(t)
		assert.ErrorIs(t, h.run("library", "export", "p1", "--format", "xml"), shared.ErrInvalidArgument)
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: 0},
		{name: "transient", err: fmt.Errorf("%w: GET /me: timeout", shared.ErrTransientAPI), want: exitTempFail},
		{name: "no device", err: shared.ErrNoActiveDevice, want: 1},
		{name: "not logged in", err: shared.ErrNotAuthenticated, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestTrackURI(t *testing.T) {
	tests := map[string]string{
		"spotify:track:abc":                           "spotify:track:abc",
		"abc":                                         "spotify:track:abc",
		" abc ":                                       "spotify:track:abc",
		"https://open.spotify.com/track/abc":          "spotify:track:abc",
		"https://open.spotify.com/track/abc?si=share": "spotify:track:abc",
		"spotify:episode:xyz":                         "spotify:episode:xyz",
	}
	for in, want := range tests {
		if got := trackURI(in); got != want {
			t.Errorf("trackURI(%q) = %q, want %q", in, got, want)
		}
	}
}
