package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./soundwave.db" {
			t.Errorf("expected database path ./soundwave.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8888 {
			t.Errorf("expected server port 8888, got %d", config.Server.Port)
		}

		if config.Store.Backend != "sqlite" {
			t.Errorf("expected sqlite store backend, got %s", config.Store.Backend)
		}

		if config.Player.PollInterval.Duration != 5*time.Second {
			t.Errorf("expected 5s poll interval, got %v", config.Player.PollInterval)
		}

		if config.Player.ReconcileDelay.Duration != 300*time.Millisecond {
			t.Errorf("expected 300ms reconcile delay, got %v", config.Player.ReconcileDelay)
		}

		if config.Player.TokenRefreshInterval.Duration != 50*time.Minute {
			t.Errorf("expected 50m token refresh interval, got %v", config.Player.TokenRefreshInterval)
		}

		if len(config.Credentials.Spotify.Scopes) != 6 {
			t.Errorf("expected 6 scopes, got %d", len(config.Credentials.Spotify.Scopes))
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[store]
backend = "redis"

[store.redis]
addr = "cache:6379"

[server]
port = 9090

[player]
poll_interval = "2s"

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "soundwave://spotify-auth-callback"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Store.Backend != "redis" || config.Store.Redis.Addr != "cache:6379" {
			t.Errorf("unexpected store config %+v", config.Store)
		}
		if config.Server.Port != 9090 {
			t.Errorf("expected server port 9090, got %d", config.Server.Port)
		}
		if config.Player.PollInterval.Duration != 2*time.Second {
			t.Errorf("expected 2s poll interval, got %v", config.Player.PollInterval)
		}
		if config.Player.ReconcileDelay.Duration != 300*time.Millisecond {
			t.Errorf("expected default reconcile delay to survive, got %v", config.Player.ReconcileDelay)
		}
		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
	})

	t.Run("LoadConfig invalid duration", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[player]\npoll_interval = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Fatal("expected error for invalid duration")
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("SpotifyConfig Validate", func(t *testing.T) {
		tc := []struct {
			name    string
			config  SpotifyConfig
			wantErr bool
		}{
			{name: "complete", config: SpotifyConfig{ClientID: "id", ClientSecret: "secret", RedirectURI: "soundwave://cb"}},
			{name: "missing secret", config: SpotifyConfig{ClientID: "id", RedirectURI: "soundwave://cb"}, wantErr: true},
			{name: "missing redirect", config: SpotifyConfig{ClientID: "id", ClientSecret: "secret"}, wantErr: true},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.config.Validate()
				if tt.wantErr {
					if !errors.Is(err, ErrMissingCredentials) {
						t.Errorf("expected ErrMissingCredentials, got %v", err)
					}
					return
				}
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
			})
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Run("environment overrides file values", func(t *testing.T) {
		t.Setenv("SPOTIFY_CLIENT_ID", "env_id")
		t.Setenv("SPOTIFY_CLIENT_SECRET", "env_secret")
		t.Setenv("SOUNDWAVE_STORE", "memory")
		t.Setenv("SOUNDWAVE_SERVER_PORT", "9999")

		config := DefaultConfig()
		if err := ApplyEnv(config, ""); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if config.Credentials.Spotify.ClientID != "env_id" {
			t.Errorf("expected env_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.ClientSecret != "env_secret" {
			t.Errorf("expected env_secret, got %s", config.Credentials.Spotify.ClientSecret)
		}
		if config.Store.Backend != "memory" {
			t.Errorf("expected memory backend, got %s", config.Store.Backend)
		}
		if config.Server.Port != 9999 {
			t.Errorf("expected port 9999, got %d", config.Server.Port)
		}
	})

	t.Run("loads .env file", func(t *testing.T) {
		envFile := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envFile, []byte("SPOTIFY_REDIRECT_URI=soundwave://spotify-auth-callback\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv("SPOTIFY_REDIRECT_URI", "")
		os.Unsetenv("SPOTIFY_REDIRECT_URI")

		config := DefaultConfig()
		if err := ApplyEnv(config, envFile); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if config.Credentials.Spotify.RedirectURI != "soundwave://spotify-auth-callback" {
			t.Errorf("expected redirect from .env, got %s", config.Credentials.Spotify.RedirectURI)
		}
	})

	t.Run("missing .env file is ignored", func(t *testing.T) {
		config := DefaultConfig()
		if err := ApplyEnv(config, filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("invalid port", func(t *testing.T) {
		t.Setenv("SOUNDWAVE_SERVER_PORT", "eighty")

		err := ApplyEnv(DefaultConfig(), "")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
