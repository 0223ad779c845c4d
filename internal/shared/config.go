package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Store       StoreConfig       `toml:"store"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Player      PlayerConfig      `toml:"player"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify application credentials.
type SpotifyConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`
}

// Validate reports whether the credentials needed for the authorization code flow are present.
func (c SpotifyConfig) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", ErrMissingCredentials)
	}
	if c.RedirectURI == "" {
		return fmt.Errorf("%w: spotify redirect_uri must be set", ErrMissingCredentials)
	}
	return nil
}

// StoreConfig selects the token storage backend.
type StoreConfig struct {
	Backend string      `toml:"backend"` // sqlite, file, redis, memory
	Path    string      `toml:"path"`    // file backend only
	Redis   RedisConfig `toml:"redis"`
}

// RedisConfig contains redis connection settings for the redis store backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the loopback callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// PlayerConfig contains polling and pacing settings for playback control.
type PlayerConfig struct {
	PollInterval         Duration `toml:"poll_interval"`
	ReconcileDelay       Duration `toml:"reconcile_delay"`
	TokenRefreshInterval Duration `toml:"token_refresh_interval"`
	PageSize             int      `toml:"page_size"`
	RequestsPerSecond    float64  `toml:"requests_per_second"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Duration wraps [time.Duration] so it can be written as a string ("5s", "50m") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads a .env file from envFile when it exists and overrides config values with
// SPOTIFY_* / SOUNDWAVE_* / REDIS_* environment variables.
func ApplyEnv(config *Config, envFile string) error {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("%w: failed to load %s: %v", ErrInvalidConfig, envFile, err)
			}
		}
	}

	setString(&config.Credentials.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	setString(&config.Credentials.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	setString(&config.Credentials.Spotify.RedirectURI, "SPOTIFY_REDIRECT_URI")
	setString(&config.Store.Backend, "SOUNDWAVE_STORE")
	setString(&config.Log.Level, "SOUNDWAVE_LOG_LEVEL")
	setString(&config.Store.Redis.Addr, "REDIS_URL")
	setString(&config.Store.Redis.Password, "REDIS_PASSWORD")

	if v := os.Getenv("SOUNDWAVE_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SOUNDWAVE_SERVER_PORT=%q", ErrInvalidConfig, v)
		}
		config.Server.Port = port
	}

	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
