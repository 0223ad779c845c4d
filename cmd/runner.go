package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundwave/internal/auth"
	"github.com/desertthunder/soundwave/internal/services"
	"github.com/desertthunder/soundwave/internal/shared"
	"github.com/desertthunder/soundwave/internal/store"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	browser    auth.Browser
	blobs      store.BlobStore
	baseURL    string
	endpoint   *oauth2.Endpoint
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config is loaded from the --config path before any command runs.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	// Browser replaces the loopback/manual authorization step.
	Browser  auth.Browser
	Blobs    store.BlobStore
	BaseURL  string
	Endpoint *oauth2.Endpoint
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		browser:    opts.Browser,
		blobs:      opts.Blobs,
		baseURL:    opts.BaseURL,
		endpoint:   opts.Endpoint,
	}
}

// command builds the root command.
func (r *Runner) command() *cli.Command {
	return &cli.Command{
		Name:    "soundwave",
		Usage:   "Browse your Spotify library and control playback from the terminal",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("SOUNDWAVE_CONFIG"),
			},
		},
		Before:   r.load,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playerCommand, devicesCommand, libraryCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// load reads the configuration file (when present), applies .env and environment overrides
// and the configured log level.
func (r *Runner) load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.configPath == "" {
		r.configPath = cmd.String("config")
	}
	if r.config != nil {
		return ctx, nil
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(r.configPath); err == nil {
		loaded, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, fmt.Errorf("%w: %w", shared.ErrInvalidConfig, err)
		}
		config = loaded
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	if err := shared.ApplyEnv(config, ".env"); err != nil {
		return ctx, err
	}

	shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Log.Level))
	r.config = config
	return ctx, nil
}

func (r *Runner) settings() *shared.Config {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	return r.config
}

// open wires an [App] with the given authorization browser (nil for commands that never log in).
func (r *Runner) open(ctx context.Context, browser auth.Browser) (*App, error) {
	return NewApp(ctx, r.settings(), AppOpts{
		Logger:     r.logger,
		HTTPClient: r.httpClient,
		Browser:    browser,
		Blobs:      r.blobs,
		BaseURL:    r.baseURL,
		Endpoint:   r.endpoint,
	})
}

// authorized runs fn against an authenticated session. When the API rejects the access token,
// the session is refreshed once and fn runs again.
func (r *Runner) authorized(ctx context.Context, app *App, fn func(context.Context) error) error {
	if !app.Session.IsAuthenticated() {
		return fmt.Errorf("%w: run `soundwave auth login` first", shared.ErrNotAuthenticated)
	}

	err := fn(ctx)
	var apiErr *services.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		return err
	}

	r.logger.Info("access token rejected, refreshing")
	if err := app.Auth.Refresh(ctx); err != nil {
		return err
	}
	if !app.Session.IsAuthenticated() {
		return shared.ErrNotAuthenticated
	}
	return fn(ctx)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
