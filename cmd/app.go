package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundwave/internal/auth"
	"github.com/desertthunder/soundwave/internal/devices"
	"github.com/desertthunder/soundwave/internal/library"
	"github.com/desertthunder/soundwave/internal/player"
	"github.com/desertthunder/soundwave/internal/services"
	"github.com/desertthunder/soundwave/internal/session"
	"github.com/desertthunder/soundwave/internal/shared"
	"github.com/desertthunder/soundwave/internal/store"
	"github.com/desertthunder/soundwave/internal/tasks"
	"golang.org/x/oauth2"
)

// App is the object graph every command runs against: one session, its controller, the API
// client and the playback/library layers built on it.
type App struct {
	Scheduler *tasks.Scheduler
	Session   *session.State
	Auth      *auth.Controller
	Spotify   *services.SpotifyService
	Devices   *devices.Coordinator
	Player    *player.Orchestrator
	Library   *library.Library

	closer io.Closer
}

// AppOpts overrides pieces of the graph. Zero values use the configuration.
type AppOpts struct {
	Logger     *log.Logger
	HTTPClient *http.Client
	Browser    auth.Browser
	// Blobs replaces the configured store backend.
	Blobs    store.BlobStore
	BaseURL  string
	Endpoint *oauth2.Endpoint
}

// NewApp wires the graph and hydrates the session from storage. Close releases it.
func NewApp(ctx context.Context, config *shared.Config, opts AppOpts) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	blobs := opts.Blobs
	var closer io.Closer
	if blobs == nil {
		b, c, err := store.Open(ctx, config)
		if err != nil {
			return nil, err
		}
		blobs, closer = b, c
	}

	scheduler := tasks.NewScheduler(ctx, opts.Logger)
	sess := session.New()

	controller, err := auth.NewController(auth.Options{
		Config:          config.Credentials.Spotify,
		Store:           store.NewTokenStore(blobs, opts.Logger),
		Session:         sess,
		Browser:         opts.Browser,
		Scheduler:       scheduler,
		HTTPClient:      opts.HTTPClient,
		Logger:          opts.Logger,
		RefreshInterval: config.Player.TokenRefreshInterval.Duration,
		Endpoint:        opts.Endpoint,
	})
	if err != nil {
		release(scheduler, closer)
		return nil, err
	}

	spotify, err := services.NewSpotifyService(services.SpotifyOpts{
		Tokens:     sess,
		HTTPClient: opts.HTTPClient,
		BaseURL:    opts.BaseURL,
		Limiter:    services.NewLimiter(config.Player.RequestsPerSecond),
		Logger:     opts.Logger,
	})
	if err != nil {
		release(scheduler, closer)
		return nil, err
	}

	coordinator := devices.NewCoordinator(spotify, opts.Logger)
	orchestrator, err := player.NewOrchestrator(player.Options{
		Remote:         spotify,
		Devices:        coordinator,
		Scheduler:      scheduler,
		PollInterval:   config.Player.PollInterval.Duration,
		ReconcileDelay: config.Player.ReconcileDelay.Duration,
		Logger:         opts.Logger,
	})
	if err != nil {
		release(scheduler, closer)
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	controller.Hydrate(ctx)

	return &App{
		Scheduler: scheduler,
		Session:   sess,
		Auth:      controller,
		Spotify:   spotify,
		Devices:   coordinator,
		Player:    orchestrator,
		Library:   library.New(spotify, config.Player.PageSize, opts.Logger),
		closer:    closer,
	}, nil
}

// Close stops every scheduled job and releases the store backend.
func (a *App) Close() error {
	return release(a.Scheduler, a.closer)
}

func release(scheduler *tasks.Scheduler, closer io.Closer) error {
	scheduler.Close()
	if closer == nil {
		return nil
	}
	return closer.Close()
}
