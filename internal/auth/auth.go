package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/session"
	"github.com/desertthunder/soundwave/internal/shared"
	"github.com/desertthunder/soundwave/internal/store"
	"github.com/desertthunder/soundwave/internal/tasks"
	"golang.org/x/oauth2"
)

const (
	// RefreshJob names the periodic token refresh in the scheduler.
	RefreshJob = "token-refresh"

	DefaultRefreshInterval = 50 * time.Minute

	AuthURL  = "https://accounts.spotify.com/authorize"
	TokenURL = "https://accounts.spotify.com/api/token"
)

// Scopes is the fixed scope set requested at login.
var Scopes = []string{
	"user-library-read",
	"playlist-read-private",
	"playlist-modify-public",
	"playlist-modify-private",
	"user-read-playback-state",
	"user-modify-playback-state",
}

// Browser performs the interactive authorization step: it presents authURL to the user and
// returns the redirect URL the identity provider sent back to redirectURI.
//
// A user who abandons the flow is reported with an error wrapping [shared.ErrAuthCancelled]
// or a context error.
type Browser interface {
	Authorize(ctx context.Context, authURL, redirectURI string) (string, error)
}

// Options configures a [Controller].
type Options struct {
	Config  shared.SpotifyConfig
	Store   *store.TokenStore
	Session *session.State
	Browser Browser
	// Scheduler runs the refresh loop. Nil disables periodic refresh.
	Scheduler       *tasks.Scheduler
	HTTPClient      *http.Client
	Logger          *log.Logger
	RefreshInterval time.Duration
	// Endpoint overrides the identity provider, for tests.
	Endpoint *oauth2.Endpoint
}

// Controller drives login, logout, hydration and silent refresh, and is the only writer of [session.State].
type Controller struct {
	// mu orders session writes between login, logout and an in-flight refresh
	mu sync.Mutex

	oauth      *oauth2.Config
	store      *store.TokenStore
	session    *session.State
	browser    Browser
	scheduler  *tasks.Scheduler
	httpClient *http.Client
	logger     *log.Logger
	interval   time.Duration
}

// NewController validates opts and binds the refresh loop to the session: it starts when a
// credential appears and is cancelled when it goes away.
func NewController(opts Options) (*Controller, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: token store", shared.ErrMissingArgument)
	}
	if opts.Session == nil {
		return nil, fmt.Errorf("%w: session", shared.ErrMissingArgument)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}

	endpoint := oauth2.Endpoint{AuthURL: AuthURL, TokenURL: TokenURL}
	if opts.Endpoint != nil {
		endpoint = *opts.Endpoint
	}
	endpoint.AuthStyle = oauth2.AuthStyleInHeader

	scopes := opts.Config.Scopes
	if len(scopes) == 0 {
		scopes = Scopes
	}

	c := &Controller{
		oauth: &oauth2.Config{
			ClientID:     opts.Config.ClientID,
			ClientSecret: opts.Config.ClientSecret,
			RedirectURL:  opts.Config.RedirectURI,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		store:      opts.Store,
		session:    opts.Session,
		browser:    opts.Browser,
		scheduler:  opts.Scheduler,
		httpClient: opts.HTTPClient,
		logger:     shared.WithLogger(opts.Logger, "component", "auth"),
		interval:   opts.RefreshInterval,
	}

	if c.scheduler != nil {
		c.session.OnChange(func(prev, next session.Snapshot) {
			switch {
			case session.Became(prev, next):
				c.scheduler.Every(RefreshJob, c.interval, c.refreshJob)
			case session.Ended(prev, next):
				c.scheduler.Cancel(RefreshJob)
			}
		})
	}

	return c, nil
}

// AuthURL builds the authorization URL for state.
func (c *Controller) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// RedirectURI is the callback the identity provider redirects to.
func (c *Controller) RedirectURI() string {
	return c.oauth.RedirectURL
}

// Hydrate loads the persisted record once at startup. It never fails: an unreadable record is
// logged and treated as absent. Loading always ends.
func (c *Controller) Hydrate(ctx context.Context) {
	defer c.session.FinishLoading()

	record, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Warn("could not read stored credentials", "error", err)
		c.session.Clear()
		return
	}
	if record == nil {
		c.logger.Debug("no stored credentials")
		c.session.Clear()
		return
	}

	c.session.Authenticate(*record)
	c.logger.Debug("session restored")
}

// Login runs the interactive authorization-code flow. On any failure the session is left
// unauthenticated and the error is returned.
func (c *Controller) Login(ctx context.Context) error {
	if c.browser == nil {
		return fmt.Errorf("%w: browser", shared.ErrMissingArgument)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthExchange, err)
	}

	redirect, err := c.browser.Authorize(ctx, c.AuthURL(state), c.oauth.RedirectURL)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, shared.ErrAuthCancelled) {
			return fmt.Errorf("%w: %w", shared.ErrAuthExchange, shared.ErrAuthCancelled)
		}
		return fmt.Errorf("%w: %w", shared.ErrAuthExchange, err)
	}

	code, err := ParseRedirect(redirect, state)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthExchange, err)
	}

	token, err := c.oauth.Exchange(c.clientContext(ctx), code)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthExchange, describe(err))
	}

	record := recordFrom(token, "")
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthExchange, err)
	}

	if err := c.store.Save(ctx, record); err != nil {
		c.logger.Error("could not persist credentials", "error", err)
		return err
	}

	c.mu.Lock()
	c.session.Authenticate(record)
	c.mu.Unlock()
	c.logger.Info("logged in")
	return nil
}

// Logout erases the persisted record and clears the session. It always succeeds from the
// caller's perspective; storage failures are logged.
func (c *Controller) Logout(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logout(ctx)
}

// logout requires c.mu.
func (c *Controller) logout(ctx context.Context) {
	if err := c.store.Erase(ctx); err != nil {
		c.logger.Warn("could not erase stored credentials", "error", err)
	}
	c.session.Clear()
	if c.scheduler != nil {
		c.scheduler.Cancel(RefreshJob)
	}
	c.logger.Info("logged out")
}

// Refresh exchanges the held refresh token for a new access token. It is a no-op without a
// refresh token. The prior refresh token is kept when the server omits a new one. Any failure
// forces a logout and is returned. When the session changed while the exchange was in flight
// (logout, or a new login) the outcome is discarded, success or failure.
func (c *Controller) Refresh(ctx context.Context) error {
	current, ok := c.session.Tokens()
	if !ok || current.RefreshToken == "" {
		return nil
	}

	source := c.oauth.TokenSource(c.clientContext(ctx), &oauth2.Token{RefreshToken: current.RefreshToken})
	token, err := source.Token()
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if latest, ok := c.session.Tokens(); !ok || latest != current {
		c.logger.Debug("session changed during refresh, discarding result", "failed", err != nil)
		return nil
	}

	if err != nil {
		c.logger.Warn("token refresh failed, logging out", "error", err)
		c.logout(ctx)
		return fmt.Errorf("%w: %w", shared.ErrAuthExchange, describe(err))
	}

	record := recordFrom(token, current.RefreshToken)
	if err := c.store.Save(ctx, record); err != nil {
		c.logger.Warn("could not persist refreshed credentials, logging out", "error", err)
		c.logout(ctx)
		return err
	}
	c.session.Authenticate(record)

	c.logger.Debug("token refreshed", "expires_in", record.ExpiresInSeconds)
	return nil
}

func (c *Controller) refreshJob(ctx context.Context) error {
	return c.Refresh(ctx)
}

func (c *Controller) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// ParseRedirect validates the redirect URL against state and extracts the authorization code.
func ParseRedirect(redirect, state string) (string, error) {
	u, err := url.Parse(redirect)
	if err != nil {
		return "", fmt.Errorf("%w: malformed redirect: %w", shared.ErrInvalidInput, err)
	}

	q := u.Query()
	if e := q.Get("error"); e != "" {
		if e == "access_denied" {
			return "", shared.ErrAuthCancelled
		}
		if desc := q.Get("error_description"); desc != "" {
			return "", fmt.Errorf("authorization failed: %s: %s", e, desc)
		}
		return "", fmt.Errorf("authorization failed: %s", e)
	}
	if q.Get("state") != state {
		return "", shared.ErrStateMismatch
	}

	code := q.Get("code")
	if code == "" {
		return "", fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}
	return code, nil
}

// recordFrom converts a token response. fallbackRefresh fills a missing refresh token.
func recordFrom(token *oauth2.Token, fallbackRefresh string) models.TokenRecord {
	record := models.TokenRecord{
		AccessToken:      token.AccessToken,
		RefreshToken:     token.RefreshToken,
		ExpiresInSeconds: expiresIn(token),
	}
	if record.RefreshToken == "" {
		record.RefreshToken = fallbackRefresh
	}
	return record
}

func expiresIn(token *oauth2.Token) int64 {
	switch v := token.Extra("expires_in").(type) {
	case float64:
		return int64(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	if token.Expiry.IsZero() {
		return 0
	}
	return int64(time.Until(token.Expiry).Round(time.Second) / time.Second)
}

// describe flattens an [oauth2.RetrieveError] into its status and provider error code.
func describe(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return err
	}
	status := 0
	if re.Response != nil {
		status = re.Response.StatusCode
	}
	if re.ErrorCode != "" {
		return fmt.Errorf("token endpoint returned %d: %s", status, re.ErrorCode)
	}
	return fmt.Errorf("token endpoint returned %d", status)
}
