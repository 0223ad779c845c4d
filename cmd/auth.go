package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/desertthunder/soundwave/internal/auth"
	"github.com/desertthunder/soundwave/internal/server"
	"github.com/desertthunder/soundwave/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin performs the authorization-code flow.
//
// By default a loopback server on [server] host and port (or the redirect URI's) receives the callback; with
// --manual the user pastes the redirect URL instead.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	browser := r.browser
	if browser == nil {
		if cmd.Bool("manual") {
			browser = auth.PromptBrowser{In: r.input, Out: r.output, Open: shared.OpenBrowser}
		} else {
			browser = server.LoopbackBrowser{
				Addr:    r.callbackAddr(),
				Timeout: cmd.Duration("timeout"),
				Logger:  r.logger,
				Notice: func(authURL string) {
					r.writePlain("Opening your browser to authorize soundwave. If it does not open, visit:\n\n  %s\n\n", authURL)
				},
			}
		}
	}

	app, err := r.open(ctx, browser)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Auth.Login(ctx); err != nil {
		return err
	}

	user, err := app.Spotify.CurrentUser(ctx)
	if err != nil {
		r.logger.Warn("could not fetch profile", "error", err)
		return r.writePlain("✓ Logged in\n")
	}
	return r.writePlain("✓ Logged in as %s\n", displayName(user.DisplayName, user.ID))
}

// AuthLogout erases the stored credentials.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	app, err := r.open(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Auth.Logout(ctx)
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus reports whether a session is stored and, when it is, whose it is.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	app, err := r.open(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.Session.IsAuthenticated() {
		r.writePlain("Authentication: ✗ Not logged in\n")
		return r.writePlain("Run 'soundwave auth login' to connect your Spotify account\n")
	}

	r.writePlain("Authentication: ✓ Logged in\n")
	if tokens, ok := app.Session.Tokens(); ok {
		r.writePlain("Token lifetime: %ds\n", tokens.ExpiresInSeconds)
	}
	if app.Scheduler.Running(auth.RefreshJob) {
		r.writePlain("Token refresh: every %s while running\n", r.settings().Player.TokenRefreshInterval.Duration)
	}

	err = r.authorized(ctx, app, func(ctx context.Context) error {
		user, err := app.Spotify.CurrentUser(ctx)
		if err != nil {
			return err
		}
		return r.writePlain("Account: %s\n", displayName(user.DisplayName, user.ID))
	})
	if err != nil {
		r.logger.Warn("could not fetch profile", "error", err)
		return r.writePlain("Account: unavailable (%s)\n", shared.UserMessage(err))
	}
	return nil
}

// AuthRefresh exchanges the stored refresh token now.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	app, err := r.open(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.Session.IsAuthenticated() {
		return fmt.Errorf("%w: run `soundwave auth login` first", shared.ErrNotAuthenticated)
	}
	if err := app.Auth.Refresh(ctx); err != nil {
		return err
	}

	tokens, _ := app.Session.Tokens()
	return r.writePlain("✓ Token refreshed (valid for %ds)\n", tokens.ExpiresInSeconds)
}

// callbackAddr is the [server] bind address, or empty to bind the redirect URI's host.
func (r *Runner) callbackAddr() string {
	srv := r.settings().Server
	if srv.Port == 0 {
		return ""
	}
	return net.JoinHostPort(srv.Host, strconv.Itoa(srv.Port))
}

func displayName(name, id string) string {
	if name == "" {
		return id
	}
	return fmt.Sprintf("%s (%s)", name, id)
}
