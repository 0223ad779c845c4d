package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/player"
	"github.com/desertthunder/soundwave/internal/shared"
	"github.com/desertthunder/soundwave/internal/tasks"
	"github.com/urfave/cli/v3"
)

const settleTimeout = 5 * time.Second

// nowPlaying is the JSON shape of a playback snapshot.
type nowPlaying struct {
	Track     *models.Track `json:"track"`
	IsPlaying bool          `json:"is_playing"`
}

// PlayerNow reads the remote player and prints the current track.
func (r *Runner) PlayerNow(ctx context.Context, cmd *cli.Command) error {
	app, err := r.open(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := r.authorized(ctx, app, refreshNow(app)); err != nil {
		return err
	}

	snap := app.Player.State().Snapshot()
	if cmd.Bool("json") {
		return r.writeJSON(nowPlaying{Track: snap.CurrentTrack, IsPlaying: snap.IsPlaying}, true)
	}

	r.writePlainHeader("Now Playing")
	r.printSnapshot(snap)
	return nil
}

// PlayerPlay starts a track on the active device, transferring to --device first when given.
func (r *Runner) PlayerPlay(ctx context.Context, cmd *cli.Command) error {
	uri := trackURI(cmd.String("uri"))
	target := cmd.String("device")

	app, err := r.open(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	err = r.authorized(ctx, app, func(ctx context.Context) error {
		if _, err := app.Devices.ListDevices(ctx); err != nil {
			return err
		}
		if target != "" {
			device, ok := app.Devices.Find(target)
			if !ok {
				return fmt.Errorf("%w: no device matches %q", shared.ErrInvalidArgument, target)
			}
			if _, err := app.Devices.SelectDevice(ctx, device); err != nil {
				return err
			}
		}
		return app.Player.PlayTrack(ctx, models.Track{URI: uri})
	})
	if err != nil {
		return err
	}

	r.printSnapshot(r.settle(ctx, app))
	return nil
}

// PlayerToggle pauses or resumes playback.
func (r *Runner) PlayerToggle(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, func(app *App) func(context.Context) error { return app.Player.TogglePlayPause })
}

// PlayerNext skips forward.
func (r *Runner) PlayerNext(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, func(app *App) func(context.Context) error { return app.Player.SkipNext })
}

// PlayerPrevious skips back.
func (r *Runner) PlayerPrevious(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, func(app *App) func(context.Context) error { return app.Player.SkipPrevious })
}

// control reads the server's playback first, so the action sees the real playing flag and
// track, then runs it and prints the reconciled state.
func (r *Runner) control(ctx context.Context, action func(*App) func(context.Context) error) error {
	app, err := r.open(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	err = r.authorized(ctx, app, func(ctx context.Context) error {
		if err := refreshNow(app)(ctx); err != nil {
			return err
		}
		return action(app)(ctx)
	})
	if err != nil {
		return err
	}

	r.printSnapshot(r.settle(ctx, app))
	return nil
}

// PlayerWatch polls the remote player and prints a line whenever the track or playing flag
// changes, until interrupted or the session ends.
func (r *Runner) PlayerWatch(ctx context.Context, cmd *cli.Command) error {
	if interval := cmd.Duration("interval"); interval > 0 {
		r.settings().Player.PollInterval.Duration = interval
	}

	app, err := r.open(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := r.authorized(ctx, app, refreshNow(app)); err != nil {
		return err
	}

	updates, unsubscribe := app.Player.State().Subscribe(4)
	defer unsubscribe()

	events := make(chan tasks.Event, 8)
	app.Scheduler.Notify(events)

	r.writePlain("Watching playback (ctrl+c to stop)\n")
	last := app.Player.State().Snapshot()
	r.printLine(last)
	app.Player.Bind(app.Session)

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			if !app.Session.IsAuthenticated() {
				return fmt.Errorf("%w: session ended", shared.ErrNotAuthenticated)
			}
			if sameTrack(last, snap) {
				continue
			}
			last = snap
			r.printLine(snap)
		case e := <-events:
			if e.Kind == tasks.JobFailed {
				r.writePlain("[%s] ⚠ %s failed: %s\n", time.Now().Format("15:04:05"), e.Job, shared.UserMessage(e.Err))
			}
		}
	}
}

func refreshNow(app *App) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := app.Player.RefreshNowPlaying(ctx)
		return err
	}
}

// settle waits for the post-action reconcile read so the printed state is the server's.
func (r *Runner) settle(ctx context.Context, app *App) player.Snapshot {
	wait, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()

	if err := app.Scheduler.Wait(wait, player.ReconcileJob); err != nil {
		r.logger.Debug("reconcile did not finish", "error", err)
	}
	return app.Player.State().Snapshot()
}

func (r *Runner) printSnapshot(snap player.Snapshot) {
	if !snap.HasTrack() {
		r.writePlain("Nothing playing\n")
		return
	}

	track := snap.CurrentTrack
	r.writePlain("%s %s\n", playingLabel(snap.IsPlaying), trackTitle(*track))
	if track.Album.Name != "" {
		r.writePlain("Album: %s\n", track.Album.Name)
	}
	if track.URI != "" {
		r.writePlain("URI: %s\n", track.URI)
	}
}

func (r *Runner) printLine(snap player.Snapshot) {
	stamp := time.Now().Format("15:04:05")
	if !snap.HasTrack() {
		r.writePlain("[%s] Nothing playing\n", stamp)
		return
	}
	r.writePlain("[%s] %s %s\n", stamp, playingLabel(snap.IsPlaying), trackTitle(*snap.CurrentTrack))
}

func playingLabel(playing bool) string {
	if playing {
		return "▶ Playing:"
	}
	return "⏸ Paused:"
}

func trackTitle(track models.Track) string {
	artists := track.ArtistNames()
	switch {
	case track.Name == "":
		return track.URI
	case artists == "":
		return track.Name
	default:
		return fmt.Sprintf("%s - %s", artists, track.Name)
	}
}

func sameTrack(a, b player.Snapshot) bool {
	if a.IsPlaying != b.IsPlaying || a.HasTrack() != b.HasTrack() {
		return false
	}
	return !a.HasTrack() || a.CurrentTrack.URI == b.CurrentTrack.URI
}

// trackURI accepts a track URI, a bare track ID or an open.spotify.com track link.
func trackURI(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "spotify:") {
		return s
	}
	if u, err := url.Parse(s); err == nil && u.Host == "open.spotify.com" {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 && parts[0] == "track" {
			return "spotify:track:" + parts[1]
		}
	}
	return "spotify:track:" + s
}
