package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/soundwave/internal/formatter"
	"github.com/desertthunder/soundwave/internal/library"
	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/shared"
	"github.com/urfave/cli/v3"
)

// exportPageSize is the largest page the Web API serves.
const exportPageSize = 50

// LibraryTracks lists saved tracks.
func (r *Runner) LibraryTracks(ctx context.Context, cmd *cli.Command) error {
	app, err := r.open(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	lib := r.library(app, cmd)
	err = r.authorized(ctx, app, func(ctx context.Context) error {
		return paginate(ctx, cmd, &lib.Tracks, func(ctx context.Context, offset int) error {
			_, err := lib.LoadTracks(ctx, offset)
			return err
		})
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(lib.Tracks.Items(), true)
	}
	r.writePlainHeader(fmt.Sprintf("Liked Songs (%d)", lib.Tracks.Total()))
	r.printTracks(lib.Tracks.Items(), cmd.Int("offset"))
	r.printMore(lib.Tracks.HasMore(), lib.Tracks.NextOffset())
	return nil
}

// LibraryPlaylists lists the user's playlists.
func (r *Runner) LibraryPlaylists(ctx context.Context, cmd *cli.Command) error {
	app, err := r.open(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	lib := r.library(app, cmd)
	err = r.authorized(ctx, app, func(ctx context.Context) error {
		return paginate(ctx, cmd, &lib.Playlists, func(ctx context.Context, offset int) error {
			_, err := lib.LoadPlaylists(ctx, offset)
			return err
		})
	})
	if err != nil {
		return err
	}

	playlists := lib.Playlists.Items()
	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}
	r.writePlainHeader(fmt.Sprintf("Playlists (%d)", lib.Playlists.Total()))
	for i, p := range playlists {
		r.writePlain("%3d. %-32s %4d tracks  %s\n", cmd.Int("offset")+i+1, p.Name, p.TrackCount(), p.ID)
	}
	r.printMore(lib.Playlists.HasMore(), lib.Playlists.NextOffset())
	return nil
}

// LibraryPlaylist shows a playlist's details and tracks.
func (r *Runner) LibraryPlaylist(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}

	app, err := r.open(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	lib := r.library(app, cmd)
	var playlist *models.Playlist
	err = r.authorized(ctx, app, func(ctx context.Context) error {
		if playlist, err = lib.Playlist(ctx, id); err != nil {
			return err
		}
		return paginate(ctx, cmd, &lib.Current, func(ctx context.Context, offset int) error {
			_, err := lib.LoadPlaylistTracks(ctx, id, offset)
			return err
		})
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(formatter.Export{Playlist: *playlist, Tracks: lib.Current.Items()}, true)
	}

	r.writePlainHeader(playlist.Name)
	if playlist.Owner.DisplayName != "" {
		r.writePlain("Owner: %s\n", playlist.Owner.DisplayName)
	}
	if playlist.Description != "" {
		r.writePlain("Description: %s\n", playlist.Description)
	}
	r.writePlain("Tracks: %d\n\n", lib.Current.Total())
	r.printTracks(lib.Current.Items(), cmd.Int("offset"))
	r.printMore(lib.Current.HasMore(), lib.Current.NextOffset())
	return nil
}

// LibrarySearch searches the catalog for tracks.
func (r *Runner) LibrarySearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	app, err := r.open(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	lib := r.library(app, cmd)
	err = r.authorized(ctx, app, func(ctx context.Context) error {
		return paginate(ctx, cmd, &lib.Results, func(ctx context.Context, offset int) error {
			_, err := lib.Search(ctx, query, offset)
			return err
		})
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(lib.Results.Items(), true)
	}
	r.writePlainHeader(fmt.Sprintf("Results for %q (%d)", query, lib.Results.Total()))
	r.printTracks(lib.Results.Items(), cmd.Int("offset"))
	r.printMore(lib.Results.HasMore(), lib.Results.NextOffset())
	return nil
}

// LibraryCreate creates a playlist owned by the current user.
func (r *Runner) LibraryCreate(ctx context.Context, cmd *cli.Command) error {
	app, err := r.open(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	var playlist *models.Playlist
	err = r.authorized(ctx, app, func(ctx context.Context) error {
		playlist, err = app.Library.CreatePlaylist(ctx, cmd.String("name"), cmd.String("description"), cmd.Bool("public"))
		return err
	})
	if err != nil {
		return err
	}

	return r.writePlain("✓ Created playlist %s (%s)\n", playlist.Name, playlist.ID)
}

// LibraryAdd adds tracks to a playlist.
func (r *Runner) LibraryAdd(ctx context.Context, cmd *cli.Command) error {
	id, uris := cmd.String("id"), trackURIs(cmd.StringSlice("uri"))

	app, err := r.open(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	err = r.authorized(ctx, app, func(ctx context.Context) error {
		return app.Library.AddTracks(ctx, id, uris...)
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Added %d track(s) to %s\n", len(uris), id)
}

// LibraryRemove removes tracks from a playlist.
func (r *Runner) LibraryRemove(ctx context.Context, cmd *cli.Command) error {
	id, uris := cmd.String("id"), trackURIs(cmd.StringSlice("uri"))

	app, err := r.open(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	err = r.authorized(ctx, app, func(ctx context.Context) error {
		return app.Library.RemoveTracks(ctx, id, uris...)
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Removed %d track(s) from %s\n", len(uris), id)
}

// LibraryExport loads a whole playlist and writes it in the requested format.
func (r *Runner) LibraryExport(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	app, err := r.open(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	lib := library.New(app.Spotify, exportPageSize, r.logger)
	var playlist *models.Playlist
	err = r.authorized(ctx, app, func(ctx context.Context) error {
		if playlist, err = lib.Playlist(ctx, id); err != nil {
			return err
		}
		for offset := 0; ; offset = lib.Current.NextOffset() {
			if _, err := lib.LoadPlaylistTracks(ctx, id, offset); err != nil {
				return err
			}
			if !lib.Current.HasMore() {
				return nil
			}
		}
	})
	if err != nil {
		return err
	}

	export := &formatter.Export{Playlist: *playlist, Tracks: lib.Current.Items()}
	if cmd.String("output") == "-" {
		data, err := formatter.Render(export, format)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	path, err := formatter.WriteExport(export, format, cmd.String("output"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Exported %d tracks to %s\n", len(export.Tracks), path)
}

// library returns the app's library, or a fresh one when --limit overrides the page size.
func (r *Runner) library(app *App, cmd *cli.Command) *library.Library {
	if limit := cmd.Int("limit"); limit > 0 {
		return library.New(app.Spotify, limit, r.logger)
	}
	return app.Library
}

// paginate loads the page at --offset and, with --all, every page after it.
func paginate[T any](ctx context.Context, cmd *cli.Command, acc *library.Accumulator[T], load func(context.Context, int) error) error {
	if err := load(ctx, cmd.Int("offset")); err != nil {
		return err
	}
	for cmd.Bool("all") && acc.HasMore() {
		if err := load(ctx, acc.NextOffset()); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) printTracks(tracks []models.Track, offset int) {
	for i, t := range tracks {
		r.writePlain("%3d. %s [%s]  %s\n", offset+i+1, trackTitle(t), formatter.FormatDuration(t.DurationMS), t.URI)
	}
}

func (r *Runner) printMore(more bool, next int) {
	if more {
		r.writePlainln("More available: --offset %d (or --all)", next)
	}
}

func trackURIs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, trackURI(s))
	}
	return out
}
