// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "offset",
			Usage: "Index of the first item to return",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Page size (1-50, defaults to player.page_size)",
		},
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Keep loading pages until the list is exhausted",
		},
		jsonFlag(),
	}
}

// setupCommand writes the config file and prepares the token database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and run database migrations",
		Action: r.Setup,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Spotify session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize soundwave with your Spotify account",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "manual",
						Usage: "Paste the redirect URL instead of running a local callback server",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: 3 * time.Minute,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored credentials",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show whether a session is stored",
				Action: r.AuthStatus,
			},
			{
				Name:   "refresh",
				Usage:  "Exchange the refresh token for a new access token now",
				Action: r.AuthRefresh,
			},
		},
	}
}

// playerCommand handles playback control
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "player",
		Aliases: []string{"p"},
		Usage:   "Control playback on the active device",
		Commands: []*cli.Command{
			{
				Name:   "now",
				Usage:  "Show the currently playing track",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.PlayerNow,
			},
			{
				Name:  "play",
				Usage: "Play a track on the active (or given) device",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "uri",
						Usage:    "Track URI or ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "device",
						Usage: "Device ID or name to transfer playback to first",
					},
				},
				Action: r.PlayerPlay,
			},
			{
				Name:   "toggle",
				Usage:  "Pause or resume playback",
				Action: r.PlayerToggle,
			},
			{
				Name:   "next",
				Usage:  "Skip to the next track",
				Action: r.PlayerNext,
			},
			{
				Name:    "prev",
				Aliases: []string{"previous"},
				Usage:   "Skip to the previous track",
				Action:  r.PlayerPrevious,
			},
			{
				Name:  "watch",
				Usage: "Print the now-playing track whenever it changes",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "interval",
						Usage: "Poll interval (defaults to player.poll_interval)",
					},
				},
				Action: r.PlayerWatch,
			},
		},
	}
}

// devicesCommand handles device enumeration and transfer
func devicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "devices",
		Aliases: []string{"dev"},
		Usage:   "List devices and transfer playback",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List available devices",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.DevicesList,
			},
			{
				Name:  "select",
				Usage: "Transfer playback to a device",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "device",
					},
				},
				Action: r.DevicesSelect,
			},
		},
	}
}

// libraryCommand handles library browsing and playlist editing
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Browse saved tracks and playlists",
		Commands: []*cli.Command{
			{
				Name:   "tracks",
				Usage:  "List saved tracks",
				Flags:  pageFlags(),
				Action: r.LibraryTracks,
			},
			{
				Name:   "playlists",
				Usage:  "List your playlists",
				Flags:  pageFlags(),
				Action: r.LibraryPlaylists,
			},
			{
				Name:  "playlist",
				Usage: "Show a playlist and its tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags:  pageFlags(),
				Action: r.LibraryPlaylist,
			},
			{
				Name:  "search",
				Usage: "Search the catalog for tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "query",
					},
				},
				Flags:  pageFlags(),
				Action: r.LibrarySearch,
			},
			{
				Name:  "create",
				Usage: "Create a playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Playlist name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description",
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Make the playlist public",
					},
				},
				Action: r.LibraryCreate,
			},
			{
				Name:   "add",
				Usage:  "Add tracks to a playlist",
				Flags:  editFlags(),
				Action: r.LibraryAdd,
			},
			{
				Name:   "remove",
				Usage:  "Remove tracks from a playlist",
				Flags:  editFlags(),
				Action: r.LibraryRemove,
			},
			{
				Name:  "export",
				Usage: "Export a playlist as csv, md, txt or json",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, md, txt or json",
						Value:   "txt",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (\"-\" for stdout, defaults to {id}.{format})",
					},
				},
				Action: r.LibraryExport,
			},
		},
	}
}

func editFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "id",
			Usage:    "Playlist ID",
			Required: true,
		},
		&cli.StringSliceFlag{
			Name:     "uri",
			Usage:    "Track URI or ID (repeatable)",
			Required: true,
		},
	}
}

// tuiCommand returns the top-level TUI command for the interactive player.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive player",
		Action:  r.TUI,
	}
}
