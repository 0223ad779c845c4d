// Package ui implements an interactive terminal player using bubbletea's Elm architecture.
//
// The TUI has four views:
//  1. [LibraryView] : the user's liked songs, paged with "load more"
//  2. [PlaylistsView] : the user's playlists
//  3. [PlaylistTracksView] : the tracks of one playlist
//  4. [DevicesView] : available devices; selecting one transfers playback to it
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Playback snapshots flow through a subscription on [player.State], so the now-playing bar follows both user
// actions and the background poll. A command that fails with no active device opens the device picker.
package ui
