package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/soundwave/internal/formatter"
	"github.com/desertthunder/soundwave/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
	_ list.Item = deviceItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.TrackCount())
	if i.playlist.Owner.DisplayName != "" {
		desc = fmt.Sprintf("%s • by %s", desc, i.playlist.Owner.DisplayName)
	}
	return desc
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Name + " " + i.track.ArtistNames() }
func (i trackItem) Title() string {
	if i.track.Explicit {
		return i.track.Name + " 🅴"
	}
	return i.track.Name
}
func (i trackItem) Description() string {
	desc := i.track.ArtistNames()
	if i.track.Album.Name != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album.Name)
	}
	if i.track.DurationMS > 0 {
		desc = fmt.Sprintf("%s • %s", desc, formatter.FormatDuration(i.track.DurationMS))
	}
	return desc
}

// deviceItem wraps [models.Device] to implement [list.Item].
type deviceItem struct {
	device models.Device
}

func (i deviceItem) FilterValue() string { return i.device.Name }
func (i deviceItem) Title() string {
	title := fmt.Sprintf("%s %s", i.device.Type.Icon(), i.device.Name)
	if i.device.IsActive {
		title += " (active)"
	}
	return title
}
func (i deviceItem) Description() string {
	desc := string(i.device.Type)
	if i.device.IsRestricted {
		desc += " • restricted"
	}
	return desc
}

func trackItems(tracks []models.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}

func playlistItems(playlists []models.Playlist) []list.Item {
	items := make([]list.Item, len(playlists))
	for i, p := range playlists {
		items[i] = playlistItem{playlist: p}
	}
	return items
}

func deviceItems(devices []models.Device) []list.Item {
	items := make([]list.Item, len(devices))
	for i, d := range devices {
		items[i] = deviceItem{device: d}
	}
	return items
}
