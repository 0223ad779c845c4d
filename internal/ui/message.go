package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/player"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTracksLoaded MsgKind = iota
	MsgPlaylistsLoaded
	MsgPlaylistTracksLoaded
	MsgDevicesLoaded
	MsgDeviceSelected
	MsgActionDone
	MsgPlayback
	MsgDevicesKnown
)

type loaded struct {
	err error
}

type playlistTracks struct {
	playlist models.Playlist
	err      error
}

type devicesResult struct {
	devices []models.Device
	err     error
}

type deviceResult struct {
	device *models.Device
	err    error
}

type actionResult struct {
	action string
	err    error
}

func tracksLoadedMsg(err error) Msg {
	return Msg{kind: MsgTracksLoaded, data: loaded{err}}
}

func playlistsLoadedMsg(err error) Msg {
	return Msg{kind: MsgPlaylistsLoaded, data: loaded{err}}
}

func playlistTracksLoadedMsg(playlist models.Playlist, err error) Msg {
	return Msg{kind: MsgPlaylistTracksLoaded, data: playlistTracks{playlist, err}}
}

func devicesLoadedMsg(devices []models.Device, err error) Msg {
	return Msg{kind: MsgDevicesLoaded, data: devicesResult{devices, err}}
}

// devicesKnownMsg reports a background enumeration that must not open the picker.
func devicesKnownMsg(devices []models.Device, err error) Msg {
	return Msg{kind: MsgDevicesKnown, data: devicesResult{devices, err}}
}

func deviceSelectedMsg(device *models.Device, err error) Msg {
	return Msg{kind: MsgDeviceSelected, data: deviceResult{device, err}}
}

func actionDoneMsg(action string, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionResult{action, err}}
}

// playbackMsg carries a snapshot published by [player.State].
func playbackMsg(snap player.Snapshot) Msg {
	return Msg{kind: MsgPlayback, data: snap}
}
