package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/soundwave/internal/formatter"
	"github.com/desertthunder/soundwave/internal/library"
	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/player"
	"github.com/desertthunder/soundwave/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LibraryView ViewState = iota
	PlaylistsView
	PlaylistTracksView
	DevicesView
)

func (v ViewState) String() string {
	switch v {
	case LibraryView:
		return "Liked Songs"
	case PlaylistsView:
		return "Playlists"
	case PlaylistTracksView:
		return "Playlist"
	case DevicesView:
		return "Devices"
	default:
		return ""
	}
}

// Player is the playback surface the TUI drives. [*player.Orchestrator] satisfies it.
type Player interface {
	State() *player.State
	PlayTrack(ctx context.Context, track models.Track) error
	TogglePlayPause(ctx context.Context) error
	SkipNext(ctx context.Context) error
	SkipPrevious(ctx context.Context) error
	RefreshNowPlaying(ctx context.Context) (player.Snapshot, error)
}

// DeviceSelector lists and activates devices. [*devices.Coordinator] satisfies it.
type DeviceSelector interface {
	ListDevices(ctx context.Context) ([]models.Device, error)
	SelectDevice(ctx context.Context, device models.Device) (*models.Device, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	prev    ViewState
	player  Player
	devices DeviceSelector
	library *library.Library

	width          int
	height         int
	trackList      list.Model
	playlistList   list.Model
	playlistTracks list.Model
	deviceList     list.Model
	playlist       *models.Playlist

	playback    player.Snapshot
	updates     <-chan player.Snapshot
	unsubscribe func()

	status string
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model with the provided dependencies. The model subscribes to the
// player's state until [Model.Close].
func NewModel(ctx context.Context, p Player, d DeviceSelector, lib *library.Library) *Model {
	m := &Model{
		ctx:            ctx,
		view:           LibraryView,
		player:         p,
		devices:        d,
		library:        lib,
		width:          80,
		height:         24,
		trackList:      newList(LibraryView.String()),
		playlistList:   newList(PlaylistsView.String()),
		playlistTracks: newList(PlaylistTracksView.String()),
		deviceList:     newList(DevicesView.String()),
		playback:       p.State().Snapshot(),
		help:           help.New(),
		keys:           newKeyMap(),
	}
	m.updates, m.unsubscribe = p.State().Subscribe(8)
	m.resize()
	return m
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.Styles.Title = styles.title
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	return l
}

// Close stops the playback subscription.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// ViewState returns the active view.
func (m *Model) ViewState() ViewState {
	return m.view
}

// Init loads the first pages of the library, the device list and the current playback.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadTracks(0), m.loadPlaylists(0), m.knownDevices(), m.refresh(), m.waitForPlayback())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	case tea.KeyMsg:
		return m.handleKeys(msg)
	case Msg:
		return m.handleMsg(msg)
	}
	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTracksLoaded:
		if res := msg.data.(loaded); res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.trackList.SetItems(trackItems(m.library.Tracks.Items()))
		m.trackList.Title = m.pagedTitle(LibraryView.String(), m.library.Tracks.Len(), m.library.Tracks.Total())
	case MsgPlaylistsLoaded:
		if res := msg.data.(loaded); res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.playlistList.SetItems(playlistItems(m.library.Playlists.Items()))
		m.playlistList.Title = m.pagedTitle(PlaylistsView.String(), m.library.Playlists.Len(), m.library.Playlists.Total())
	case MsgPlaylistTracksLoaded:
		res := msg.data.(playlistTracks)
		if errors.Is(res.err, library.ErrSuperseded) {
			return m, nil
		}
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.playlist = &res.playlist
		m.playlistTracks.SetItems(trackItems(m.library.Current.Items()))
		m.playlistTracks.Title = m.pagedTitle(res.playlist.Name, m.library.Current.Len(), m.library.Current.Total())
		m.view = PlaylistTracksView
		m.err = nil
	case MsgDevicesLoaded:
		res := msg.data.(devicesResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.deviceList.SetItems(deviceItems(res.devices))
		m.view = DevicesView
		if len(res.devices) == 0 {
			m.status = "No devices found. Open Spotify on a phone or computer, then press r."
		}
	case MsgDevicesKnown:
		// The picker reports enumeration errors when it is opened.
		if res := msg.data.(devicesResult); res.err == nil {
			m.deviceList.SetItems(deviceItems(res.devices))
		}
	case MsgDeviceSelected:
		res := msg.data.(deviceResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.err = nil
		m.status = "Transfer requested"
		if res.device != nil {
			m.status = fmt.Sprintf("Playing on %s", res.device.Name)
		}
		m.view = m.prev
	case MsgActionDone:
		res := msg.data.(actionResult)
		if res.err == nil {
			m.err = nil
			return m, nil
		}
		m.err = res.err
		if errors.Is(res.err, shared.ErrNoActiveDevice) && m.view != DevicesView {
			m.prev = m.view
			return m, m.loadDevices()
		}
	case MsgPlayback:
		m.playback = msg.data.(player.Snapshot)
		return m, m.waitForPlayback()
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	current := m.activeList()
	if current.FilterState() == list.Filtering {
		return m.updateList(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		return m, m.act("toggle", m.player.TogglePlayPause)
	case key.Matches(msg, m.keys.next):
		return m, m.act("next", m.player.SkipNext)
	case key.Matches(msg, m.keys.prev):
		return m, m.act("previous", m.player.SkipPrevious)
	case key.Matches(msg, m.keys.collapse):
		m.player.State().ToggleCollapsed()
		return m, nil
	case key.Matches(msg, m.keys.devices):
		if m.view != DevicesView {
			m.prev = m.view
		}
		return m, m.loadDevices()
	case key.Matches(msg, m.keys.tab):
		switch m.view {
		case LibraryView:
			m.view = PlaylistsView
		case PlaylistsView, PlaylistTracksView:
			m.view = LibraryView
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.reload()
	case key.Matches(msg, m.keys.more):
		return m, m.loadMore()
	case key.Matches(msg, m.keys.back):
		if current.FilterState() == list.FilterApplied {
			return m.updateList(msg)
		}
		switch m.view {
		case PlaylistTracksView:
			m.view = PlaylistsView
		case DevicesView:
			m.view = m.prev
		}
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.enter):
		return m, m.choose()
	}
	return m.updateList(msg)
}

// choose acts on the selected item of the active list.
func (m *Model) choose() tea.Cmd {
	selected := m.activeList().SelectedItem()
	if selected == nil {
		return nil
	}

	switch item := selected.(type) {
	case trackItem:
		track := item.track
		return m.act("play", func(ctx context.Context) error {
			return m.player.PlayTrack(ctx, track)
		})
	case playlistItem:
		return m.loadPlaylistTracks(item.playlist, 0)
	case deviceItem:
		return m.selectDevice(item.device)
	}
	return nil
}

func (m *Model) activeList() *list.Model {
	switch m.view {
	case PlaylistsView:
		return &m.playlistList
	case PlaylistTracksView:
		return &m.playlistTracks
	case DevicesView:
		return &m.deviceList
	default:
		return &m.trackList
	}
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	current := m.activeList()
	var cmd tea.Cmd
	*current, cmd = current.Update(msg)
	return m, cmd
}

// resize fits every list above the now-playing bar and help line.
func (m *Model) resize() {
	h := max(m.height-9, 3)
	w := max(m.width-4, 20)
	for _, l := range []*list.Model{&m.trackList, &m.playlistList, &m.playlistTracks, &m.deviceList} {
		l.SetSize(w, h)
	}
}

func (m *Model) pagedTitle(name string, loaded, total int) string {
	if total > loaded {
		return fmt.Sprintf("%s (%d of %d, m for more)", name, loaded, total)
	}
	return name
}

func (m *Model) act(action string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg(action, fn(m.ctx))
	}
}

func (m *Model) refresh() tea.Cmd {
	return m.act("refresh", func(ctx context.Context) error {
		_, err := m.player.RefreshNowPlaying(ctx)
		return err
	})
}

func (m *Model) reload() tea.Cmd {
	switch m.view {
	case PlaylistsView:
		return tea.Batch(m.refresh(), m.loadPlaylists(0))
	case PlaylistTracksView:
		if m.playlist != nil {
			return tea.Batch(m.refresh(), m.loadPlaylistTracks(*m.playlist, 0))
		}
	case DevicesView:
		return m.loadDevices()
	}
	return tea.Batch(m.refresh(), m.loadTracks(0))
}

func (m *Model) loadMore() tea.Cmd {
	switch m.view {
	case LibraryView:
		if m.library.Tracks.HasMore() {
			return m.loadTracks(m.library.Tracks.NextOffset())
		}
	case PlaylistsView:
		if m.library.Playlists.HasMore() {
			return m.loadPlaylists(m.library.Playlists.NextOffset())
		}
	case PlaylistTracksView:
		if m.playlist != nil && m.library.Current.HasMore() {
			return m.loadPlaylistTracks(*m.playlist, m.library.Current.NextOffset())
		}
	}
	return nil
}

func (m *Model) loadTracks(offset int) tea.Cmd {
	return func() tea.Msg {
		_, err := m.library.LoadTracks(m.ctx, offset)
		return tracksLoadedMsg(err)
	}
}

func (m *Model) loadPlaylists(offset int) tea.Cmd {
	return func() tea.Msg {
		_, err := m.library.LoadPlaylists(m.ctx, offset)
		return playlistsLoadedMsg(err)
	}
}

func (m *Model) loadPlaylistTracks(playlist models.Playlist, offset int) tea.Cmd {
	return func() tea.Msg {
		_, err := m.library.LoadPlaylistTracks(m.ctx, playlist.ID, offset)
		return playlistTracksLoadedMsg(playlist, err)
	}
}

func (m *Model) knownDevices() tea.Cmd {
	return func() tea.Msg {
		devices, err := m.devices.ListDevices(m.ctx)
		return devicesKnownMsg(devices, err)
	}
}

func (m *Model) loadDevices() tea.Cmd {
	return func() tea.Msg {
		devices, err := m.devices.ListDevices(m.ctx)
		return devicesLoadedMsg(devices, err)
	}
}

func (m *Model) selectDevice(device models.Device) tea.Cmd {
	return func() tea.Msg {
		active, err := m.devices.SelectDevice(m.ctx, device)
		return deviceSelectedMsg(active, err)
	}
}

// waitForPlayback blocks on the next state snapshot. A closed subscription ends the loop.
func (m *Model) waitForPlayback() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		if updates == nil {
			return nil
		}
		snap, ok := <-updates
		if !ok {
			return nil
		}
		return playbackMsg(snap)
	}
}

// View renders the active list, the status line and the now-playing bar.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.activeList().View())
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(styles.err.Render(shared.UserMessage(m.err)))
	case m.status != "":
		b.WriteString(styles.ok.Render(m.status))
	}
	b.WriteString("\n")

	b.WriteString(styles.nowBar.Width(max(m.width-2, 20)).Render(m.renderNowPlaying()))
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

func (m *Model) helpKeys() []key.Binding {
	switch m.view {
	case DevicesView:
		return []key.Binding{m.keys.enter, m.keys.back, m.keys.refresh, m.keys.quit}
	case PlaylistTracksView:
		return []key.Binding{m.keys.enter, m.keys.back, m.keys.toggle, m.keys.next, m.keys.prev, m.keys.more, m.keys.quit}
	default:
		return []key.Binding{m.keys.enter, m.keys.tab, m.keys.toggle, m.keys.next, m.keys.prev, m.keys.devices, m.keys.collapse, m.keys.quit}
	}
}

func (m *Model) renderNowPlaying() string {
	snap := m.playback
	if !snap.HasTrack() {
		return styles.help.Render("Nothing playing")
	}

	track := snap.CurrentTrack
	icon := "⏸"
	if snap.IsPlaying {
		icon = "▶"
	}

	if snap.IsCollapsed {
		return fmt.Sprintf("%s %s %s", styles.playing.Render(icon), styles.track.Render(track.Name), styles.artist.Render(track.ArtistNames()))
	}

	state := "Paused"
	if snap.IsPlaying {
		state = "Playing"
	}
	lines := []string{
		fmt.Sprintf("%s %s", styles.playing.Render(icon), styles.track.Render(track.Name)),
		styles.artist.Render(track.ArtistNames()),
	}
	if track.Album.Name != "" {
		lines = append(lines, styles.artist.Render(track.Album.Name))
	}
	status := state
	if track.DurationMS > 0 {
		status = fmt.Sprintf("%s • %s", state, formatter.FormatDuration(track.DurationMS))
	}
	if n := len(snap.Queue); n > 0 {
		status = fmt.Sprintf("%s • %d queued", status, n)
	}
	lines = append(lines, styles.help.Render(status))
	return strings.Join(lines, "\n")
}
