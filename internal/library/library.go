package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/shared"
)

// ErrSuperseded is returned for a page that arrived after a different playlist was opened
// or a different query was searched. The page is not applied.
var ErrSuperseded = errors.New("superseded by a newer request")

// Remote is the subset of the Web API client the library needs.
type Remote interface {
	CurrentUser(ctx context.Context) (*models.User, error)
	SavedTracks(ctx context.Context, limit, offset int) (*models.Page[models.Track], error)
	PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*models.Page[models.Track], error)
	UserPlaylists(ctx context.Context, limit, offset int) (*models.Page[models.Playlist], error)
	Playlist(ctx context.Context, playlistID string) (*models.Playlist, error)
	SearchTracks(ctx context.Context, query string, limit, offset int) (*models.Page[models.Track], error)
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error)
	AddTracks(ctx context.Context, playlistID string, uris []string) (string, error)
	RemoveTracks(ctx context.Context, playlistID string, uris []string) (string, error)
}

// Library loads pages through the remote client and accumulates them per list.
type Library struct {
	remote   Remote
	pageSize int
	logger   *log.Logger

	Tracks    Accumulator[models.Track]
	Playlists Accumulator[models.Playlist]
	// Current holds the tracks of the playlist last opened with [Library.LoadPlaylistTracks].
	Current   Accumulator[models.Track]
	Results   Accumulator[models.Track]

	mu        sync.Mutex
	currentID string
	query     string
}

func New(remote Remote, pageSize int, logger *log.Logger) *Library {
	if pageSize <= 0 {
		pageSize = 20
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Library{remote: remote, pageSize: pageSize, logger: shared.WithLogger(logger, "component", "library")}
}

func (l *Library) PageSize() int {
	return l.pageSize
}

// LoadTracks fetches the saved-tracks page at offset into [Library.Tracks].
func (l *Library) LoadTracks(ctx context.Context, offset int) (*models.Page[models.Track], error) {
	page, err := l.remote.SavedTracks(ctx, l.pageSize, offset)
	if err != nil {
		return nil, err
	}
	l.Tracks.Apply(*page)
	return page, nil
}

// LoadPlaylists fetches the playlists page at offset into [Library.Playlists].
func (l *Library) LoadPlaylists(ctx context.Context, offset int) (*models.Page[models.Playlist], error) {
	page, err := l.remote.UserPlaylists(ctx, l.pageSize, offset)
	if err != nil {
		return nil, err
	}
	l.Playlists.Apply(*page)
	return page, nil
}

// LoadPlaylistTracks fetches one page of a playlist. Opening a different playlist starts over.
func (l *Library) LoadPlaylistTracks(ctx context.Context, playlistID string, offset int) (*models.Page[models.Track], error) {
	l.mu.Lock()
	if playlistID != l.currentID {
		l.Current.Reset()
		l.currentID = playlistID
		offset = 0
	}
	l.mu.Unlock()

	page, err := l.remote.PlaylistTracks(ctx, playlistID, l.pageSize, offset)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if playlistID != l.currentID {
		l.logger.Debug("dropping stale playlist page", "playlist", playlistID, "offset", offset)
		return nil, ErrSuperseded
	}
	l.Current.Apply(*page)
	return page, nil
}

// CurrentID is the playlist [Library.Current] holds.
func (l *Library) CurrentID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentID
}

// Search runs a track search into [Library.Results]. A new query starts over.
func (l *Library) Search(ctx context.Context, query string, offset int) (*models.Page[models.Track], error) {
	query = strings.TrimSpace(query)

	l.mu.Lock()
	if query != l.query {
		l.Results.Reset()
		l.query = query
		offset = 0
	}
	l.mu.Unlock()

	page, err := l.remote.SearchTracks(ctx, query, l.pageSize, offset)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if query != l.query {
		l.logger.Debug("dropping stale search page", "query", query, "offset", offset)
		return nil, ErrSuperseded
	}
	l.Results.Apply(*page)
	return page, nil
}

// Playlist fetches playlist metadata.
func (l *Library) Playlist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	return l.remote.Playlist(ctx, playlistID)
}

// CreatePlaylist looks up the current user and creates a playlist they own.
func (l *Library) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	user, err := l.remote.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	playlist, err := l.remote.CreatePlaylist(ctx, user.ID, name, description, public)
	if err != nil {
		return nil, err
	}

	l.logger.Info("playlist created", "id", playlist.ID, "name", playlist.Name)
	return playlist, nil
}

// AddTracks adds tracks to a playlist.
func (l *Library) AddTracks(ctx context.Context, playlistID string, uris ...string) error {
	uris = normalizeURIs(uris)
	if _, err := l.remote.AddTracks(ctx, playlistID, uris); err != nil {
		return err
	}
	l.logger.Debug("tracks added", "playlist", playlistID, "count", len(uris))
	return nil
}

// RemoveTracks removes tracks from a playlist and drops them from the open playlist's list.
func (l *Library) RemoveTracks(ctx context.Context, playlistID string, uris ...string) error {
	uris = normalizeURIs(uris)
	if _, err := l.remote.RemoveTracks(ctx, playlistID, uris); err != nil {
		return err
	}

	if playlistID == l.CurrentID() {
		l.Current.remove(uris)
	}
	l.logger.Debug("tracks removed", "playlist", playlistID, "count", len(uris))
	return nil
}

// normalizeURIs accepts bare track IDs as well as spotify:track: URIs.
func normalizeURIs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !strings.HasPrefix(s, "spotify:") {
			s = "spotify:track:" + s
		}
		out = append(out, s)
	}
	return out
}
