// Spotify Web API client
//
// Endpoint reference: https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	SpotifyBaseURL = "https://api.spotify.com/v1"

	maxPageSize     = 50
	defaultPageSize = 20
)

// SpotifyOpts configures a [SpotifyService].
type SpotifyOpts struct {
	// Tokens supplies the bearer credential for each request. Usually the session state.
	Tokens     oauth2.TokenSource
	HTTPClient *http.Client
	BaseURL    string
	// Limiter paces outgoing requests. Nil disables pacing.
	Limiter *rate.Limiter
	Logger  *log.Logger
}

// SpotifyService makes authorized requests against the Web API and decodes JSON responses.
type SpotifyService struct {
	tokens     oauth2.TokenSource
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewSpotifyService creates a client. Tokens is required.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.Tokens == nil {
		return nil, fmt.Errorf("%w: token source", shared.ErrMissingArgument)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.BaseURL == "" {
		opts.BaseURL = SpotifyBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &SpotifyService{
		tokens:     opts.Tokens,
		httpClient: opts.HTTPClient,
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		limiter:    opts.Limiter,
		logger:     shared.WithLogger(opts.Logger, "service", "spotify"),
	}, nil
}

// NewLimiter builds a request limiter allowing rps requests per second with a matching burst.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// doRequest performs an authenticated request. A 204 or empty body leaves result untouched
// and reports decoded=false.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) (decoded bool, err error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return false, err
		}
	}

	token, err := s.tokens.Token()
	if err != nil {
		return false, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	token.SetAuthHeader(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	s.logger.Debug("request", "method", method, "endpoint", endpoint)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		return false, fmt.Errorf("%w: %s %s: %w", shared.ErrTransientAPI, method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp, method, endpoint)
		s.logger.Debug("request failed", "method", method, "endpoint", endpoint, "status", apiErr.Status)
		return false, apiErr
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return false, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("%w: failed to read response: %w", shared.ErrTransientAPI, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return false, fmt.Errorf("%w: failed to decode response: %w", shared.ErrTransientAPI, err)
	}
	return true, nil
}

// IsNotFound reports whether err is a 404 from the remote service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.NotFound()
}

func withDevice(endpoint, deviceID string) string {
	if deviceID == "" {
		return endpoint
	}
	return endpoint + "?device_id=" + url.QueryEscape(deviceID)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

func pageQuery(limit, offset int) string {
	if offset < 0 {
		offset = 0
	}
	return fmt.Sprintf("limit=%d&offset=%d", clampLimit(limit), offset)
}

// CurrentUser retrieves the authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if _, err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Devices enumerates the user's available playback devices.
func (s *SpotifyService) Devices(ctx context.Context) ([]models.Device, error) {
	var response struct {
		Devices []models.Device `json:"devices"`
	}
	if _, err := s.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, &response); err != nil {
		return nil, err
	}
	return response.Devices, nil
}

// CurrentlyPlaying returns the track currently playing, or nil when nothing is (204).
func (s *SpotifyService) CurrentlyPlaying(ctx context.Context) (*models.Playback, error) {
	return s.playback(ctx, "/me/player/currently-playing")
}

// PlaybackState returns the full player state including context and device, or nil when there is none.
func (s *SpotifyService) PlaybackState(ctx context.Context) (*models.Playback, error) {
	return s.playback(ctx, "/me/player")
}

func (s *SpotifyService) playback(ctx context.Context, endpoint string) (*models.Playback, error) {
	var pb models.Playback
	ok, err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &pb)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &pb, nil
}

// StartPlayback starts or resumes playback. An empty request resumes whatever was loaded.
func (s *SpotifyService) StartPlayback(ctx context.Context, deviceID string, req models.PlayRequest) error {
	var body any
	if !req.IsEmpty() {
		body = req
	}
	_, err := s.doRequest(ctx, http.MethodPut, withDevice("/me/player/play", deviceID), body, nil)
	return err
}

// Pause pauses playback on the active device.
func (s *SpotifyService) Pause(ctx context.Context, deviceID string) error {
	_, err := s.doRequest(ctx, http.MethodPut, withDevice("/me/player/pause", deviceID), nil, nil)
	return err
}

// Next skips to the next item.
func (s *SpotifyService) Next(ctx context.Context, deviceID string) error {
	_, err := s.doRequest(ctx, http.MethodPost, withDevice("/me/player/next", deviceID), nil, nil)
	return err
}

// Previous skips to the previous item.
func (s *SpotifyService) Previous(ctx context.Context, deviceID string) error {
	_, err := s.doRequest(ctx, http.MethodPost, withDevice("/me/player/previous", deviceID), nil, nil)
	return err
}

// TransferPlayback moves playback to deviceID, optionally resuming it there.
func (s *SpotifyService) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	body := struct {
		DeviceIDs []string `json:"device_ids"`
		Play      bool     `json:"play"`
	}{DeviceIDs: []string{deviceID}, Play: play}

	_, err := s.doRequest(ctx, http.MethodPut, "/me/player", body, nil)
	return err
}

// trackPage is the Web API's paging object for saved and playlist tracks, whose items wrap the track.
type trackPage struct {
	Items []struct {
		AddedAt string        `json:"added_at"`
		Track   *models.Track `json:"track"`
	} `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func (p trackPage) page() *models.Page[models.Track] {
	out := &models.Page[models.Track]{Total: p.Total, Limit: p.Limit, Offset: p.Offset}
	out.Items = make([]models.Track, 0, len(p.Items))
	for _, item := range p.Items {
		// removed or local-only entries come back with a null track
		if item.Track == nil {
			continue
		}
		out.Items = append(out.Items, *item.Track)
	}
	return out
}

// SavedTracks retrieves one page of the user's library.
func (s *SpotifyService) SavedTracks(ctx context.Context, limit, offset int) (*models.Page[models.Track], error) {
	var response trackPage
	if _, err := s.doRequest(ctx, http.MethodGet, "/me/tracks?"+pageQuery(limit, offset), nil, &response); err != nil {
		return nil, err
	}
	return response.page(), nil
}

// PlaylistTracks retrieves one page of a playlist's tracks.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*models.Page[models.Track], error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks?%s", url.PathEscape(playlistID), pageQuery(limit, offset))

	var response trackPage
	if _, err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}
	return response.page(), nil
}

// UserPlaylists retrieves one page of the current user's playlists.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*models.Page[models.Playlist], error) {
	var response models.Page[models.Playlist]
	if _, err := s.doRequest(ctx, http.MethodGet, "/me/playlists?"+pageQuery(limit, offset), nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Playlist retrieves a playlist by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	var playlist models.Playlist
	if _, err := s.doRequest(ctx, http.MethodGet, "/playlists/"+url.PathEscape(playlistID), nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// SearchTracks runs a track search.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit, offset int) (*models.Page[models.Track], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&%s", url.QueryEscape(query), pageQuery(limit, offset))

	var response struct {
		Tracks models.Page[models.Track] `json:"tracks"`
	}
	if _, err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}
	return &response.Tracks, nil
}

// CreatePlaylist creates a playlist owned by userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	body := struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Public      bool   `json:"public"`
	}{Name: name, Description: description, Public: public}

	var playlist models.Playlist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if _, err := s.doRequest(ctx, http.MethodPost, endpoint, body, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// snapshot is returned by playlist mutations.
type snapshot struct {
	SnapshotID string `json:"snapshot_id"`
}

// AddTracks appends track URIs to a playlist and returns the new snapshot id.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) (string, error) {
	if playlistID == "" {
		return "", fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	if len(uris) == 0 {
		return "", fmt.Errorf("%w: track uris", shared.ErrMissingArgument)
	}

	body := struct {
		URIs []string `json:"uris"`
	}{URIs: uris}

	var response snapshot
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	if _, err := s.doRequest(ctx, http.MethodPost, endpoint, body, &response); err != nil {
		return "", err
	}
	return response.SnapshotID, nil
}

// RemoveTracks removes every occurrence of the given track URIs from a playlist.
func (s *SpotifyService) RemoveTracks(ctx context.Context, playlistID string, uris []string) (string, error) {
	if playlistID == "" {
		return "", fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	if len(uris) == 0 {
		return "", fmt.Errorf("%w: track uris", shared.ErrMissingArgument)
	}

	type trackRef struct {
		URI string `json:"uri"`
	}
	body := struct {
		Tracks []trackRef `json:"tracks"`
	}{}
	for _, uri := range uris {
		body.Tracks = append(body.Tracks, trackRef{URI: uri})
	}

	var response snapshot
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	if _, err := s.doRequest(ctx, http.MethodDelete, endpoint, body, &response); err != nil {
		return "", err
	}
	return response.SnapshotID, nil
}
