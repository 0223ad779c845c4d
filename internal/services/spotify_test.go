package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/shared"
	tu "github.com/desertthunder/soundwave/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type recorded struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

// newTestService starts a server that records each request and answers with handler.
func newTestService(t *testing.T, handler http.HandlerFunc) (*SpotifyService, *[]recorded) {
	t.Helper()

	var calls []recorded
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		})
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	srv, err := NewSpotifyService(SpotifyOpts{
		Tokens:     oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "AT1", TokenType: "Bearer"}),
		HTTPClient: server.Client(),
		BaseURL:    server.URL,
	})
	require.NoError(t, err)
	return srv, &calls
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewSpotifyService(t *testing.T) {
	t.Run("requires a token source", func(t *testing.T) {
		_, err := NewSpotifyService(SpotifyOpts{})
		assert.ErrorIs(t, err, shared.ErrMissingArgument)
	})

	t.Run("defaults", func(t *testing.T) {
		srv, err := NewSpotifyService(SpotifyOpts{Tokens: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "x"})})
		require.NoError(t, err)
		assert.Equal(t, SpotifyBaseURL, srv.baseURL)
		assert.Nil(t, srv.limiter)
	})

	t.Run("NewLimiter", func(t *testing.T) {
		assert.Nil(t, NewLimiter(0))
		assert.Equal(t, 1, NewLimiter(0.5).Burst())
		assert.Equal(t, 10, NewLimiter(10).Burst())
	})
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("CurrentUser sends the bearer token", func(t *testing.T) {
		srv, calls := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"id": "user-1", "display_name": "Owen"})
		})

		user, err := srv.CurrentUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, "user-1", user.ID)
		assert.Equal(t, "Owen", user.DisplayName)

		require.Len(t, *calls, 1)
		assert.Equal(t, "Bearer AT1", (*calls)[0].Auth)
		assert.Equal(t, "/me", (*calls)[0].Path)
	})

	t.Run("Devices", func(t *testing.T) {
		srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"devices": []map[string]any{
				{"id": "d1", "name": "Desk", "type": "Computer", "is_active": false},
				{"id": "d2", "name": "Phone", "type": "Smartphone", "is_active": true},
			}})
		})

		devices, err := srv.Devices(ctx)
		require.NoError(t, err)
		require.Len(t, devices, 2)
		assert.True(t, devices[1].IsActive)
		assert.Equal(t, models.DeviceSmartphone, devices[1].Type)
	})

	t.Run("playback endpoints", func(t *testing.T) {
		t.Run("204 means nothing is playing", func(t *testing.T) {
			srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})

			pb, err := srv.CurrentlyPlaying(ctx)
			require.NoError(t, err)
			assert.Nil(t, pb)

			pb, err = srv.PlaybackState(ctx)
			require.NoError(t, err)
			assert.Nil(t, pb)
		})

		t.Run("decodes context and item", func(t *testing.T) {
			srv, calls := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{
					"is_playing": true,
					"context":    map[string]any{"type": "album", "uri": "spotify:album:a1"},
					"item": map[string]any{
						"id": "t1", "uri": "spotify:track:t1", "name": "Song", "track_number": 3,
						"album": map[string]any{"uri": "spotify:album:a1", "total_tracks": 10},
					},
				})
			})

			pb, err := srv.PlaybackState(ctx)
			require.NoError(t, err)
			require.NotNil(t, pb)
			assert.True(t, pb.IsPlaying)
			assert.True(t, pb.HasContext())
			assert.Equal(t, 3, pb.Item.TrackNumber)
			assert.Equal(t, 10, pb.Item.Album.TotalTracks)
			assert.Equal(t, "/me/player", (*calls)[0].Path)
		})
	})

	t.Run("transport commands", func(t *testing.T) {
		srv, calls := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		require.NoError(t, srv.StartPlayback(ctx, "d1", models.PlayRequest{URIs: []string{"spotify:track:t1"}}))
		require.NoError(t, srv.StartPlayback(ctx, "", models.PlayRequest{}))
		require.NoError(t, srv.Pause(ctx, ""))
		require.NoError(t, srv.Next(ctx, "d1"))
		require.NoError(t, srv.Previous(ctx, "d1"))
		require.NoError(t, srv.TransferPlayback(ctx, "d2", true))

		got := *calls
		require.Len(t, got, 6)

		assert.Equal(t, http.MethodPut, got[0].Method)
		assert.Equal(t, "/me/player/play", got[0].Path)
		assert.Equal(t, "device_id=d1", got[0].Query)
		assert.JSONEq(t, `{"uris":["spotify:track:t1"]}`, got[0].Body)

		assert.Empty(t, got[1].Query)
		assert.Empty(t, got[1].Body)

		assert.Equal(t, "/me/player/pause", got[2].Path)

		assert.Equal(t, http.MethodPost, got[3].Method)
		assert.Equal(t, "/me/player/next", got[3].Path)
		assert.Equal(t, "/me/player/previous", got[4].Path)

		assert.Equal(t, http.MethodPut, got[5].Method)
		assert.Equal(t, "/me/player", got[5].Path)
		assert.JSONEq(t, `{"device_ids":["d2"],"play":true}`, got[5].Body)
	})

	t.Run("paging", func(t *testing.T) {
		t.Run("SavedTracks unwraps items and skips null tracks", func(t *testing.T) {
			srv, calls := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{
					"items": []map[string]any{
						{"track": map[string]any{"id": "t1", "name": "One"}},
						{"track": nil},
						{"track": map[string]any{"id": "t2", "name": "Two"}},
					},
					"total": 42, "limit": 20, "offset": 20,
				})
			})

			page, err := srv.SavedTracks(ctx, 20, 20)
			require.NoError(t, err)
			require.Len(t, page.Items, 2)
			assert.Equal(t, "t2", page.Items[1].ID)
			assert.Equal(t, 42, page.Total)
			assert.True(t, page.HasMore())
			assert.Equal(t, "limit=20&offset=20", (*calls)[0].Query)
		})

		t.Run("limits are clamped", func(t *testing.T) {
			srv, calls := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
			})

			_, err := srv.UserPlaylists(ctx, 500, -3)
			require.NoError(t, err)
			_, err = srv.PlaylistTracks(ctx, "p1", 0, 40)
			require.NoError(t, err)

			assert.Equal(t, "limit=50&offset=0", (*calls)[0].Query)
			assert.Equal(t, "/playlists/p1/tracks", (*calls)[1].Path)
			assert.Equal(t, "limit=20&offset=40", (*calls)[1].Query)
		})

		t.Run("SearchTracks reads the tracks page", func(t *testing.T) {
			srv, calls := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"tracks": map[string]any{
					"items": []map[string]any{{"id": "t9", "name": "Found"}},
					"total": 1, "limit": 20, "offset": 0,
				}})
			})

			page, err := srv.SearchTracks(ctx, "daft punk", 20, 0)
			require.NoError(t, err)
			require.Len(t, page.Items, 1)
			assert.False(t, page.HasMore())
			assert.Equal(t, "q=daft+punk&type=track&limit=20&offset=0", (*calls)[0].Query)
		})

		t.Run("SearchTracks rejects an empty query", func(t *testing.T) {
			srv, calls := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})
			_, err := srv.SearchTracks(ctx, "  ", 20, 0)
			assert.ErrorIs(t, err, shared.ErrMissingArgument)
			assert.Empty(t, *calls)
		})
	})

	t.Run("playlist mutations", func(t *testing.T) {
		srv, calls := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/users/u1/playlists" {
				writeJSON(w, http.StatusCreated, map[string]any{"id": "p9", "name": "Mix"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"snapshot_id": "snap"})
		})

		playlist, err := srv.CreatePlaylist(ctx, "u1", "Mix", "", false)
		require.NoError(t, err)
		assert.Equal(t, "p9", playlist.ID)

		snap, err := srv.AddTracks(ctx, "p9", []string{"spotify:track:a", "spotify:track:b"})
		require.NoError(t, err)
		assert.Equal(t, "snap", snap)

		_, err = srv.RemoveTracks(ctx, "p9", []string{"spotify:track:a"})
		require.NoError(t, err)

		got := *calls
		require.Len(t, got, 3)
		assert.JSONEq(t, `{"name":"Mix","description":"","public":false}`, got[0].Body)
		assert.Equal(t, http.MethodPost, got[1].Method)
		assert.JSONEq(t, `{"uris":["spotify:track:a","spotify:track:b"]}`, got[1].Body)
		assert.Equal(t, http.MethodDelete, got[2].Method)
		assert.JSONEq(t, `{"tracks":[{"uri":"spotify:track:a"}]}`, got[2].Body)

		_, err = srv.AddTracks(ctx, "p9", nil)
		assert.ErrorIs(t, err, shared.ErrMissingArgument)
		_, err = srv.CreatePlaylist(ctx, "", "Mix", "", true)
		assert.ErrorIs(t, err, shared.ErrMissingArgument)
	})

	t.Run("errors", func(t *testing.T) {
		t.Run("non-2xx becomes APIError", func(t *testing.T) {
			srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{
					"status": 404, "message": "Player command failed: No active device found",
				}})
			})

			err := srv.StartPlayback(ctx, "gone", models.PlayRequest{URIs: []string{"spotify:track:t1"}})
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusNotFound, apiErr.Status)
			assert.Contains(t, apiErr.Message, "No active device")
			assert.ErrorIs(t, err, shared.ErrTransientAPI)
			assert.True(t, IsNotFound(err))
		})

		t.Run("body without error object falls back to status text", func(t *testing.T) {
			srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			})

			_, err := srv.Devices(ctx)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "Bad Gateway", apiErr.Message)
			assert.False(t, IsNotFound(err))
		})

		t.Run("network failure is transient", func(t *testing.T) {
			srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})
			srv.baseURL = "http://127.0.0.1:0"

			_, err := srv.Devices(ctx)
			assert.ErrorIs(t, err, shared.ErrTransientAPI)
			assert.False(t, IsNotFound(err))
		})

		t.Run("token source failure stops the request", func(t *testing.T) {
			srv, calls := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})
			srv.tokens = failingSource{err: shared.ErrNotAuthenticated}

			_, err := srv.CurrentUser(ctx)
			assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
			assert.Empty(t, *calls)
		})

		t.Run("unreadable body is transient", func(t *testing.T) {
			srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})
			srv.httpClient = &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": {"application/json"}},
				Body:       &tu.FCloser{},
			}, nil)}

			_, err := srv.CurrentUser(ctx)
			assert.ErrorIs(t, err, shared.ErrTransientAPI)
			assert.Contains(t, err.Error(), "failed to read response")
		})

		t.Run("malformed JSON", func(t *testing.T) {
			srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte("{not json"))
			})

			_, err := srv.CurrentUser(ctx)
			assert.ErrorIs(t, err, shared.ErrTransientAPI)
		})

		t.Run("cancelled context", func(t *testing.T) {
			srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			_, err := srv.Devices(cctx)
			assert.True(t, errors.Is(err, context.Canceled))
		})
	})
}

type failingSource struct{ err error }

func (f failingSource) Token() (*oauth2.Token, error) { return nil, f.err }
