// package models defines the data model shared by the session, playback and library layers.
//
// JSON tags on remote types follow the Spotify Web API wire format so responses decode directly.
package models

import (
	"fmt"
	"strings"
)

// TokenRecord is the persisted credential pair.
//
// Serialized as {accessToken, refreshToken, expiresIn} under a single storage key.
type TokenRecord struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresInSeconds int64  `json:"expiresIn"`
}

// Validate reports whether the record can be persisted: an access token is never stored without its refresh token.
func (t TokenRecord) Validate() error {
	if t.AccessToken == "" {
		return fmt.Errorf("token record is missing an access token")
	}
	if t.RefreshToken == "" {
		return fmt.Errorf("token record is missing a refresh token")
	}
	return nil
}

// User is the current user's profile (GET /me).
type User struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	Product     string  `json:"product"`
	Images      []Image `json:"images"`
}

// Image is an artwork reference.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Artist is the simplified artist attached to a track.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Album is the simplified album attached to a track.
type Album struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	URI         string  `json:"uri"`
	TotalTracks int     `json:"total_tracks"`
	Images      []Image `json:"images"`
}

// Track is a value type sourced entirely from the remote service.
type Track struct {
	ID          string   `json:"id"`
	URI         string   `json:"uri"`
	Name        string   `json:"name"`
	Artists     []Artist `json:"artists"`
	Album       Album    `json:"album"`
	TrackNumber int      `json:"track_number"`
	DurationMS  int      `json:"duration_ms"`
	Explicit    bool     `json:"explicit"`
}

// ArtistNames joins the track's artist names with ", ".
func (t Track) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// ArtworkURL returns the first album image, or "" when the album has none.
func (t Track) ArtworkURL() string {
	if len(t.Album.Images) == 0 {
		return ""
	}
	return t.Album.Images[0].URL
}

// Owner is a playlist owner.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Playlist is a (simplified) playlist. TrackCount mirrors tracks.total.
type Playlist struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Public      bool    `json:"public"`
	Owner       Owner   `json:"owner"`
	Images      []Image `json:"images"`
	URI         string  `json:"uri"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// TrackCount returns the total number of tracks in the playlist.
func (p Playlist) TrackCount() int {
	return p.Tracks.Total
}

// Page is one page of a paginated list endpoint.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// HasMore reports whether items remain past this page: offset + limit < total.
func (p Page[T]) HasMore() bool {
	return p.Offset+p.Limit < p.Total
}
