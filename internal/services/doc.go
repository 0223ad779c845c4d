// Package services implements [SpotifyService], the authorized HTTP client for the Spotify Web API.
//
// # Credentials
//
// Each request reads its bearer credential from an [oauth2.TokenSource]. The session state
// implements that interface, so a logout takes effect on the very next request without
// rebuilding the client. Token refresh is not done here; the auth controller owns it.
//
// # Pacing
//
// An optional [rate.Limiter] is consulted before every request. Waiting honours the request
// context, so cancelling a poll never leaves a goroutine parked on the limiter.
//
// # Error Handling
//
// Non-2xx responses become [*APIError], which unwraps to [shared.ErrTransientAPI].
// Network and decode failures wrap the same sentinel. [IsNotFound] lets callers remap the
// 404 that playback start returns for an unreachable device.
//
// # Empty Responses
//
// The player endpoints answer 204 with no body when nothing is playing.
// [SpotifyService.CurrentlyPlaying] and [SpotifyService.PlaybackState] return nil, nil in that case.
package services
