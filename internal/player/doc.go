// Package player orchestrates remote playback.
//
// # Commands
//
// [Orchestrator] issues play, pause and skip commands against the active device and updates
// [State] optimistically once a command succeeds. A 404 from the player endpoints means the
// device went away and is reported as [shared.ErrNoActiveDevice]; every other remote failure
// stays [shared.ErrTransientAPI]. Nothing is retried automatically.
//
// Skipping outside a playback context (a bare track rather than an album or playlist) is
// unreliable on the remote side, so after the skip the orchestrator restarts the track's album
// at the neighbouring position computed by [ComputeFallbackOffset]. At the album's edges no
// follow-up is sent.
//
// # Reconciliation
//
// The server is the source of truth. [Orchestrator.RefreshNowPlaying] overwrites local state
// with its answer; it runs on [PollJob] every few seconds while the session is authenticated,
// and once more as [ReconcileJob] shortly after each command. When a poll and a reconcile land
// together the one that completes last wins.
//
// # Subscribers
//
// [State.Subscribe] delivers snapshots without ever blocking the writer; a slow reader simply
// sees fewer intermediate states.
package player
