package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/services"
	"github.com/desertthunder/soundwave/internal/session"
	"github.com/desertthunder/soundwave/internal/shared"
	"github.com/desertthunder/soundwave/internal/tasks"
)

const (
	// PollJob is the periodic now-playing poll.
	PollJob = "now-playing"
	// ReconcileJob is the delayed read that follows each control action.
	ReconcileJob = "reconcile"

	DefaultPollInterval   = 5 * time.Second
	DefaultReconcileDelay = 300 * time.Millisecond
)

// Direction selects a skip command.
type Direction int

const (
	Next Direction = iota
	Previous
)

func (d Direction) String() string {
	if d == Previous {
		return "previous"
	}
	return "next"
}

// Remote is the subset of the Web API client the orchestrator drives.
type Remote interface {
	CurrentlyPlaying(ctx context.Context) (*models.Playback, error)
	PlaybackState(ctx context.Context) (*models.Playback, error)
	StartPlayback(ctx context.Context, deviceID string, req models.PlayRequest) error
	Pause(ctx context.Context, deviceID string) error
	Next(ctx context.Context, deviceID string) error
	Previous(ctx context.Context, deviceID string) error
}

// DeviceResolver answers which device commands should target.
type DeviceResolver interface {
	// ActiveDevice returns the last known active device without a network call.
	ActiveDevice() *models.Device
	// Active re-enumerates devices; none active is [shared.ErrNoActiveDevice].
	Active(ctx context.Context) (*models.Device, error)
}

// Scheduler runs the poll and reconcile jobs. [*tasks.Scheduler] satisfies it.
type Scheduler interface {
	Every(name string, interval time.Duration, fn tasks.Func, opts ...tasks.JobOption) *tasks.Job
	After(name string, delay time.Duration, fn tasks.Func) *tasks.Job
	Cancel(name string) bool
}

// Options configures an [Orchestrator].
type Options struct {
	Remote  Remote
	Devices DeviceResolver
	State   *State
	// Scheduler is optional; without one there is no polling and no post-action reconcile.
	Scheduler      Scheduler
	PollInterval   time.Duration
	ReconcileDelay time.Duration
	Logger         *log.Logger
}

// Orchestrator is the only writer of the track and playing flag in [State].
//
// Every operation issues its remote calls in order and returns the first failure. Nothing is
// retried; the user re-issues the command.
type Orchestrator struct {
	remote    Remote
	devices   DeviceResolver
	state     *State
	scheduler Scheduler
	poll      time.Duration
	delay     time.Duration
	logger    *log.Logger
}

func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Remote == nil {
		return nil, fmt.Errorf("%w: remote", shared.ErrMissingArgument)
	}
	if opts.Devices == nil {
		return nil, fmt.Errorf("%w: device resolver", shared.ErrMissingArgument)
	}
	if opts.State == nil {
		opts.State = NewState()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ReconcileDelay <= 0 {
		opts.ReconcileDelay = DefaultReconcileDelay
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Orchestrator{
		remote:    opts.Remote,
		devices:   opts.Devices,
		state:     opts.State,
		scheduler: opts.Scheduler,
		poll:      opts.PollInterval,
		delay:     opts.ReconcileDelay,
		logger:    shared.WithLogger(opts.Logger, "component", "player"),
	}, nil
}

func (o *Orchestrator) State() *State {
	return o.state
}

// PlayTrack starts track on the known active device and assumes it is now playing.
func (o *Orchestrator) PlayTrack(ctx context.Context, track models.Track) error {
	if track.URI == "" {
		return fmt.Errorf("%w: track uri", shared.ErrMissingArgument)
	}

	device := o.devices.ActiveDevice()
	if device == nil {
		return shared.ErrNoActiveDevice
	}

	req := models.PlayRequest{URIs: []string{track.URI}}
	if err := o.start(ctx, device, req); err != nil {
		return err
	}

	o.state.Apply(&track, true)
	o.logger.Debug("playing track", "track", track.Name, "device", device.Name)
	o.reconcileSoon()
	return nil
}

// TogglePlayPause pauses when playing. Otherwise it resumes the server's current context, or
// replays the current track when there is no context, on the active device. The local flag
// flips as soon as the command succeeds.
func (o *Orchestrator) TogglePlayPause(ctx context.Context) error {
	snap := o.state.Snapshot()

	if snap.IsPlaying {
		if err := o.remote.Pause(ctx, ""); err != nil {
			return remap(err, nil)
		}
	} else {
		device, err := o.devices.Active(ctx)
		if err != nil {
			return err
		}

		pb, err := o.remote.PlaybackState(ctx)
		if err != nil {
			return err
		}

		var req models.PlayRequest
		switch {
		case pb.HasContext():
			req.ContextURI = pb.Context.URI
		case snap.CurrentTrack != nil && snap.CurrentTrack.URI != "":
			req.URIs = []string{snap.CurrentTrack.URI}
		}

		if err := o.start(ctx, device, req); err != nil {
			return err
		}
	}

	o.state.SetPlaying(!snap.IsPlaying)
	o.reconcileSoon()
	return nil
}

// SkipNext skips forward on the active device.
func (o *Orchestrator) SkipNext(ctx context.Context) error {
	return o.skip(ctx, Next)
}

// SkipPrevious skips back on the active device.
func (o *Orchestrator) SkipPrevious(ctx context.Context) error {
	return o.skip(ctx, Previous)
}

// skip issues the transport command, then, when the server reports no enclosing context,
// restarts the track's album at the neighbouring position because bare-track skips are unreliable.
func (o *Orchestrator) skip(ctx context.Context, dir Direction) error {
	device, err := o.devices.Active(ctx)
	if err != nil {
		return err
	}

	pb, err := o.remote.PlaybackState(ctx)
	if err != nil {
		return err
	}

	if dir == Previous {
		err = o.remote.Previous(ctx, device.ID)
	} else {
		err = o.remote.Next(ctx, device.ID)
	}
	if err != nil {
		return remap(err, device)
	}

	if pb != nil && !pb.HasContext() && pb.Item != nil && pb.Item.Album.URI != "" {
		item := pb.Item
		if pos, ok := ComputeFallbackOffset(dir, item.TrackNumber, item.Album.TotalTracks); ok {
			req := models.PlayRequest{
				ContextURI: item.Album.URI,
				Offset:     &models.PlayOffset{Position: pos},
			}
			if err := o.start(ctx, device, req); err != nil {
				return err
			}
			o.logger.Debug("restarted album at offset", "direction", dir, "position", pos)
		}
	}

	o.reconcileSoon()
	return nil
}

// ComputeFallbackOffset returns the zero-based album position to start when skipping dir from
// the 1-based trackNumber. It reports false at the album's edges, where no follow-up is issued.
func ComputeFallbackOffset(dir Direction, trackNumber, totalTracks int) (int, bool) {
	if trackNumber < 1 {
		return 0, false
	}
	switch dir {
	case Previous:
		if trackNumber > 1 {
			return trackNumber - 2, true
		}
	case Next:
		if trackNumber < totalTracks {
			return trackNumber, true
		}
	}
	return 0, false
}

// RefreshNowPlaying overwrites local state with the server's answer. Nothing playing clears it.
func (o *Orchestrator) RefreshNowPlaying(ctx context.Context) (Snapshot, error) {
	pb, err := o.remote.CurrentlyPlaying(ctx)
	if err != nil {
		return o.state.Snapshot(), err
	}

	if pb == nil {
		o.state.Apply(nil, false)
	} else {
		o.state.Apply(pb.Item, pb.IsPlaying)
	}
	return o.state.Snapshot(), nil
}

// StartPolling refreshes now-playing immediately and then every poll interval until stopped.
func (o *Orchestrator) StartPolling() {
	if o.scheduler == nil {
		return
	}
	o.scheduler.Every(PollJob, o.poll, o.refreshJob, tasks.Immediately())
}

// StopPolling cancels the periodic poll and any pending reconcile.
func (o *Orchestrator) StopPolling() {
	if o.scheduler == nil {
		return
	}
	o.scheduler.Cancel(PollJob)
	o.scheduler.Cancel(ReconcileJob)
}

// Bind ties polling to the session: it runs while authenticated and stops, clearing local
// state, when the session ends.
func (o *Orchestrator) Bind(sess *session.State) {
	sess.OnChange(func(prev, next session.Snapshot) {
		switch {
		case session.Became(prev, next):
			o.StartPolling()
		case session.Ended(prev, next):
			o.StopPolling()
			o.state.Reset()
		}
	})
	if sess.IsAuthenticated() {
		o.StartPolling()
	}
}

func (o *Orchestrator) refreshJob(ctx context.Context) error {
	_, err := o.RefreshNowPlaying(ctx)
	return err
}

func (o *Orchestrator) reconcileSoon() {
	if o.scheduler == nil {
		return
	}
	o.scheduler.After(ReconcileJob, o.delay, o.refreshJob)
}

func (o *Orchestrator) start(ctx context.Context, device *models.Device, req models.PlayRequest) error {
	if err := o.remote.StartPlayback(ctx, device.ID, req); err != nil {
		return remap(err, device)
	}
	return nil
}

// remap turns the 404 the player endpoints return for an unreachable device into
// [shared.ErrNoActiveDevice]. The original error is not wrapped so it cannot match as transient.
func remap(err error, device *models.Device) error {
	if !services.IsNotFound(err) {
		return err
	}
	if device != nil {
		return fmt.Errorf("%w: %s is unreachable (%v)", shared.ErrNoActiveDevice, device.Name, err)
	}
	return fmt.Errorf("%w (%v)", shared.ErrNoActiveDevice, err)
}

// IsRetryable reports whether err is a transient failure worth re-issuing as-is, as opposed
// to one that needs the user to pick a device or log in.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, shared.ErrNoActiveDevice) || errors.Is(err, shared.ErrNotAuthenticated) {
		return false
	}
	return errors.Is(err, shared.ErrTransientAPI)
}
