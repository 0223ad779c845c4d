// package tasks runs cancellable background jobs: periodic polls and one-shot delayed reads.
//
// Jobs are grouped by name. [Scheduler.Every] replaces whatever runs under its name,
// [Scheduler.After] adds to the group, and [Scheduler.Cancel] stops the whole group.
// Lifecycle events are reported via a non-blocking channel.
package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundwave/internal/shared"
)

// Func is the unit of work run by a job. Errors are logged and reported, never fatal.
type Func func(ctx context.Context) error

// Job is one scheduled unit of work.
type Job struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

func (j *Job) Name() string { return j.name }

// Stop cancels the job without waiting for it.
func (j *Job) Stop() { j.cancel() }

// Done is closed once the job's goroutine has returned.
func (j *Job) Done() <-chan struct{} { return j.done }

// JobOption configures a periodic job.
type JobOption func(*jobConfig)

type jobConfig struct {
	immediate bool
}

// Immediately runs the job once at start, before the first interval elapses.
func Immediately() JobOption {
	return func(c *jobConfig) { c.immediate = true }
}

// Scheduler owns background jobs for one lifecycle. Close cancels everything and waits.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *log.Logger
	events chan<- Event

	mu     sync.Mutex
	groups map[string][]*Job
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler whose jobs are cancelled with parent.
func NewScheduler(parent context.Context, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	ctx, cancel := context.WithCancel(parent)
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		logger: shared.WithLogger(logger, "component", "tasks"),
		groups: make(map[string][]*Job),
	}
}

// Notify sets the channel that receives job [Event]s. Sends never block.
func (s *Scheduler) Notify(events chan<- Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = events
}

// Every runs fn each interval under name, replacing any job already registered with that name.
func (s *Scheduler) Every(name string, interval time.Duration, fn Func, opts ...JobOption) *Job {
	var cfg jobConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	s.Cancel(name)
	return s.spawn(name, func(ctx context.Context, job *Job) {
		if cfg.immediate {
			s.run(ctx, job, fn)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.run(ctx, job, fn)
			}
		}
	})
}

// After runs fn once after delay, as a member of the named group.
func (s *Scheduler) After(name string, delay time.Duration, fn Func) *Job {
	return s.spawn(name, func(ctx context.Context, job *Job) {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			s.run(ctx, job, fn)
		}
	})
}

// Cancel stops every job in the named group. It does not wait, so a job may cancel its own group.
// Cancelled jobs leave the group once their goroutines return; use [Scheduler.Wait] to block on that.
func (s *Scheduler) Cancel(name string) bool {
	s.mu.Lock()
	jobs := append([]*Job(nil), s.groups[name]...)
	s.mu.Unlock()

	for _, j := range jobs {
		j.Stop()
	}
	return len(jobs) > 0
}

// Running reports whether any job in the named group is still active.
func (s *Scheduler) Running(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.groups[name]) > 0
}

// Wait blocks until every job currently in the named group has finished or ctx ends.
func (s *Scheduler) Wait(ctx context.Context, name string) error {
	s.mu.Lock()
	jobs := append([]*Job(nil), s.groups[name]...)
	s.mu.Unlock()

	for _, j := range jobs {
		select {
		case <-j.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close cancels all jobs and waits for their goroutines to return.
func (s *Scheduler) Close() {
	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	s.groups = make(map[string][]*Job)
	s.mu.Unlock()
}

func (s *Scheduler) spawn(name string, body func(ctx context.Context, job *Job)) *Job {
	ctx, cancel := context.WithCancel(s.ctx)
	job := &Job{name: name, cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.groups[name] = append(s.groups[name], job)
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(job.done)
		defer s.forget(job)
		defer cancel()

		s.emit(Event{Kind: JobStarted, Job: name})
		body(ctx, job)
		s.emit(Event{Kind: JobStopped, Job: name})
	}()

	return job
}

func (s *Scheduler) forget(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := s.groups[job.name]
	for i, j := range jobs {
		if j == job {
			jobs = append(jobs[:i], jobs[i+1:]...)
			break
		}
	}
	if len(jobs) == 0 {
		delete(s.groups, job.name)
	} else {
		s.groups[job.name] = jobs
	}
}

func (s *Scheduler) run(ctx context.Context, job *Job, fn Func) {
	err := fn(ctx)
	switch {
	case err == nil:
		s.emit(Event{Kind: JobRan, Job: job.name})
	case errors.Is(err, context.Canceled):
		s.logger.Debug("job cancelled", "job", job.name)
	default:
		s.logger.Warn("job failed", "job", job.name, "error", err)
		s.emit(Event{Kind: JobFailed, Job: job.name, Err: err})
	}
}

// emit sends an event without blocking.
func (s *Scheduler) emit(e Event) {
	s.mu.Lock()
	events := s.events
	s.mu.Unlock()

	if events == nil {
		return
	}
	select {
	case events <- e:
	default:
	}
}
