// Package tasks schedules the background work of a session.
//
// # Jobs
//
// A [Scheduler] owns every goroutine it starts. Periodic jobs ([Scheduler.Every]) drive the
// token refresh and now-playing polls; delayed one-shot jobs ([Scheduler.After]) drive the
// reconciliation read that follows a playback command. Each job has its own
// [context.Context] derived from the scheduler's, so cancelling a group or closing the
// scheduler stops work deterministically instead of leaving timers behind.
//
// # Events
//
// Job lifecycle changes are published as [Event] values on an optional channel set with
// [Scheduler.Notify]. Sends use select with default so a slow consumer never stalls a job.
package tasks
