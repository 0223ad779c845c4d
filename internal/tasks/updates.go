package tasks

import "fmt"

// Event reports a job lifecycle change.
type Event struct {
	Kind EventKind
	Job  string
	Err  error
}

func (e Event) String() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Job, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Job, e.Kind)
}

// EventKind enumerates job lifecycle events
type EventKind int

const (
	JobStarted EventKind = iota
	JobRan
	JobFailed
	JobStopped
)

func (k EventKind) String() string {
	switch k {
	case JobStarted:
		return "started"
	case JobRan:
		return "ran"
	case JobFailed:
		return "failed"
	case JobStopped:
		return "stopped"
	default:
		return ""
	}
}
