package transfer

// Status is the lifecycle state of a Task.
type Status string

const (
	// StatusPending means the task has not started yet.
	StatusPending Status = "pending"

	// StatusRunning means the request or body copy is in progress.
	StatusRunning Status = "running"

	// StatusSucceeded means the whole body was written and the file closed.
	StatusSucceeded Status = "succeeded"

	// StatusFailed means the task stopped with an error.
	StatusFailed Status = "failed"
)

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition can happen.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}
