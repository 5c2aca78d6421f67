package progress

import "fmt"

// Kind distinguishes progress events.
type Kind int

const (
	// TotalKnown carries the total size of a transfer. It is sent at most
	// once per task, before any Advanced event, and only when the size is
	// known.
	TotalKnown Kind = iota + 1

	// Advanced carries the number of bytes just written to disk.
	Advanced
)

func (k Kind) String() string {
	switch k {
	case TotalKnown:
		return "TotalKnown"
	case Advanced:
		return "Advanced"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is one progress notification for a task.
type Event struct {
	TaskID string
	Kind   Kind
	Bytes  int64
}

// Sink receives progress events. Send is called on the download path and
// must return as soon as the event is recorded.
type Sink interface {
	Send(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Send calls f(e).
func (f SinkFunc) Send(e Event) {
	f(e)
}

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(Event) {})
