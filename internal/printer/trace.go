package printer

import "log"

// Event is one observability event emitted during a print session. Events are
// advisory: ignoring them changes nothing about the session.
type Event struct {
	Stage   string // open, claim, init, frame, release, done
	Device  string // device ID, when known
	Frame   int    // frame index within the plan, for frame events
	Message string
	Err     error
}

// Tracer receives session events. Implementations must be safe for calls from
// the session goroutine.
type Tracer interface {
	Trace(e Event)
}

// nopTracer discards every event.
type nopTracer struct{}

func (nopTracer) Trace(Event) {}

// LogTracer writes events through the standard logger. The daemon installs it;
// library callers usually keep the default nop tracer.
type LogTracer struct{}

func (LogTracer) Trace(e Event) {
	switch {
	case e.Err != nil && e.Message != "":
		log.Printf("printer: %s %s: %s: %v", e.Stage, e.Device, e.Message, e.Err)
	case e.Err != nil:
		log.Printf("printer: %s %s: %v", e.Stage, e.Device, e.Err)
	default:
		log.Printf("printer: %s %s: %s", e.Stage, e.Device, e.Message)
	}
}
