package room

import (
	"sync"

	"github.com/riovv/TalkerTexasRanger/protocol"
)

// Event kinds emitted by a session. Frame types map onto the event of the
// same name, except error frames which emit EventFailure.
const (
	EventConnected = protocol.TypeConnected
	EventJoin      = protocol.TypeJoin
	EventLeave     = protocol.TypeLeave
	EventUsers     = protocol.TypeUsers
	EventMessage   = protocol.TypeMessage
	EventBack      = protocol.TypeBack
	EventIdle      = protocol.TypeIdle
	EventFailure   = "failure"
	EventUnknown   = "unknown"
	EventClose     = "close"
)

// Event is passed to listeners.
type Event struct {
	Kind string
	// Room is the name of the emitting session.
	Room string
	// Frame that caused the event, nil for transport level events.
	Frame *protocol.Frame
	// Err is set on EventFailure, and on EventClose when the session ended
	// on an error.
	Err error
}

// User returns the frame's user, if any.
func (e *Event) User() *protocol.User {
	if e.Frame == nil {
		return nil
	}
	return e.Frame.User
}

// Content returns the frame's message content, if any.
func (e *Event) Content() string {
	if e.Frame == nil {
		return ""
	}
	return e.Frame.Content
}

// Listener is a callback for session events.
type Listener func(*Event)

// Emitter fans events out to listeners in the order they were added.
type Emitter struct {
	mu        sync.Mutex
	listeners map[string][]Listener
}

// NewEmitter creates an empty Emitter.
func NewEmitter() *Emitter {
	return &Emitter{
		listeners: map[string][]Listener{},
	}
}

// On adds a listener for kind. Adding the same listener twice calls it twice.
func (e *Emitter) On(kind string, fn Listener) {
	e.mu.Lock()
	e.listeners[kind] = append(e.listeners[kind], fn)
	e.mu.Unlock()
}

// Len returns the number of listeners for kind.
func (e *Emitter) Len(kind string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[kind])
}

// Emit calls every listener of ev.Kind in order, on the calling goroutine.
// A panicking listener is logged and skipped.
func (e *Emitter) Emit(ev *Event) {
	e.mu.Lock()
	listeners := make([]Listener, len(e.listeners[ev.Kind]))
	copy(listeners, e.listeners[ev.Kind])
	e.mu.Unlock()

	for _, fn := range listeners {
		call(fn, ev)
	}
}

func call(fn Listener, ev *Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Printf("[%s] Listener for %s panicked: %v", ev.Room, ev.Kind, r)
		}
	}()
	fn(ev)
}
