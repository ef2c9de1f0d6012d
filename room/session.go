package room

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/riovv/TalkerTexasRanger/internal/humantime"
	"github.com/riovv/TalkerTexasRanger/protocol"
	"github.com/riovv/TalkerTexasRanger/transport"
)

// The error returned when writing to, or connecting, a closed session.
var ErrSessionClosed = errors.New("session closed")

// The error returned when writing before the transport is up.
var ErrNotConnected = errors.New("session not connected")

// The error returned when Connect is called more than once.
var ErrAlreadyStarted = errors.New("session already started")

// The error returned when the server hangs up.
var ErrDisconnected = errors.New("disconnected by server")

// The error returned when the server doesn't answer the connect request in
// time.
var ErrHandshakeTimeout = errors.New("handshake timed out")

// The error returned for a ping interval the server would not tolerate.
var ErrPingInterval = fmt.Errorf("ping interval must be positive and below %s", MaxPingInterval)

// The error returned for a room without a name.
var ErrInvalidName = errors.New("invalid room name")

// ProtocolError is an error frame sent by the server. It always ends the
// session.
type ProtocolError struct {
	Message string
	Frame   *protocol.Frame
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("server error: %s", e.Message)
}

// Room identifies a chat room on the server.
type Room struct {
	// Name is the local name, unique among connected rooms.
	Name string `json:"name" yaml:"name"`
	// ID is the server-side identifier.
	ID protocol.RoomID `json:"id" yaml:"id"`
	// Token to authenticate with, usually shared between rooms.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
}

// Config holds per-session settings.
type Config struct {
	Dialer transport.Dialer
	// PingInterval defaults to DefaultPingInterval.
	PingInterval time.Duration
	// HandshakeTimeout bounds the wait for the server's answer to the connect
	// request. Zero waits forever.
	HandshakeTimeout time.Duration
}

// Session is the live connection to one room. Events for a session are
// emitted on a single goroutine in the order the frames arrived.
type Session struct {
	Room

	config Config
	events *Emitter

	mu          sync.Mutex
	state       State
	started     bool
	conn        net.Conn
	enc         *protocol.Encoder
	user        *protocol.User
	err         error
	cause       error
	cancel      context.CancelFunc
	watch       func()
	keepAlive   *keepAlive
	connectedAt time.Time

	writeMu sync.Mutex

	logMu      sync.Mutex
	transcript io.Writer

	done     chan struct{}
	doneOnce sync.Once
}

// NewSession creates a session for room. Nothing happens until Connect.
func NewSession(room Room, config Config) (*Session, error) {
	if room.Name == "" {
		return nil, ErrInvalidName
	}
	if config.Dialer == nil {
		return nil, errors.New("session requires a dialer")
	}
	if config.PingInterval == 0 {
		config.PingInterval = DefaultPingInterval
	}
	if config.PingInterval < 0 || config.PingInterval >= MaxPingInterval {
		return nil, ErrPingInterval
	}

	return &Session{
		Room:   room,
		config: config,
		events: NewEmitter(),
		done:   make(chan struct{}),
	}, nil
}

// On adds a listener for an event kind.
func (s *Session) On(kind string, fn Listener) {
	s.events.On(kind, fn)
}

// SetLogging sets the output for the session's chat transcript.
func (s *Session) SetLogging(out io.Writer) {
	s.logMu.Lock()
	s.transcript = out
	s.logMu.Unlock()
}

// Logf writes a timestamped line to the transcript.
func (s *Session) Logf(format string, args ...interface{}) {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	if s.transcript == nil {
		return
	}
	line := fmt.Sprintf(format, args...)
	fmt.Fprintf(s.transcript, "[%s] #%s %s\n", time.Now().Format("15:04:05"), s.Name, line)
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsConnected reports whether the session is authorized.
func (s *Session) IsConnected() bool {
	return s.State() == Authorized
}

// User is the identity the server authorized us as, nil before that.
func (s *Session) User() *protocol.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Err returns the error that ended the session, nil while running or after a
// local Close.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed once the session has ended and all events were emitted.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Connect dials and authorizes in the background. The outcome is reported
// by exactly one of EventConnected or EventFailure. Cancelling ctx before
// authorization fails the attempt; it has no effect after.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	go s.run(ctx)
	return nil
}

// Write sends a request to the server.
func (s *Session) Write(r protocol.Request) error {
	s.mu.Lock()
	state, enc := s.state, s.enc
	s.mu.Unlock()

	if state.Terminal() {
		return ErrSessionClosed
	}
	if enc == nil {
		return ErrNotConnected
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("write %s: %w", r.RequestType(), err)
	}
	return nil
}

// WriteIfConnected is Write, but silently skipped unless the session is
// authorized.
func (s *Session) WriteIfConnected(r protocol.Request) error {
	if !s.IsConnected() {
		return nil
	}
	err := s.Write(r)
	if errors.Is(err, ErrSessionClosed) {
		return nil
	}
	return err
}

// Close ends the session. The keepalive is stopped and the transport closed
// before it returns. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		return nil
	}
	s.state = Closed
	conn, k, cancel, started := s.conn, s.keepAlive, s.cancel, s.started
	s.keepAlive = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	var err error
	if conn != nil {
		err = conn.Close()
	}
	if k != nil {
		k.Stop()
	}
	if !started {
		s.doneOnce.Do(func() { close(s.done) })
	}
	return err
}

func (s *Session) run(ctx context.Context) {
	err := s.serve(ctx)
	s.finish(err)
}

// serve runs the session until it ends, returning nil after a local Close
// of an authorized session and the cause otherwise.
func (s *Session) serve(ctx context.Context) error {
	conn, err := s.config.Dialer.Dial(ctx)
	if err != nil {
		if s.State() == Closed {
			return ErrSessionClosed
		}
		return fmt.Errorf("dial: %w", err)
	}

	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		conn.Close()
		return ErrSessionClosed
	}
	s.conn = conn
	s.enc = protocol.NewEncoder(conn)
	s.state = Authorizing
	s.watch = s.watchHandshake(ctx)
	s.mu.Unlock()

	s.Logf("Connected to %s", conn.RemoteAddr())

	if err := s.Write(protocol.NewConnect(s.ID, s.Token)); err != nil {
		return s.interrupted(err)
	}

	dec := protocol.NewDecoder(conn)
	for {
		f, err := dec.Decode()
		if err != nil {
			return s.interrupted(err)
		}
		if s.State() == Closed {
			return s.interrupted(nil)
		}
		f.Room = s.Name
		if err := s.handle(f); err != nil {
			return err
		}
	}
}

// watchHandshake interrupts the connect attempt if ctx ends or the
// handshake timeout passes first. The returned func disarms both.
func (s *Session) watchHandshake(ctx context.Context) func() {
	stop := context.AfterFunc(ctx, func() {
		s.interrupt(ctx.Err())
	})
	var timer *time.Timer
	if s.config.HandshakeTimeout > 0 {
		timer = time.AfterFunc(s.config.HandshakeTimeout, func() {
			s.interrupt(ErrHandshakeTimeout)
		})
	}
	return func() {
		stop()
		if timer != nil {
			timer.Stop()
		}
	}
}

// interrupt aborts an unauthorized session with cause.
func (s *Session) interrupt(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Authorizing || s.cause != nil {
		return
	}
	s.cause = cause
	s.conn.Close()
}

// interrupted translates a transport error into the reason the session
// ended.
func (s *Session) interrupted(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.cause != nil:
		return s.cause
	case s.state == Closed:
		if !s.connectedAt.IsZero() {
			return nil
		}
		return ErrSessionClosed
	case errors.Is(err, io.EOF):
		return ErrDisconnected
	}
	return err
}

// handle dispatches one frame. A non-nil error ends the session.
func (s *Session) handle(f *protocol.Frame) error {
	if f.Type == protocol.TypeError {
		s.Logf("%s", SanitizeData(f.Message))
		return &ProtocolError{Message: f.Message, Frame: f}
	}

	if s.State() == Authorizing {
		if f.Type != protocol.TypeConnected {
			logger.Printf("[%s] Dropping %q frame received before authorization", s.Name, f.Type)
			return nil
		}
		return s.authorize(f)
	}

	ev := &Event{Kind: f.Type, Room: s.Name, Frame: f}
	switch f.Type {
	case protocol.TypeConnected:
		logger.Printf("[%s] Ignoring repeated connected frame", s.Name)
		return nil
	case protocol.TypeJoin:
		s.Logf("%s has entered the room", userName(f))
	case protocol.TypeLeave:
		s.Logf("%s has left the room", userName(f))
	case protocol.TypeUsers:
		names := f.UserNames()
		for i := range names {
			names[i] = SanitizeData(names[i])
		}
		s.Logf("Who's here: %s", strings.Join(names, ", "))
	case protocol.TypeMessage:
		if f.Action {
			s.Logf("%s %s", userName(f), SanitizeData(f.Content))
		} else {
			s.Logf("%s: %s", userName(f), SanitizeData(f.Content))
		}
	case protocol.TypeBack, protocol.TypeIdle:
		// Presence only
	default:
		s.Logf("Unknown message: %s", SanitizeData(string(f.Raw)))
		ev.Kind = EventUnknown
	}
	s.events.Emit(ev)
	return nil
}

func (s *Session) authorize(f *protocol.Frame) error {
	s.mu.Lock()
	if s.cause != nil || s.state != Authorizing {
		s.mu.Unlock()
		return s.interrupted(nil)
	}
	s.state = Authorized
	s.user = f.User
	s.connectedAt = time.Now()
	watch := s.watch
	s.watch = nil
	s.keepAlive = startKeepAlive(s, s.config.PingInterval)
	s.mu.Unlock()

	if watch != nil {
		watch()
	}

	if f.User != nil {
		s.Logf("Authorized as %s (%s)", SanitizeData(f.User.Name), SanitizeData(f.User.Email))
	}
	s.events.Emit(&Event{Kind: EventConnected, Room: s.Name, Frame: f})
	return nil
}

// finish tears the session down and emits the terminal events.
func (s *Session) finish(err error) {
	s.mu.Lock()
	if err != nil {
		s.err = err
		if s.state != Closed {
			s.state = Failed
		}
	}
	watch := s.watch
	s.watch = nil
	connectedAt := s.connectedAt
	s.mu.Unlock()

	if watch != nil {
		watch()
	}

	if err != nil {
		logger.Printf("[%s] Session failed: %v", s.Name, err)
		ev := &Event{Kind: EventFailure, Room: s.Name, Err: err}
		var protoErr *ProtocolError
		if errors.As(err, &protoErr) {
			ev.Frame = protoErr.Frame
		}
		s.events.Emit(ev)
	}

	s.Close()

	if !connectedAt.IsZero() {
		s.Logf("Disconnected after %s", humantime.Since(connectedAt))
	}
	s.events.Emit(&Event{Kind: EventClose, Room: s.Name, Err: err})
	s.doneOnce.Do(func() { close(s.done) })
}

func userName(f *protocol.Frame) string {
	return SanitizeData(f.UserName())
}
