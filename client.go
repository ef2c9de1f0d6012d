package ranger

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/shazow/rateio"

	"github.com/riovv/TalkerTexasRanger/command"
	"github.com/riovv/TalkerTexasRanger/protocol"
	"github.com/riovv/TalkerTexasRanger/room"
	"github.com/riovv/TalkerTexasRanger/transport"
)

const (
	DefaultHost = "talkerapp.com"
	DefaultPort = 8500
)

// The error returned when using a client after Close.
var ErrClientClosed = errors.New("client closed")

// Config contains the client options.
type Config struct {
	Host string
	Port int
	// Token is used for rooms that don't carry their own.
	Token string
	// Command holds the command prefix characters, "!" if empty.
	Command string

	PingInterval     time.Duration
	HandshakeTimeout time.Duration

	TLS *tls.Config
	// RateLimit limits inbound traffic per connection, may be nil.
	RateLimit func() rateio.Limiter
	// CommandRateLimit limits command invocations per room, may be nil.
	CommandRateLimit func() rateio.Limiter

	// Transcript receives the chat log of every room, may be nil.
	Transcript io.Writer

	// Dialer overrides the TLS transport, used for testing.
	Dialer func(room.Room) transport.Dialer
}

// Result is the outcome of connecting to a room.
type Result struct {
	Room    string
	Session *room.Session
	Err     error
}

// OK reports whether the room was connected.
func (r Result) OK() bool {
	return r.Err == nil
}

// Client keeps sessions to any number of rooms and is what plugins get
// handed.
type Client struct {
	config Config
	rooms  *room.Registry
	router *command.Router

	mu      sync.Mutex
	pending map[*room.Session]struct{}

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a client. Nothing is connected until Connect.
func New(config Config) *Client {
	if config.Host == "" {
		config.Host = DefaultHost
	}
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	router := command.NewRouter(config.Command)
	if config.CommandRateLimit != nil {
		router.SetRateLimit(config.CommandRateLimit)
	}
	return &Client{
		config:  config,
		rooms:   room.NewRegistry(),
		router:  router,
		pending: map[*room.Session]struct{}{},
		done:    make(chan struct{}),
	}
}

func (c *Client) dialer(r room.Room) transport.Dialer {
	if c.config.Dialer != nil {
		return c.config.Dialer(r)
	}
	d := transport.NewTLSDialer(c.config.Host, c.config.Port, c.config.TLS)
	d.RateLimit = c.config.RateLimit
	return d
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Connect starts a session for r in the background. onResult, if given, is
// called exactly once: when the room is connected, or when the attempt
// fails. The room is only registered, and addressable by name, once
// connected; an existing session of the same name is then closed and
// replaced.
func (c *Client) Connect(ctx context.Context, r room.Room, onResult func(Result)) error {
	if c.closed() {
		return ErrClientClosed
	}
	if r.Token == "" {
		r.Token = c.config.Token
	}

	s, err := room.NewSession(r, room.Config{
		Dialer:           c.dialer(r),
		PingInterval:     c.config.PingInterval,
		HandshakeTimeout: c.config.HandshakeTimeout,
	})
	if err != nil {
		return err
	}
	if c.config.Transcript != nil {
		s.SetLogging(c.config.Transcript)
	}

	var once sync.Once
	resolve := func(res Result) {
		once.Do(func() {
			if onResult != nil {
				onResult(res)
			}
		})
	}

	s.On(room.EventConnected, func(ev *room.Event) {
		c.untrack(s)
		if c.closed() {
			s.Close()
			resolve(Result{Room: r.Name, Err: ErrClientClosed})
			return
		}
		if old := c.rooms.Add(s); old != nil {
			logger.Infof("[%s] Replacing previous session", r.Name)
			old.Close()
		}
		if u := ev.User(); u != nil {
			logger.Infof("[%s] Authorized as %s", r.Name, u.Name)
		}
		resolve(Result{Room: r.Name, Session: s})
	})
	s.On(room.EventFailure, func(ev *room.Event) {
		logger.Errorf("[%s] %s", r.Name, ev.Err)
		resolve(Result{Room: r.Name, Err: ev.Err})
	})
	s.On(room.EventClose, func(ev *room.Event) {
		c.untrack(s)
		if c.rooms.Remove(r.Name, s) {
			logger.Infof("[%s] Disconnected", r.Name)
		}
	})

	c.track(s)
	if err := s.Connect(ctx); err != nil {
		c.untrack(s)
		return err
	}
	logger.Debugf("[%s] Connecting to %s:%d", r.Name, c.config.Host, c.config.Port)
	return nil
}

// ConnectAll connects every room and calls done once all of them have
// answered, successfully or not, in whatever order. Results are in the
// order of rooms.
func (c *Client) ConnectAll(ctx context.Context, rooms []room.Room, done func([]Result)) error {
	results := make([]Result, len(rooms))
	if len(rooms) == 0 {
		if done != nil {
			done(results)
		}
		return nil
	}

	var mu sync.Mutex
	remaining := len(rooms)
	finish := func(i int, res Result) {
		mu.Lock()
		results[i] = res
		remaining--
		last := remaining == 0
		mu.Unlock()
		if last && done != nil {
			done(results)
		}
	}

	var errs []error
	for i, r := range rooms {
		i := i
		err := c.Connect(ctx, r, func(res Result) {
			finish(i, res)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, err))
			finish(i, Result{Room: r.Name, Err: err})
		}
	}
	return errors.Join(errs...)
}

// On binds listener to an event kind in the named rooms, or every connected
// room if none are named. Nothing is bound if any room is unknown.
func (c *Client) On(kind string, listener room.Listener, roomNames ...string) error {
	sessions, err := c.rooms.Lookup(roomNames...)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		s.On(kind, listener)
	}
	return nil
}

// Command binds handler to a command in the named rooms, or every connected
// room if none are named. Nothing is bound if any room is unknown.
func (c *Client) Command(name string, handler command.Handler, roomNames ...string) error {
	sessions, err := c.rooms.Lookup(roomNames...)
	if err != nil {
		return err
	}
	cmd, err := c.router.Add(name, handler)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		s.On(room.EventMessage, cmd.Listener())
	}
	logger.Debugf("Command %s bound to %d rooms", name, len(sessions))
	return nil
}

// Message sends content to a connected room.
func (c *Client) Message(roomName string, content string) error {
	s, err := c.rooms.Get(roomName)
	if err != nil {
		return err
	}
	if err := s.Write(protocol.NewMessage(content)); err != nil {
		return fmt.Errorf("%s: %w", roomName, err)
	}
	s.Logf("< %s", content)
	return nil
}

// Broadcast sends content to every connected room except the excluded ones.
func (c *Client) Broadcast(content string, excludes ...string) error {
	skip := make(map[string]struct{}, len(excludes))
	for _, name := range excludes {
		skip[name] = struct{}{}
	}

	var errs []error
	for _, name := range c.rooms.Names() {
		if _, ok := skip[name]; ok {
			continue
		}
		if err := c.Message(name, content); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Rooms lists the names of connected rooms.
func (c *Client) Rooms() []string {
	return c.rooms.Names()
}

// Session returns the session of a connected room.
func (c *Client) Session(name string) (*room.Session, error) {
	return c.rooms.Get(name)
}

// Commands lists the registered command names.
func (c *Client) Commands() []string {
	return c.router.Names()
}

// Done is closed when the client is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close closes every session, connected or pending.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.done) })

	sessions := c.rooms.Clear()
	c.mu.Lock()
	for s := range c.pending {
		sessions = append(sessions, s)
	}
	c.pending = map[*room.Session]struct{}{}
	c.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Client) track(s *room.Session) {
	c.mu.Lock()
	c.pending[s] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) untrack(s *room.Session) {
	c.mu.Lock()
	delete(c.pending, s)
	c.mu.Unlock()
}
