package command

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/shazow/rateio"

	"github.com/riovv/TalkerTexasRanger/room"
)

// DefaultPrefix is used when the router is created without one.
const DefaultPrefix = "!"

// The error returned when a command name is empty or contains whitespace.
var ErrInvalidCommand = errors.New("invalid command")

// Handler is called with the message event and the parsed arguments.
type Handler func(ev *room.Event, args []string)

// Command is a compiled command registration.
type Command struct {
	Name    string
	Handler Handler

	pattern   *regexp.Regexp
	rateLimit func() rateio.Limiter
}

// Match checks content against the command. The remainder after the command
// word is split on runs of whitespace; a bare command yields no arguments.
func (c *Command) Match(content string) (args []string, ok bool) {
	m := c.pattern.FindStringSubmatch(content)
	if m == nil {
		return nil, false
	}
	return strings.Fields(m[1]), true
}

// Listener returns a message listener running the handler on every match.
// Each call returns a listener with its own rate limiter, one per room.
func (c *Command) Listener() room.Listener {
	var limiter rateio.Limiter
	if c.rateLimit != nil {
		limiter = c.rateLimit()
	}
	return func(ev *room.Event) {
		args, ok := c.Match(ev.Content())
		if !ok {
			return
		}
		if limiter != nil {
			if err := limiter.Count(1); err != nil {
				logger.Printf("[%s] Dropped %s from %s: %v", ev.Room, c.Name, userName(ev), err)
				return
			}
		}
		logger.Printf("[%s] Running %s for %s with %q", ev.Room, c.Name, userName(ev), args)
		c.Handler(ev, args)
	}
}

// Router compiles commands for a prefix and keeps track of them.
type Router struct {
	prefix string

	mu        sync.Mutex
	commands  []*Command
	rateLimit func() rateio.Limiter
}

// NewRouter creates a router. Every character of prefix is accepted as the
// command prefix.
func NewRouter(prefix string) *Router {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Router{prefix: prefix}
}

// Prefix returns the prefix characters.
func (r *Router) Prefix() string {
	return r.prefix
}

// SetRateLimit makes commands added afterwards drop matches beyond what the
// limiter allows, per room.
func (r *Router) SetRateLimit(fn func() rateio.Limiter) {
	r.mu.Lock()
	r.rateLimit = fn
	r.mu.Unlock()
}

// Add compiles and registers a command. Names may repeat; every
// registration runs, in order.
func (r *Router) Add(name string, handler Handler) (*Command, error) {
	pattern, err := Pattern(r.prefix, name)
	if err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, ErrInvalidCommand
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cmd := &Command{
		Name:      name,
		Handler:   handler,
		pattern:   pattern,
		rateLimit: r.rateLimit,
	}
	r.commands = append(r.commands, cmd)
	return cmd, nil
}

// Names lists registered command names, in registration order, without
// duplicates.
func (r *Router) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]struct{}{}
	names := []string{}
	for _, cmd := range r.commands {
		if _, ok := seen[cmd.Name]; ok {
			continue
		}
		seen[cmd.Name] = struct{}{}
		names = append(names, cmd.Name)
	}
	return names
}

// Pattern compiles the matcher for name: any one prefix character, the exact
// name, then the end of the content or whitespace.
func Pattern(prefix, name string) (*regexp.Regexp, error) {
	if name == "" || strings.IndexFunc(name, isSpace) >= 0 {
		return nil, ErrInvalidCommand
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return regexp.Compile(`(?s)^[` + quoteClass(prefix) + `]` + regexp.QuoteMeta(name) + `(\s.*)?$`)
}

// quoteClass escapes the characters that are special inside a character
// class.
func quoteClass(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '-', ']', '[', '^':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isSpace(r rune) bool {
	return strings.ContainsRune(" \t\n\r\f\v", r)
}

func userName(ev *room.Event) string {
	if u := ev.User(); u != nil {
		return u.Name
	}
	return "unknown"
}
