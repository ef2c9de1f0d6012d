package room

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// The error returned when a room name isn't in the registry.
var ErrUnknownRoom = errors.New("unknown room")

// Registry maps room names to their sessions. Names are matched exactly.
type Registry struct {
	sync.RWMutex
	lookup map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		lookup: map[string]*Session{},
	}
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.RLock()
	defer r.RUnlock()
	return len(r.lookup)
}

// Add registers s under its name, replacing and returning any previous
// session of that name.
func (r *Registry) Add(s *Session) (old *Session) {
	r.Lock()
	defer r.Unlock()
	old = r.lookup[s.Name]
	r.lookup[s.Name] = s
	if old == s {
		return nil
	}
	return old
}

// Get returns the session registered under name.
func (r *Registry) Get(name string) (*Session, error) {
	r.RLock()
	s, ok := r.lookup[name]
	r.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoom, name)
	}
	return s, nil
}

// In checks if a name is registered.
func (r *Registry) In(name string) bool {
	r.RLock()
	_, ok := r.lookup[name]
	r.RUnlock()
	return ok
}

// Remove unregisters name, but only while it still maps to s.
func (r *Registry) Remove(name string, s *Session) bool {
	r.Lock()
	defer r.Unlock()
	if r.lookup[name] != s {
		return false
	}
	delete(r.lookup, name)
	return true
}

// Clear removes every session and returns them.
func (r *Registry) Clear() []*Session {
	r.Lock()
	sessions := make([]*Session, 0, len(r.lookup))
	for _, s := range r.lookup {
		sessions = append(sessions, s)
	}
	r.lookup = map[string]*Session{}
	r.Unlock()
	return sessions
}

// Names lists registered names, sorted.
func (r *Registry) Names() []string {
	r.RLock()
	names := make([]string, 0, len(r.lookup))
	for name := range r.lookup {
		names = append(names, name)
	}
	r.RUnlock()
	sort.Strings(names)
	return names
}

// Lookup resolves names to sessions. No names means every registered
// session. It fails without partial results if any name is unknown.
func (r *Registry) Lookup(names ...string) ([]*Session, error) {
	if len(names) == 0 {
		r.RLock()
		sessions := make([]*Session, 0, len(r.lookup))
		for _, s := range r.lookup {
			sessions = append(sessions, s)
		}
		r.RUnlock()
		sort.Slice(sessions, func(i, j int) bool { return sessions[i].Name < sessions[j].Name })
		return sessions, nil
	}
	r.RLock()
	defer r.RUnlock()
	sessions := make([]*Session, 0, len(names))
	for _, name := range names {
		s, ok := r.lookup[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRoom, name)
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// Each calls fn for every session in name order, on a snapshot taken before
// the first call. It stops early on the first error.
func (r *Registry) Each(fn func(name string, s *Session) error) error {
	sessions, err := r.Lookup()
	if err != nil {
		return err
	}
	for _, s := range sessions {
		if err := fn(s.Name, s); err != nil {
			return err
		}
	}
	return nil
}
