package room

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/riovv/TalkerTexasRanger/transport"
)

func newIdleSession(t *testing.T, name string) *Session {
	t.Helper()
	s, err := NewSession(Room{Name: name}, Config{Dialer: transport.NewPipe()})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := newIdleSession(t, "RoomA")
	b := newIdleSession(t, "RoomB")

	if old := r.Add(b); old != nil {
		t.Errorf("Got: %v; Expected no previous session", old)
	}
	r.Add(a)

	if r.Len() != 2 {
		t.Errorf("Got: %d; Expected: 2", r.Len())
	}
	if diff := cmp.Diff([]string{"RoomA", "RoomB"}, r.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	s, err := r.Get("RoomA")
	if err != nil || s != a {
		t.Errorf("Got: %v, %v; Expected RoomA", s, err)
	}
	if _, err := r.Get("rooma"); !errors.Is(err, ErrUnknownRoom) {
		t.Errorf("Got: %v; Expected: %v", err, ErrUnknownRoom)
	}

	replacement := newIdleSession(t, "RoomA")
	if old := r.Add(replacement); old != a {
		t.Errorf("Got: %v; Expected the replaced session", old)
	}
	if r.Remove("RoomA", a) {
		t.Error("removed a session that was already replaced")
	}
	if !r.In("RoomA") {
		t.Error("replacement was removed")
	}
	if !r.Remove("RoomA", replacement) {
		t.Error("failed to remove current session")
	}
	if r.In("RoomA") {
		t.Error("RoomA still registered after remove")
	}

	if n := len(r.Clear()); n != 1 {
		t.Errorf("Got: %d; Expected: 1", n)
	}
	if r.Len() != 0 {
		t.Errorf("Got: %d; Expected: 0", r.Len())
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	r.Add(newIdleSession(t, "RoomB"))
	r.Add(newIdleSession(t, "RoomA"))

	all, err := r.Lookup()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Name != "RoomA" || all[1].Name != "RoomB" {
		t.Errorf("Got: %v; Expected RoomA, RoomB", all)
	}

	some, err := r.Lookup("RoomB")
	if err != nil || len(some) != 1 || some[0].Name != "RoomB" {
		t.Errorf("Got: %v, %v; Expected RoomB", some, err)
	}

	_, err = r.Lookup("RoomA", "Nowhere")
	if !errors.Is(err, ErrUnknownRoom) {
		t.Errorf("Got: %v; Expected: %v", err, ErrUnknownRoom)
	}

	var visited []string
	r.Each(func(name string, s *Session) error {
		visited = append(visited, name)
		return nil
	})
	if diff := cmp.Diff([]string{"RoomA", "RoomB"}, visited); diff != "" {
		t.Errorf("visit order mismatch (-want +got):\n%s", diff)
	}
}
