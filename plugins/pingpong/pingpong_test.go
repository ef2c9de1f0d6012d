package pingpong

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/riovv/TalkerTexasRanger/command"
	"github.com/riovv/TalkerTexasRanger/protocol"
	"github.com/riovv/TalkerTexasRanger/room"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeChat struct {
	mu        sync.Mutex
	commands  map[string]command.Handler
	messages  []string
	broadcast chan string
	done      chan struct{}
}

func newFakeChat() *fakeChat {
	return &fakeChat{
		commands:  map[string]command.Handler{},
		broadcast: make(chan string, 4),
		done:      make(chan struct{}),
	}
}

func (c *fakeChat) Command(name string, handler command.Handler, roomNames ...string) error {
	c.mu.Lock()
	c.commands[name] = handler
	c.mu.Unlock()
	return nil
}

func (c *fakeChat) Message(roomName string, content string) error {
	c.mu.Lock()
	c.messages = append(c.messages, roomName+": "+content)
	c.mu.Unlock()
	return nil
}

func (c *fakeChat) Broadcast(content string, excludes ...string) error {
	c.broadcast <- content
	return nil
}

func (c *fakeChat) Done() <-chan struct{} {
	return c.done
}

// Monday
func at(hour, minute, second int) time.Time {
	return time.Date(2024, time.March, 4, hour, minute, second, 0, time.UTC)
}

func TestReply(t *testing.T) {
	p := New()
	tests := []struct {
		now      time.Time
		expected string
	}{
		{at(15, 0, 0), "Stop, Hammer time!"},
		{at(15, 0, 42), "Stop, Hammer time!"},
		{at(17, 25, 0), "You're late, ping pong should have started 2 hours and 25 minutes ago."},
		{at(15, 1, 0), "You're late, ping pong should have started 0 hours and 1 minutes ago."},
		{at(13, 20, 0), "1 hours and 40 minutes left until the daily ping pong"},
		{at(14, 59, 59), "0 hours and 1 minutes left until the daily ping pong"},
		{at(9, 0, 0), "6 hours and 0 minutes left until the daily ping pong"},
	}

	for _, test := range tests {
		if actual := p.Reply(test.now); actual != test.expected {
			t.Errorf("%s: Got: %q; Expected: %q", test.now.Format("15:04:05"), actual, test.expected)
		}
	}
}

func TestNext(t *testing.T) {
	p := New()
	friday := time.Date(2024, time.March, 8, 16, 0, 0, 0, time.UTC)
	tests := []struct {
		now      time.Time
		expected time.Time
	}{
		{at(10, 0, 0), at(15, 0, 0)},
		{at(15, 0, 0), at(15, 0, 0).AddDate(0, 0, 1)},
		{at(18, 0, 0), at(15, 0, 0).AddDate(0, 0, 1)},
		{friday, time.Date(2024, time.March, 11, 15, 0, 0, 0, time.UTC)},
		{time.Date(2024, time.March, 9, 12, 0, 0, 0, time.UTC), time.Date(2024, time.March, 11, 15, 0, 0, 0, time.UTC)},
	}

	for _, test := range tests {
		if actual := p.Next(test.now); !actual.Equal(test.expected) {
			t.Errorf("%s: Got: %s; Expected: %s", test.now, actual, test.expected)
		}
	}
}

func TestStart(t *testing.T) {
	chat := newFakeChat()
	ticks := make(chan time.Time)
	waits := make(chan time.Duration, 4)

	var mu sync.Mutex
	now := at(14, 30, 0)
	p := New()
	p.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	p.after = func(d time.Duration) <-chan time.Time {
		waits <- d
		return ticks
	}

	if err := p.Start(chat); err != nil {
		t.Fatal(err)
	}

	if d := <-waits; d != time.Minute*30 {
		t.Errorf("Got: %s; Expected: %s", d, time.Minute*30)
	}

	handler, ok := chat.commands[Name]
	if !ok {
		t.Fatal("command not bound")
	}
	handler(&room.Event{
		Kind:  room.EventMessage,
		Room:  "RoomA",
		Frame: &protocol.Frame{Type: protocol.TypeMessage, Content: "!pingpong"},
	}, []string{})

	mu.Lock()
	now = at(15, 0, 0)
	mu.Unlock()
	ticks <- now

	select {
	case msg := <-chat.broadcast:
		if msg != Announcement {
			t.Errorf("Got: %q; Expected: %q", msg, Announcement)
		}
	case <-time.After(time.Second * 2):
		t.Fatal("timed out waiting for announcement")
	}

	// Waits for the next day before stopping.
	if d := <-waits; d != time.Hour*24 {
		t.Errorf("Got: %s; Expected: %s", d, time.Hour*24)
	}
	close(chat.done)

	chat.mu.Lock()
	defer chat.mu.Unlock()
	if len(chat.messages) != 1 || chat.messages[0] != "RoomA: 0 hours and 30 minutes left until the daily ping pong" {
		t.Errorf("Got: %q", chat.messages)
	}
}
