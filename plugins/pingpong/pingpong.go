// Package pingpong keeps the rooms informed about the daily ping pong game.
//
// It adds the !pingpong command, replying with the time left until the game,
// and announces the game in every room at the start time on weekdays.
package pingpong

import (
	"io"
	stdlog "log"
	"time"

	ranger "github.com/riovv/TalkerTexasRanger"
	"github.com/riovv/TalkerTexasRanger/command"
	"github.com/riovv/TalkerTexasRanger/internal/humantime"
	"github.com/riovv/TalkerTexasRanger/room"
)

const (
	Name = "pingpong"

	// Announcement is broadcast when the game starts.
	Announcement = "Time for ping pong everyone!"
)

var logger *stdlog.Logger

func SetLogger(w io.Writer) {
	flags := stdlog.Flags()
	prefix := "[pingpong] "
	logger = stdlog.New(w, prefix, flags)
}

func init() {
	SetLogger(io.Discard)
}

var _ ranger.Plugin = (*Plugin)(nil)

// Chat is the part of the client the plugin talks to.
type Chat interface {
	Command(name string, handler command.Handler, roomNames ...string) error
	Message(roomName string, content string) error
	Broadcast(content string, excludes ...string) error
	Done() <-chan struct{}
}

// Plugin is the ping pong plugin. The zero value is not usable, see New.
type Plugin struct {
	// Hour and Minute of the daily game, local time.
	Hour   int
	Minute int

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// New creates the plugin for a game at 15:00 on the wall clock.
func New() *Plugin {
	return &Plugin{
		Hour:  15,
		now:   time.Now,
		after: time.After,
	}
}

// Name implements ranger.Plugin.
func (p *Plugin) Name() string {
	return Name
}

// Init implements ranger.Plugin.
func (p *Plugin) Init(c *ranger.Client) error {
	return p.Start(c)
}

// Start binds the command in every room and runs the announcer until chat
// is done.
func (p *Plugin) Start(chat Chat) error {
	err := chat.Command(Name, func(ev *room.Event, args []string) {
		if err := chat.Message(ev.Room, p.Reply(p.now())); err != nil {
			logger.Printf("[%s] Reply failed: %v", ev.Room, err)
		}
	})
	if err != nil {
		return err
	}
	go p.Run(chat)
	return nil
}

// Run announces every game until chat is done.
func (p *Plugin) Run(chat Chat) {
	for {
		now := p.now()
		next := p.Next(now)
		logger.Printf("Next game in %s", humantime.Rough(next.Sub(now)))
		select {
		case <-chat.Done():
			return
		case <-p.after(next.Sub(now)):
		}
		if err := chat.Broadcast(Announcement); err != nil {
			logger.Printf("Announcement failed: %v", err)
		}
	}
}

// start is the game start on the day of now.
func (p *Plugin) start(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), p.Hour, p.Minute, 0, 0, now.Location())
}

// Next returns the first weekday game start strictly after now.
func (p *Plugin) Next(now time.Time) time.Time {
	next := p.start(now)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Reply is the answer to !pingpong at now.
func (p *Plugin) Reply(now time.Time) string {
	now = now.Truncate(time.Minute)
	start := p.start(now)
	switch {
	case now.Equal(start):
		return "Stop, Hammer time!"
	case now.After(start):
		return "You're late, ping pong should have started " + humantime.HoursMinutes(now.Sub(start)) + " ago."
	}
	return humantime.HoursMinutes(start.Sub(now)) + " left until the daily ping pong"
}
