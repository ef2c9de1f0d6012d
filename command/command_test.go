package command

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shazow/rateio"

	"github.com/riovv/TalkerTexasRanger/protocol"
	"github.com/riovv/TalkerTexasRanger/room"
)

func messageEvent(content string) *room.Event {
	return &room.Event{
		Kind: room.EventMessage,
		Room: "Main",
		Frame: &protocol.Frame{
			Type:    protocol.TypeMessage,
			User:    &protocol.User{Name: "Walker"},
			Content: content,
			Room:    "Main",
		},
	}
}

func TestMatch(t *testing.T) {
	r := NewRouter("")
	cmd, err := r.Add("pingpong", func(*room.Event, []string) {})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		content string
		match   bool
		args    []string
	}{
		{"!pingpong", true, []string{}},
		{"!pingpongx", false, nil},
		{"!pingpong foo bar", true, []string{"foo", "bar"}},
		{"!pingpong   foo    bar  ", true, []string{"foo", "bar"}},
		{"!pingpong\tfoo", true, []string{"foo"}},
		{"!pingpong ", true, []string{}},
		{"!pingpong foo\nbar", true, []string{"foo", "bar"}},
		{"pingpong", false, nil},
		{" !pingpong", false, nil},
		{"?pingpong", false, nil},
		{"!!pingpong", false, nil},
		{"!PingPong", false, nil},
		{"", false, nil},
	}

	for _, test := range tests {
		args, ok := cmd.Match(test.content)
		if ok != test.match {
			t.Errorf("%q: Got match %v; Expected: %v", test.content, ok, test.match)
			continue
		}
		if !ok {
			continue
		}
		if len(args) != 0 || len(test.args) != 0 {
			if diff := cmp.Diff(test.args, args); diff != "" {
				t.Errorf("%q: args mismatch (-want +got):\n%s", test.content, diff)
			}
		}
	}
}

func TestMatchPrefixCharacters(t *testing.T) {
	r := NewRouter(`!-]\^`)
	cmd, err := r.Add("sum", func(*room.Event, []string) {})
	if err != nil {
		t.Fatal(err)
	}

	for _, content := range []string{"!sum 1", "-sum 1", "]sum 1", `\sum 1`, "^sum 1"} {
		if _, ok := cmd.Match(content); !ok {
			t.Errorf("%q: expected a match", content)
		}
	}
	for _, content := range []string{"?sum 1", "asum 1", "[sum"} {
		if _, ok := cmd.Match(content); ok {
			t.Errorf("%q: unexpected match", content)
		}
	}
}

func TestMatchQuotesName(t *testing.T) {
	r := NewRouter("!")
	cmd, err := r.Add("c++", func(*room.Event, []string) {})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cmd.Match("!c++ rocks"); !ok {
		t.Error("expected a match for a name with regexp metacharacters")
	}
	if _, ok := cmd.Match("!cc"); ok {
		t.Error("name was treated as a pattern")
	}
}

func TestAddInvalid(t *testing.T) {
	r := NewRouter("!")
	for _, name := range []string{"", "two words", "tab\tbed"} {
		if _, err := r.Add(name, func(*room.Event, []string) {}); !errors.Is(err, ErrInvalidCommand) {
			t.Errorf("%q: Got: %v; Expected: %v", name, err, ErrInvalidCommand)
		}
	}
	if _, err := r.Add("ok", nil); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("Got: %v; Expected: %v", err, ErrInvalidCommand)
	}
}

func TestListener(t *testing.T) {
	r := NewRouter("!")
	var calls []string
	first, _ := r.Add("sum", func(ev *room.Event, args []string) {
		calls = append(calls, "first:"+strings.Join(args, ","))
	})
	second, _ := r.Add("sum", func(ev *room.Event, args []string) {
		calls = append(calls, "second:"+ev.Room)
	})

	emitter := room.NewEmitter()
	emitter.On(room.EventMessage, first.Listener())
	emitter.On(room.EventMessage, second.Listener())

	emitter.Emit(messageEvent("hello"))
	emitter.Emit(messageEvent("!sum 1 2"))

	expected := []string{"first:1,2", "second:Main"}
	if diff := cmp.Diff(expected, calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"sum"}, r.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestListenerRateLimit(t *testing.T) {
	r := NewRouter("!")
	r.SetRateLimit(func() rateio.Limiter {
		return rateio.NewSimpleLimiter(2, time.Minute)
	})
	var n int
	cmd, _ := r.Add("spam", func(*room.Event, []string) { n++ })

	main := cmd.Listener()
	other := cmd.Listener()
	for i := 0; i < 5; i++ {
		main(messageEvent("!spam"))
	}
	other(messageEvent("!spam"))

	if n != 3 {
		t.Errorf("Got: %d; Expected: 3", n)
	}
}

func TestMatchProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	r := NewRouter("!")
	cmd, err := r.Add("pingpong", func(*room.Event, []string) {})
	if err != nil {
		t.Fatal(err)
	}

	words := gen.SliceOf(gen.AlphaString().SuchThat(func(s string) bool { return s != "" }))

	properties.Property("arguments after the command are the words given", prop.ForAll(
		func(args []string) bool {
			got, ok := cmd.Match(strings.TrimSpace("!pingpong " + strings.Join(args, "  ")))
			return ok && cmp.Equal(append([]string{}, args...), got)
		},
		words,
	))

	properties.Property("content glued to the name never matches", prop.ForAll(
		func(suffix string) bool {
			_, ok := cmd.Match("!pingpong" + suffix)
			return !ok
		},
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
	))

	properties.Property("content without the prefix never matches", prop.ForAll(
		func(content string) bool {
			if strings.HasPrefix(content, "!") {
				return true
			}
			_, ok := cmd.Match(content)
			return !ok
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
