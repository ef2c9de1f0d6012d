package room

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/riovv/TalkerTexasRanger/transport"
)

const waitTimeout = time.Second * 2

// fakeServer plays the chat service on the far end of a transport.Pipe.
type fakeServer struct {
	t        *testing.T
	conn     net.Conn
	requests chan map[string]interface{}
}

func acceptServer(t *testing.T, pipe *transport.Pipe) *fakeServer {
	t.Helper()
	var conn net.Conn
	select {
	case conn = <-pipe.Accept():
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for dial")
	}

	srv := &fakeServer{
		t:        t,
		conn:     conn,
		requests: make(chan map[string]interface{}, 64),
	}
	t.Cleanup(func() { conn.Close() })

	go func() {
		defer close(srv.requests)
		dec := json.NewDecoder(conn)
		for {
			var req map[string]interface{}
			if err := dec.Decode(&req); err != nil {
				return
			}
			srv.requests <- req
		}
	}()
	return srv
}

func (srv *fakeServer) send(frame string) {
	srv.t.Helper()
	if _, err := srv.conn.Write([]byte(frame)); err != nil {
		srv.t.Fatalf("server send: %v", err)
	}
}

// expect returns the next request of type typ, skipping pings unless typ is
// "ping".
func (srv *fakeServer) expect(typ string) map[string]interface{} {
	srv.t.Helper()
	timeout := time.After(waitTimeout)
	for {
		select {
		case req, ok := <-srv.requests:
			if !ok {
				srv.t.Fatalf("connection closed waiting for %q", typ)
			}
			if req["type"] == typ {
				return req
			}
			if req["type"] != "ping" {
				srv.t.Fatalf("Got: %v; Expected type %q", req, typ)
			}
		case <-timeout:
			srv.t.Fatalf("timed out waiting for %q", typ)
		}
	}
}

// authorize completes the handshake for a freshly dialed session.
func (srv *fakeServer) authorize() {
	srv.t.Helper()
	srv.expect("connect")
	srv.send(`{"type":"connected","user":{"name":"Walker","email":"walker@example.com"}}`)
}

// record collects events of the given kinds in order.
func record(s *Session, kinds ...string) chan *Event {
	ch := make(chan *Event, 64)
	for _, kind := range kinds {
		s.On(kind, func(ev *Event) {
			ch <- ev
		})
	}
	return ch
}

func next(t *testing.T, ch chan *Event) *Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for event")
	}
	return nil
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for session to end")
	}
}
