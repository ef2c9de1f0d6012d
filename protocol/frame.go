package protocol

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Frame types sent by the server.
const (
	TypeConnected = "connected"
	TypeJoin      = "join"
	TypeLeave     = "leave"
	TypeUsers     = "users"
	TypeMessage   = "message"
	TypeError     = "error"
	TypeBack      = "back"
	TypeIdle      = "idle"
)

// Request types sent by the client.
const (
	TypeConnect = "connect"
	TypePing    = "ping"
)

// User is a chat participant as described by the server.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Frame is one decoded protocol message.
type Frame struct {
	Type    string `json:"type"`
	User    *User  `json:"user,omitempty"`
	Users   []User `json:"users,omitempty"`
	Content string `json:"content,omitempty"`
	Action  bool   `json:"action,omitempty"`
	Message string `json:"message,omitempty"`

	// Room is the name of the session the frame arrived on. It is set by
	// the receiving session, never by the server.
	Room string `json:"-"`

	// Raw holds the frame exactly as it was received.
	Raw json.RawMessage `json:"-"`
}

// UserName returns the name of the frame's user, or "" if there is none.
func (f *Frame) UserName() string {
	if f.User == nil {
		return ""
	}
	return f.User.Name
}

// UserNames lists the names of a users roster.
func (f *Frame) UserNames() []string {
	names := make([]string, len(f.Users))
	for i, u := range f.Users {
		names[i] = u.Name
	}
	return names
}

// RoomID is a server-side room identifier. Numeric ids are encoded as JSON
// numbers, anything else as a string.
type RoomID string

func (id RoomID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *RoomID) UnmarshalJSON(data []byte) error {
	if strings.HasPrefix(string(data), `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RoomID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = RoomID(n.String())
	return nil
}

// Request is an outbound record.
type Request interface {
	RequestType() string
}

// ConnectRequest asks the server to join a room as the owner of token.
type ConnectRequest struct {
	Type  string `json:"type"`
	Room  RoomID `json:"room"`
	Token string `json:"token"`
}

func (r ConnectRequest) RequestType() string { return r.Type }

// MessageRequest posts content to the room.
type MessageRequest struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func (r MessageRequest) RequestType() string { return r.Type }

// PingRequest keeps the connection alive.
type PingRequest struct {
	Type string `json:"type"`
}

func (r PingRequest) RequestType() string { return r.Type }

func NewConnect(room RoomID, token string) ConnectRequest {
	return ConnectRequest{Type: TypeConnect, Room: room, Token: token}
}

func NewMessage(content string) MessageRequest {
	return MessageRequest{Type: TypeMessage, Content: content}
}

func NewPing() PingRequest {
	return PingRequest{Type: TypePing}
}
