package room

// State of a session's connection.
type State int

const (
	// Connecting is the transport handshake.
	Connecting State = iota
	// Authorizing waits for the server to accept the connect request.
	Authorizing
	// Authorized is the steady state.
	Authorized
	// Failed is set when the session ends on an error, right before Closed.
	Failed
	// Closed is terminal.
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Authorizing:
		return "authorizing"
	case Authorized:
		return "authorized"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Terminal reports whether no more frames will be sent or received.
func (s State) Terminal() bool {
	return s == Failed || s == Closed
}
