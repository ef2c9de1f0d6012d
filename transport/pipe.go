package transport

import (
	"context"
	"net"
)

// Pipe is an in-memory Dialer. Every Dial creates a net.Pipe and hands the
// far end to the Accept channel, used for testing.
type Pipe struct {
	accept chan net.Conn
}

// NewPipe creates a Pipe dialer.
func NewPipe() *Pipe {
	return &Pipe{
		accept: make(chan net.Conn),
	}
}

// Dial blocks until the far end is accepted or ctx is done.
func (p *Pipe) Dial(ctx context.Context) (net.Conn, error) {
	client, server := net.Pipe()
	select {
	case p.accept <- server:
		return client, nil
	case <-ctx.Done():
		client.Close()
		server.Close()
		return nil, ctx.Err()
	}
}

// Accept yields the server side of each dialed connection.
func (p *Pipe) Accept() <-chan net.Conn {
	return p.accept
}
