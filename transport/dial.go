package transport

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"

	"github.com/shazow/rateio"
)

// Dialer opens the transport for one room session.
type Dialer interface {
	Dial(ctx context.Context) (net.Conn, error)
}

// DialerFunc adapts a function into a Dialer.
type DialerFunc func(ctx context.Context) (net.Conn, error)

func (f DialerFunc) Dial(ctx context.Context) (net.Conn, error) {
	return f(ctx)
}

// TLSDialer dials the chat service over TLS.
type TLSDialer struct {
	// Addr is host:port of the chat service.
	Addr string
	// Config is cloned for each connection, may be nil.
	Config *tls.Config
	// RateLimit returns a fresh limiter for the inbound side of each
	// connection, may be nil.
	RateLimit func() rateio.Limiter
}

// NewTLSDialer returns a TLS dialer for host and port.
func NewTLSDialer(host string, port int, config *tls.Config) *TLSDialer {
	return &TLSDialer{
		Addr:   net.JoinHostPort(host, strconv.Itoa(port)),
		Config: config,
	}
}

// Dial connects and completes the TLS handshake before returning.
func (d *TLSDialer) Dial(ctx context.Context) (net.Conn, error) {
	var config *tls.Config
	if d.Config != nil {
		config = d.Config.Clone()
	}
	dialer := tls.Dialer{Config: config}
	conn, err := dialer.DialContext(ctx, "tcp", d.Addr)
	if err != nil {
		return nil, err
	}
	logger.Printf("Connected to %s", d.Addr)

	if d.RateLimit != nil {
		conn = ReadLimitConn(conn, d.RateLimit())
	}
	return conn, nil
}
