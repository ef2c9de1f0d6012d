package room

import (
	"time"

	"github.com/riovv/TalkerTexasRanger/protocol"
)

// DefaultPingInterval leaves plenty of margin below the server's 30 second
// liveness timeout.
const DefaultPingInterval = 14 * time.Second

// MaxPingInterval is the server's liveness timeout. Intervals must be
// strictly below it.
const MaxPingInterval = 30 * time.Second

type keepAlive struct {
	stop chan struct{}
	done chan struct{}
}

// startKeepAlive pings s every interval until stopped or a write fails.
func startKeepAlive(s *Session, interval time.Duration) *keepAlive {
	k := &keepAlive{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(k.done)
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				if err := s.Write(protocol.NewPing()); err != nil {
					logger.Printf("[%s] Keepalive stopped: %v", s.Name, err)
					return
				}
			case <-k.stop:
				return
			}
		}
	}()
	return k
}

// Stop blocks until the keepalive goroutine has exited.
func (k *keepAlive) Stop() {
	close(k.stop)
	<-k.done
}
