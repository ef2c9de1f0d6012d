package ranger

import (
	"io"

	"github.com/alexcesaro/log"
	"github.com/alexcesaro/log/golog"
)

var logger *golog.Logger

// SetLogger changes the logger used by the client.
func SetLogger(l *golog.Logger) {
	logger = l
}

func init() {
	// Set a default null logger
	logger = golog.New(io.Discard, log.Debug)
}
