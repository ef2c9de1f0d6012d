package command

import (
	"io"
	stdlog "log"
)

var logger *stdlog.Logger

// SetLogger changes the logger used for logging inside the package
func SetLogger(w io.Writer) {
	flags := stdlog.Flags()
	prefix := "[command] "
	logger = stdlog.New(w, prefix, flags)
}

func init() {
	SetLogger(io.Discard)
}
