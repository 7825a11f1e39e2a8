package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a context that is cancelled on the first
// SIGINT or SIGTERM. A second signal terminates the process immediately
// once stop has been called.
func SetupSignalHandler() (context.Context, context.CancelFunc) {
	return SetupSignalHandlerFrom(context.Background())
}

// SetupSignalHandlerFrom is SetupSignalHandler with an explicit parent.
func SetupSignalHandlerFrom(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
