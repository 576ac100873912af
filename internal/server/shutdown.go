package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// withShutdownSignals returns a context cancelled on an interrupt or terminate signal.
func withShutdownSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
