package server

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// shutdownTimeout bounds the graceful shutdown of the HTTP server and the app.
const shutdownTimeout = 10 * time.Second

// Start runs the HTTP server on addr until ctx is done or an interrupt or
// terminate signal arrives, then shuts down the server and the app.
func (s *Server) Start(ctx context.Context, addr string) error {
	ctx, stop := withShutdownSignals(ctx)
	defer stop()

	if err := s.App.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger().Info("HTTP server listening", "addr", addr)
		if err := s.E.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		s.logger().Info("Shutting down")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	return errors.Join(serveErr, s.E.Shutdown(shutdownCtx), s.App.Close(shutdownCtx))
}
