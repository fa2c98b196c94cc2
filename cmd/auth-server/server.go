package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/events"
	"github.com/phrazzld/tasktrack-api/internal/platform/rabbit"
)

// publisherOrNil converts the concrete publisher to the interface without
// producing a non-nil interface around a nil pointer.
func publisherOrNil(p *rabbit.Publisher) events.Publisher {
	if p == nil {
		return nil
	}
	return p
}

// serveHTTP runs the server until the context is cancelled, then shuts
// down gracefully with a bounded drain period.
func serveHTTP(ctx context.Context, port int, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("server shutdown completed")
	return nil
}
