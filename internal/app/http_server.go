package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/specialistvlad/flowsim/internal/ctxlog"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// startHTTPServer binds the listen address and serves the API in the
// background. Serve errors other than a clean shutdown are sent on errc.
func (app *App) startHTTPServer(errc chan<- error) error {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Configuring HTTP server.")

	ln, err := net.Listen("tcp", app.model.Server.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", app.model.Server.Listen, err)
	}

	app.httpServer = &http.Server{
		Handler:           app.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts carry the app logger into intake and analysis.
		BaseContext: func(net.Listener) context.Context { return app.ctx },
	}
	addr := ln.Addr().String()
	app.addr <- addr

	go func() {
		logger.Info("🌐 HTTP server starting", "address", fmt.Sprintf("http://%s", addr), "health", fmt.Sprintf("http://%s/health", addr))
		// Serve returns ErrServerClosed on graceful shutdown.
		if err := app.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed unexpectedly", "error", err)
			errc <- err
		}
	}()
	return nil
}

func (app *App) closeHTTPServer() error {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Closing HTTP server...")

	if app.httpServer == nil {
		logger.Debug("HTTP server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Long-lived SSE and socket.io connections only end once the transports
	// are closed.
	if err := app.server.Close(ctx); err != nil {
		logger.Warn("Server transports did not close cleanly", "error", err)
	}

	logger.Info("🌐 Shutting down HTTP server...")
	if err := app.httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
		return err
	}

	logger.Debug("HTTP server shut down gracefully.")
	return nil
}
