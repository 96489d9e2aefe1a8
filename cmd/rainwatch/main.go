// Package main is the entry point for the RainWatch service.
//
// It loads configuration, wires the refresh loop, prints every status to the
// terminal and, when enabled, serves the status API. The loop refreshes on
// REFRESH_INTERVAL until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"rainwatch/internal/app"
	"rainwatch/internal/config"
)

// shutdownTimeout bounds the HTTP server drain on exit.
const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig(config.NewSSMProvider(os.Getenv("AWS_REGION")))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.SlogLevel())
	logger.Info("rainwatch starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"refresh_interval", cfg.Refresh.Interval.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger, app.Options{Terminal: os.Stdout})
	if err != nil {
		return fmt.Errorf("wiring components: %w", err)
	}

	var handler http.Handler
	if cfg.Server.Enabled {
		srv, err := a.NewServer()
		if err != nil {
			return fmt.Errorf("creating status server: %w", err)
		}
		handler = srv.Handler()
	}

	return serve(ctx, a.Loop, handler, ":"+cfg.Server.Port, logger)
}

// loopRunner is satisfied by *refresh.Loop.
type loopRunner interface {
	Run(ctx context.Context) error
}

// serve runs the loop and, if handler is non-nil, an HTTP server on addr.
// Both stop when ctx is done; a server failure cancels the loop.
func serve(ctx context.Context, loop loopRunner, handler http.Handler, addr string, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return loop.Run(gctx)
	})

	if handler != nil {
		httpServer := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		g.Go(func() error {
			logger.Info("HTTP server listening", "addr", addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			logger.Info("initiating graceful shutdown")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("rainwatch stopped cleanly")
	return nil
}

// newLogger creates a JSON slog.Logger at the given level. Logs go to stderr
// because stdout carries the terminal status.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
