// Package api serves the rendered rain status over HTTP. It exposes the
// current status, a manual refresh trigger and health probes behind a chi
// router with request IDs, structured request logging, panic recovery and
// gzip compression.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzhttp"

	"rainwatch/internal/display"
)

// StatusSource provides the most recent rendered status.
type StatusSource interface {
	Status() display.Status
}

// Refresher starts a refresh cycle without waiting for it.
type Refresher interface {
	Trigger() error
}

// ServerConfig holds the dependencies for creating a Server.
type ServerConfig struct {
	Status         StatusSource
	Refresher      Refresher
	HealthProbes   []HealthProbe
	Logger         *slog.Logger
	RequestTimeout time.Duration
}

// Server is the status API.
type Server struct {
	status         StatusSource
	refresher      Refresher
	probes         []HealthProbe
	logger         *slog.Logger
	requestTimeout time.Duration

	router *chi.Mux
}

// NewServer validates the configuration and mounts all routes.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Status == nil {
		return nil, errors.New("status source must not be nil")
	}
	if cfg.Refresher == nil {
		return nil, errors.New("refresher must not be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	s := &Server{
		status:         cfg.Status,
		refresher:      cfg.Refresher,
		probes:         cfg.HealthProbes,
		logger:         logger,
		requestTimeout: timeout,
		router:         chi.NewRouter(),
	}
	s.mountRoutes()
	return s, nil
}

// Handler returns the router wrapped in gzip compression.
func (s *Server) Handler() http.Handler {
	return gzhttp.GzipHandler(s.router)
}
