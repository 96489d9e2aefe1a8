package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"rainwatch/internal/types"
)

const defaultRequestTimeout = 10 * time.Second

// mountRoutes registers middleware in order: Recoverer (outermost, catches
// all panics), ContextTimeout, RequestID, then RequestLogger so log lines
// carry the request ID.
func (s *Server) mountRoutes() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(s.requestTimeout))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLogger(s.logger))

	s.router.Get("/status", s.handleStatus)
	s.router.Post("/refresh", s.handleRefresh)
	s.router.Get("/health", s.HandleHealth)
}

// ContextTimeoutMiddleware sets a deadline on the request context.
func ContextTimeoutMiddleware(duration time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), duration)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDMiddleware reuses an incoming X-Request-Id or generates a UUID,
// stores it in the context and echoes it in the response header.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := types.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
