package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// healthCheckTimeout bounds all probes together.
const healthCheckTimeout = 2 * time.Second

// HealthProbe is one health check reported under /health.
type HealthProbe interface {
	Name() string
	Check(ctx context.Context) error
}

type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

// HandleHealth runs all probes concurrently and returns 200 if every probe
// passes, or 503 if any fails, panics, or misses the deadline.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if len(s.probes) == 0 {
		JSON(w, r, http.StatusOK, healthResponse{Status: "healthy"})
		return
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]error, len(s.probes))
	)
	for _, probe := range s.probes {
		wg.Add(1)
		go func(p HealthProbe) {
			defer wg.Done()

			var err error
			func() {
				defer func() {
					if rvr := recover(); rvr != nil {
						err = fmt.Errorf("probe panicked: %v", rvr)
					}
				}()
				err = p.Check(ctx)
			}()

			mu.Lock()
			results[p.Name()] = err
			mu.Unlock()
		}(probe)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	mu.Lock()
	defer mu.Unlock()

	resp := healthResponse{Status: "healthy", Components: make(map[string]componentStatus, len(s.probes))}
	for _, probe := range s.probes {
		name := probe.Name()
		err, ok := results[name]
		switch {
		case !ok:
			resp.Status = "unhealthy"
			resp.Components[name] = componentStatus{Status: "unhealthy", Message: "health check timed out"}
		case err != nil:
			resp.Status = "unhealthy"
			resp.Components[name] = componentStatus{Status: "unhealthy", Message: err.Error()}
		default:
			resp.Components[name] = componentStatus{Status: "healthy"}
		}
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	JSON(w, r, status, resp)
}

// FreshnessProbe fails when the last successful refresh is older than
// MaxAge, or when no refresh has succeeded yet.
type FreshnessProbe struct {
	LastSuccess func() time.Time
	MaxAge      time.Duration
	Now         func() time.Time
}

func (p FreshnessProbe) Name() string { return "refresh" }

func (p FreshnessProbe) Check(context.Context) error {
	last := p.LastSuccess()
	if last.IsZero() {
		return fmt.Errorf("no successful refresh yet")
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	if age := now().Sub(last); age > p.MaxAge {
		return fmt.Errorf("last successful refresh %s ago exceeds %s", age.Truncate(time.Second), p.MaxAge)
	}
	return nil
}

// BreakerStater is satisfied by *external.BaseClient.
type BreakerStater interface {
	BreakerName() string
	BreakerState() gobreaker.State
}

// BreakerProbe fails while the upstream circuit breaker is open.
type BreakerProbe struct {
	Client BreakerStater
}

func (p BreakerProbe) Name() string { return "breaker_" + p.Client.BreakerName() }

func (p BreakerProbe) Check(context.Context) error {
	if state := p.Client.BreakerState(); state == gobreaker.StateOpen {
		return fmt.Errorf("circuit breaker is %s", state)
	}
	return nil
}
