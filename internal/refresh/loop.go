// Package refresh drives the periodic geolocate, fetch, analyze and render
// cycle. Cycles never overlap: a tick or manual trigger that arrives while
// one is running is skipped.
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"rainwatch/internal/display"
	"rainwatch/internal/external"
	"rainwatch/internal/rain"
	"rainwatch/internal/telemetry"
	"rainwatch/internal/types"
	"rainwatch/internal/weather"
)

// ErrRefreshInFlight is returned by RefreshNow and Trigger when a cycle is
// already running.
var ErrRefreshInFlight = types.NewAppError(types.ErrCodeConflictRefreshInFlight, "a refresh is already in progress", nil)

// ErrLoopStopped is returned by Trigger once the context passed to Run is
// done.
var ErrLoopStopped = types.NewAppError(types.ErrCodeUnavailableShuttingDown, "the refresh loop is shutting down", nil)

// Fetcher retrieves the weather snapshot for a location.
type Fetcher interface {
	Fetch(ctx context.Context, loc types.Location) (*weather.Snapshot, error)
}

// StatusSink receives every status the loop produces.
type StatusSink interface {
	Publish(ctx context.Context, st display.Status) error
}

// LoopConfig holds the dependencies for creating a Loop.
type LoopConfig struct {
	Locator  external.Locator
	Fetcher  Fetcher
	Sinks    []StatusSink
	Analysis rain.Config
	Interval time.Duration
	// CycleTimeout bounds one cycle; zero means no limit.
	CycleTimeout time.Duration
	Units        string
	Zone         *time.Location
	Metrics      telemetry.Metrics
	Logger       *slog.Logger
	Clock        func() time.Time
}

// Loop owns the current display status.
type Loop struct {
	locator      external.Locator
	fetcher      Fetcher
	sinks        []StatusSink
	analysis     rain.Config
	interval     time.Duration
	cycleTimeout time.Duration
	units        string
	zone         *time.Location
	metrics      telemetry.Metrics
	logger       *slog.Logger
	now          func() time.Time

	sem *semaphore.Weighted
	wg  sync.WaitGroup

	mu          sync.RWMutex
	status      display.Status
	lastSuccess time.Time
	lastAttempt time.Time
	baseCtx     context.Context
	// stopped is set once Run stops accepting background cycles; wg.Add
	// only happens under mu while it is false.
	stopped bool
}

// NewLoop creates a Loop in the loading state.
func NewLoop(cfg LoopConfig) *Loop {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.Noop{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	analysis := cfg.Analysis
	if analysis == (rain.Config{}) {
		analysis = rain.DefaultConfig()
	}
	zone := cfg.Zone
	if zone == nil {
		zone = time.Local
	}
	return &Loop{
		locator:      cfg.Locator,
		fetcher:      cfg.Fetcher,
		sinks:        cfg.Sinks,
		analysis:     analysis,
		interval:     cfg.Interval,
		cycleTimeout: cfg.CycleTimeout,
		units:        cfg.Units,
		zone:         zone,
		metrics:      metrics,
		logger:       logger,
		now:          clock,
		sem:          semaphore.NewWeighted(1),
		status:       display.Loading(),
		baseCtx:      context.Background(),
	}
}

// Run performs an initial cycle immediately and then one per interval until
// ctx is done. A failed initial cycle does not stop the loop. Run waits for
// any cycle started by Trigger before returning.
func (l *Loop) Run(ctx context.Context) error {
	if l.interval <= 0 {
		return errors.New("refresh: interval must be positive")
	}

	l.mu.Lock()
	l.baseCtx = ctx
	l.mu.Unlock()

	l.logger.InfoContext(ctx, "refresh loop started", "interval", l.interval.String())

	l.tick(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.stopped = true
			l.mu.Unlock()
			l.wg.Wait()
			l.logger.Info("refresh loop stopped")
			return nil
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// RefreshNow runs one cycle synchronously and returns its error. It returns
// ErrRefreshInFlight without waiting if a cycle is already running.
func (l *Loop) RefreshNow(ctx context.Context) error {
	if !l.sem.TryAcquire(1) {
		l.metrics.RecordRefresh(ctx, telemetry.ResultSkipped, 0)
		return ErrRefreshInFlight
	}
	defer l.sem.Release(1)
	return l.cycle(ctx)
}

// Trigger starts a cycle in the background. The cycle runs under the
// context passed to Run rather than the caller's, so it survives the end
// of an HTTP request. Once that context is done Trigger returns
// ErrLoopStopped and starts nothing.
func (l *Loop) Trigger() error {
	if !l.sem.TryAcquire(1) {
		l.metrics.RecordRefresh(context.Background(), telemetry.ResultSkipped, 0)
		return ErrRefreshInFlight
	}

	l.mu.Lock()
	ctx := l.baseCtx
	if l.stopped || ctx.Err() != nil {
		l.mu.Unlock()
		l.sem.Release(1)
		return ErrLoopStopped
	}
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		defer l.sem.Release(1)
		_ = l.cycle(ctx)
	}()
	return nil
}

// Status returns the most recent display status.
func (l *Loop) Status() display.Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

// LastSuccess returns when the last cycle succeeded; zero if none has.
func (l *Loop) LastSuccess() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastSuccess
}

// LastAttempt returns when the last cycle started; zero if none has.
func (l *Loop) LastAttempt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastAttempt
}

// Interval returns the configured refresh interval.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

func (l *Loop) tick(ctx context.Context) {
	if !l.sem.TryAcquire(1) {
		l.logger.DebugContext(ctx, "refresh skipped; cycle in flight")
		l.metrics.RecordRefresh(ctx, telemetry.ResultSkipped, 0)
		return
	}
	defer l.sem.Release(1)
	_ = l.cycle(ctx)
}
