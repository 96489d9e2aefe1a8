package refresh

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rainwatch/internal/display"
	"rainwatch/internal/rain"
	"rainwatch/internal/telemetry"
	"rainwatch/internal/types"
)

type stage string

const (
	stageLocate stage = "geolocation"
	stageFetch  stage = "weather"
)

// cycle runs one refresh. The caller holds the semaphore.
func (l *Loop) cycle(ctx context.Context) error {
	cycleID := uuid.NewString()
	logger := l.logger.With("cycle_id", cycleID)
	ctx = types.WithLogger(types.WithRequestID(ctx, cycleID), logger)

	if l.cycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cycleTimeout)
		defer cancel()
	}

	start := l.now()
	l.mu.Lock()
	l.lastAttempt = start
	l.mu.Unlock()

	loc, err := l.locator.Locate(ctx)
	if err != nil {
		l.fail(ctx, stageLocate, err, start)
		return err
	}

	snap, err := l.fetcher.Fetch(ctx, loc)
	if err != nil {
		l.fail(ctx, stageFetch, err, start)
		return err
	}

	now := l.now()
	verdict := rain.Analyze(snap.Current, snap.Forecast, now, l.analysis)
	st := display.Render(display.Input{
		Current:        snap.Current,
		Verdict:        verdict,
		LookAheadHours: l.analysis.LookAheadHours,
		Units:          l.units,
		Now:            now,
		Zone:           l.zone,
	})

	l.mu.Lock()
	l.status = st
	l.lastSuccess = now
	l.mu.Unlock()

	logger.InfoContext(ctx, "refresh complete",
		"verdict", string(verdict.Kind),
		"intensity", string(verdict.Intensity),
		"location", st.Location,
		"samples", len(snap.Forecast),
	)

	l.metrics.RecordRefresh(ctx, telemetry.ResultSuccess, l.now().Sub(start))
	l.metrics.RecordVerdict(ctx, verdict.Kind)
	l.publish(ctx, st)
	return nil
}

// fail applies the last-known-good policy. Without a prior good render the
// error replaces the display. Otherwise a weather failure only annotates
// the last-updated stamp, and a geolocation failure leaves it untouched.
func (l *Loop) fail(ctx context.Context, stg stage, err error, start time.Time) {
	logger := types.LoggerFromContext(ctx)
	now := l.now()

	l.metrics.RecordUpstreamFailure(ctx, string(stg))
	l.metrics.RecordRefresh(ctx, telemetry.ResultFailure, now.Sub(start))

	l.mu.Lock()
	prev := l.status
	var next display.Status
	changed := true
	switch {
	case !prev.IsRendered():
		next = display.ErrorStatus(err, now)
		logger.ErrorContext(ctx, "refresh failed", "stage", string(stg), "error", err)
	case stg == stageFetch:
		next = display.MarkStale(prev, now, l.zone)
		logger.WarnContext(ctx, "weather fetch error during refresh; keeping last display", "error", err)
	default:
		next = prev
		changed = false
		logger.WarnContext(ctx, "geolocation error during refresh", "error", err)
	}
	l.status = next
	l.mu.Unlock()

	if changed {
		l.publish(ctx, next)
	}
}

func (l *Loop) publish(ctx context.Context, st display.Status) {
	for _, sink := range l.sinks {
		if err := sink.Publish(ctx, st); err != nil {
			types.LoggerFromContext(ctx).WarnContext(ctx, "status sink failed",
				"state", string(st.State),
				"error", err,
			)
		}
	}
}
