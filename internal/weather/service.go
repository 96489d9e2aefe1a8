// Package weather fetches current conditions and the short-range forecast for
// a location and converts the provider documents into domain types.
package weather

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"rainwatch/internal/external"
	"rainwatch/internal/types"
)

// Provider is the upstream contract satisfied by *external.OpenWeatherClient.
type Provider interface {
	Current(ctx context.Context, loc types.Location) (*external.CurrentWeatherResponse, error)
	Forecast(ctx context.Context, loc types.Location) (*external.ForecastResponse, error)
}

// Snapshot is the result of one successful fetch.
type Snapshot struct {
	Location  types.Location
	Current   types.CurrentConditions
	Forecast  []types.ForecastSample
	FetchedAt time.Time
}

// Service issues the current and forecast requests for a refresh cycle.
type Service struct {
	provider Provider
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a Service. A nil logger falls back to slog.Default().
func NewService(provider Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// Fetch requests current conditions and the forecast concurrently and waits
// for both. If either request fails the snapshot is discarded; when both fail
// the returned error joins the two so neither message is lost.
func (s *Service) Fetch(ctx context.Context, loc types.Location) (*Snapshot, error) {
	var (
		current                 *external.CurrentWeatherResponse
		forecast                *external.ForecastResponse
		currentErr, forecastErr error
	)

	// Neither goroutine returns its error to the group: a failure in one
	// must not cancel the other, or its message would be replaced by
	// context.Canceled.
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		current, currentErr = s.provider.Current(gCtx, loc)
		return nil
	})
	g.Go(func() error {
		forecast, forecastErr = s.provider.Forecast(gCtx, loc)
		return nil
	})
	_ = g.Wait()

	if err := errors.Join(currentErr, forecastErr); err != nil {
		s.logger.WarnContext(ctx, "weather fetch failed",
			"request_id", types.GetRequestID(ctx),
			"current_ok", currentErr == nil,
			"forecast_ok", forecastErr == nil,
			"error", err,
		)
		return nil, err
	}

	snap := &Snapshot{
		Location:  loc,
		Current:   MapCurrent(current),
		Forecast:  MapForecast(forecast),
		FetchedAt: s.now(),
	}

	s.logger.DebugContext(ctx, "weather fetched",
		"request_id", types.GetRequestID(ctx),
		"location", snap.Current.LocationName,
		"samples", len(snap.Forecast),
	)
	return snap, nil
}
