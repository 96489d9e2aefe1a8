// Package rain decides whether it is raining at the user's position or whether
// rain is expected within a short look-ahead window.
//
// Analyze is a pure function of its inputs: it holds no state, performs no I/O
// and never blocks, so it may be called concurrently without coordination.
package rain

import (
	"fmt"
	"time"

	"rainwatch/internal/types"
)

// Default analysis parameters.
const (
	DefaultLookAheadHours       = 3.0
	DefaultProbabilityThreshold = 0.3
)

// Config holds the tunables of the forecast scan.
type Config struct {
	// LookAheadHours bounds the window (now, now+LookAheadHours] in which an
	// upcoming event counts as "soon".
	LookAheadHours float64

	// ProbabilityThreshold is the minimum POP (inclusive) for a rainy sample
	// to qualify.
	ProbabilityThreshold float64
}

// DefaultConfig returns the standard 3 hour / 30% configuration.
func DefaultConfig() Config {
	return Config{
		LookAheadHours:       DefaultLookAheadHours,
		ProbabilityThreshold: DefaultProbabilityThreshold,
	}
}

// Window returns the look-ahead duration.
func (c Config) Window() time.Duration {
	return time.Duration(c.LookAheadHours * float64(time.Hour))
}

// Validate rejects a non-positive window and a threshold outside [0, 1].
func (c Config) Validate() error {
	if c.LookAheadHours <= 0 {
		return types.NewAppError(types.ErrCodeValidationLookAhead,
			fmt.Sprintf("look-ahead must be positive, got %g hours", c.LookAheadHours), nil)
	}
	if c.ProbabilityThreshold < 0 || c.ProbabilityThreshold > 1 {
		return types.NewAppError(types.ErrCodeValidationThresholdRange,
			fmt.Sprintf("probability threshold %g out of range [0, 1]", c.ProbabilityThreshold), nil)
	}
	return nil
}

// Analyze produces the rain verdict for a current-conditions reading and a
// forecast sorted ascending by timestamp.
//
// Current rain dominates the forecast. Otherwise the first in-window sample
// that is rainy and meets the probability threshold wins; later samples are
// never consulted, even if heavier. Samples must be time-ordered: the scan
// stops at the first sample past the window boundary.
func Analyze(current types.CurrentConditions, samples []types.ForecastSample, now time.Time, cfg Config) types.RainVerdict {
	if IsRainingNow(current) {
		return types.RainingNow()
	}

	windowEnd := now.Add(cfg.Window())
	for _, sample := range samples {
		ts := sample.Time()
		if ts.After(windowEnd) {
			break
		}
		if !ts.After(now) {
			continue
		}
		if !IsRainyClassification(sample) {
			continue
		}
		if sample.PrecipitationProbability < cfg.ProbabilityThreshold {
			continue
		}
		return types.RainSoon(ts, IntensityOf(sample))
	}

	return types.Clear()
}

// IntensityOf derives the qualitative intensity of a rainy sample. Rain volume
// takes precedence; without it a thunderstorm category yields
// PossibleThunderstorms and anything else falls back to Light.
func IntensityOf(sample types.ForecastSample) types.Intensity {
	if sample.PrecipitationVolumeMm3h != nil {
		switch vol := *sample.PrecipitationVolumeMm3h; {
		case vol < 1:
			return types.IntensityLight
		case vol < 5:
			return types.IntensityModerate
		default:
			return types.IntensityHeavy
		}
	}
	for _, cond := range sample.Conditions {
		if matchesThunderstorm(cond.Category) {
			return types.IntensityPossibleThunderstorms
		}
	}
	return types.IntensityLight
}
