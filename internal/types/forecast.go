package types

import "time"

// ForecastSample is one bucket of the short-range forecast feed.
//
// PrecipitationProbability is a fraction in [0,1]; a missing upstream value
// decodes as 0. PrecipitationVolumeMm3h is nil when the feed carries no rain
// volume for the bucket.
type ForecastSample struct {
	Timestamp                int64              `json:"timestamp"`
	PrecipitationProbability float64            `json:"precipitation_probability"`
	Conditions               []WeatherCondition `json:"conditions"`
	PrecipitationVolumeMm3h  *float64           `json:"precipitation_volume_mm_3h,omitempty"`
}

// Time returns the sample timestamp as a UTC time.Time.
func (s ForecastSample) Time() time.Time {
	return time.Unix(s.Timestamp, 0).UTC()
}

// RainVerdict is the tagged result of a rain analysis. Exactly one of the
// three variants is represented; Time and Intensity are only meaningful for
// VerdictRainSoon.
type RainVerdict struct {
	Kind      VerdictKind `json:"kind"`
	Time      time.Time   `json:"time,omitzero"`
	Intensity Intensity   `json:"intensity,omitempty"`
}

// RainingNow returns the verdict for rain at the current location.
func RainingNow() RainVerdict {
	return RainVerdict{Kind: VerdictRainingNow}
}

// RainSoon returns the verdict for a rain event starting at t.
func RainSoon(t time.Time, intensity Intensity) RainVerdict {
	return RainVerdict{Kind: VerdictRainSoon, Time: t, Intensity: intensity}
}

// Clear returns the verdict for no rain within the look-ahead window.
func Clear() RainVerdict {
	return RainVerdict{Kind: VerdictClear}
}

// IsRainingNow reports whether the verdict is the RainingNow variant.
func (v RainVerdict) IsRainingNow() bool { return v.Kind == VerdictRainingNow }

// IsRainSoon reports whether the verdict is the RainSoon variant.
func (v RainVerdict) IsRainSoon() bool { return v.Kind == VerdictRainSoon }

// IsClear reports whether the verdict is the Clear variant.
func (v RainVerdict) IsClear() bool { return v.Kind == VerdictClear }
