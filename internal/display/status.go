// Package display turns a rain verdict and the current conditions into the
// user-facing status: one of three rain states (or an error state), each
// with its own headline, detail line and theme class.
package display

import (
	"time"

	"rainwatch/internal/types"
)

// State is the UI state shown to the user.
type State string

const (
	StateLoading  State = "loading"
	StateRaining  State = "raining"
	StateRainSoon State = "rain-soon"
	StateClear    State = "clear"
	StateError    State = "error"
)

// Theme returns the CSS-style theme class for the state. Loading and error
// states carry no theme.
func (s State) Theme() string {
	switch s {
	case StateRaining, StateRainSoon, StateClear:
		return "state-" + string(s)
	default:
		return ""
	}
}

// StateFor maps a verdict kind onto its display state.
func StateFor(kind types.VerdictKind) State {
	switch kind {
	case types.VerdictRainingNow:
		return StateRaining
	case types.VerdictRainSoon:
		return StateRainSoon
	default:
		return StateClear
	}
}

// Conditions is the formatted current-conditions block.
type Conditions struct {
	Temperature string `json:"temperature"`
	FeelsLike   string `json:"feels_like"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url,omitempty"`
	Humidity    string `json:"humidity"`
	Wind        string `json:"wind"`
}

// Status is a fully rendered display.
type Status struct {
	State       State              `json:"state"`
	Theme       string             `json:"theme,omitempty"`
	Headline    string             `json:"headline"`
	Detail      string             `json:"detail"`
	Location    string             `json:"location,omitempty"`
	Conditions  *Conditions        `json:"conditions,omitempty"`
	Verdict     *types.RainVerdict `json:"verdict,omitempty"`
	LastUpdated string             `json:"last_updated,omitempty"`
	UpdatedAt   time.Time          `json:"updated_at,omitzero"`
	Error       string             `json:"error,omitempty"`
}

// IsRendered reports whether the status carries a verdict, i.e. a good
// render happened at least once.
func (s Status) IsRendered() bool {
	return s.Verdict != nil
}

// Loading is the status shown before the first cycle completes.
func Loading() Status {
	return Status{
		State:    StateLoading,
		Headline: "Checking the sky",
		Detail:   "Fetching your location and the latest forecast.",
	}
}
