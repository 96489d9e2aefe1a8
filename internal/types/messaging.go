package types

import "time"

// TransitionMessage is the SQS payload emitted when the rendered rain state
// changes between refresh cycles.
type TransitionMessage struct {
	MessageID string      `json:"message_id"`
	TraceID   string      `json:"trace_id"`
	Previous  VerdictKind `json:"previous,omitempty"`
	Current   VerdictKind `json:"current"`
	RainAt    *time.Time  `json:"rain_at,omitempty"`
	Intensity Intensity   `json:"intensity,omitempty"`
	Location  string      `json:"location"`
	Headline  string      `json:"headline"`
	EmittedAt time.Time   `json:"emitted_at"`
}
