// Package main is the entrypoint for the Rain Check Lambda function.
//
// An EventBridge schedule invokes it to run a single refresh cycle: locate,
// fetch, analyze and publish the verdict to the transition queue. The
// container keeps the wired loop between warm invocations, so transitions
// are detected across calls that land on the same instance.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"rainwatch/internal/app"
	"rainwatch/internal/config"
	"rainwatch/internal/display"
	"rainwatch/internal/types"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("RainCheck Lambda initializing (cold start)")

	cfg, err := config.LoadConfig(config.NewSSMProvider(os.Getenv("AWS_REGION")))
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	a, err := app.Build(context.Background(), cfg, logger, app.Options{})
	if err != nil {
		logger.Error("failed to wire components", "error", err)
		os.Exit(1)
	}

	logger.Info("RainCheck Lambda initialized",
		"location_mode", string(cfg.Location.Mode),
		"transition_queue", cfg.AWS.TransitionQueueURL,
	)

	lambda.Start(newHandler(a.Loop, logger))
}

// checker is satisfied by *refresh.Loop.
type checker interface {
	RefreshNow(ctx context.Context) error
	Status() display.Status
}

// CheckResult summarizes one cycle for the invocation response.
type CheckResult struct {
	State     display.State     `json:"state"`
	Verdict   types.VerdictKind `json:"verdict,omitempty"`
	RainAt    *time.Time        `json:"rain_at,omitempty"`
	Intensity types.Intensity   `json:"intensity,omitempty"`
	Headline  string            `json:"headline"`
	Detail    string            `json:"detail"`
	Location  string            `json:"location,omitempty"`
}

// newHandler wraps RefreshNow. A failed cycle fails the invocation so the
// scheduler's retry and alarm policy applies.
func newHandler(c checker, logger *slog.Logger) func(ctx context.Context, event events.CloudWatchEvent) (CheckResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, event events.CloudWatchEvent) (CheckResult, error) {
		logger.InfoContext(ctx, "RainCheck handler invoked",
			"event_id", event.ID,
			"event_time", event.Time,
		)

		if err := c.RefreshNow(ctx); err != nil {
			logger.ErrorContext(ctx, "rain check failed", "error", err)
			return CheckResult{}, fmt.Errorf("rain check failed: %w", err)
		}

		result := summarize(c.Status())
		logger.InfoContext(ctx, "rain check complete",
			"state", string(result.State),
			"headline", result.Headline,
		)
		return result, nil
	}
}

func summarize(st display.Status) CheckResult {
	result := CheckResult{
		State:    st.State,
		Headline: st.Headline,
		Detail:   st.Detail,
		Location: st.Location,
	}
	if v := st.Verdict; v != nil {
		result.Verdict = v.Kind
		if v.IsRainSoon() {
			at := v.Time
			result.RainAt = &at
			result.Intensity = v.Intensity
		}
	}
	return result
}
