// Package app assembles the RainWatch components from a loaded Config. Both
// the long-running service and the one-shot Lambda check build through here.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"rainwatch/internal/api"
	"rainwatch/internal/config"
	"rainwatch/internal/display"
	"rainwatch/internal/external"
	"rainwatch/internal/queue"
	"rainwatch/internal/rain"
	"rainwatch/internal/refresh"
	"rainwatch/internal/telemetry"
	"rainwatch/internal/types"
	"rainwatch/internal/weather"
)

// Options overrides collaborators that are otherwise built from Config.
type Options struct {
	// Terminal receives the plain-text status; nil disables the terminal sink.
	Terminal io.Writer

	HTTPClient *http.Client
	SQS        queue.SQSSender
	CloudWatch telemetry.CloudWatchClient
	Clock      func() time.Time
}

// App holds the wired components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Loop    *refresh.Loop
	Weather *external.OpenWeatherClient
	Locator external.Locator

	now func() time.Time
}

// Build wires the weather client, locator, sinks, metrics and refresh loop.
// AWS configuration is loaded only when a queue or metrics are enabled and
// no client override was supplied.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	analysis := rain.Config{
		LookAheadHours:       cfg.Analysis.LookAheadHours,
		ProbabilityThreshold: cfg.Analysis.ProbabilityThreshold,
	}
	if err := analysis.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Weather.Timeout}
	}

	owm := external.NewOpenWeatherClient(httpClient, external.OpenWeatherConfig{
		BaseURL:   cfg.Weather.BaseURL,
		APIKey:    cfg.Weather.APIKey,
		Units:     cfg.Weather.Units,
		UserAgent: cfg.Weather.UserAgent,
		Logger:    logger,
	})

	locator, err := newLocator(cfg, httpClient)
	if err != nil {
		return nil, err
	}

	sqsClient, cwClient := opts.SQS, opts.CloudWatch
	needSQS := cfg.AWS.TransitionQueueURL != "" && sqsClient == nil
	needCW := cfg.Observability.EnableMetrics && cwClient == nil
	if needSQS || needCW {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return nil, fmt.Errorf("loading AWS SDK config: %w", err)
		}
		endpoint := cfg.AWS.EndpointURL
		if needSQS {
			sqsClient = sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
				if endpoint != "" {
					o.BaseEndpoint = aws.String(endpoint)
				}
			})
		}
		if needCW {
			cwClient = cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
				if endpoint != "" {
					o.BaseEndpoint = aws.String(endpoint)
				}
			})
		}
	}

	var sinks []refresh.StatusSink
	if opts.Terminal != nil {
		sinks = append(sinks, display.NewTerminalSink(opts.Terminal))
	}
	if cfg.AWS.TransitionQueueURL != "" {
		sinks = append(sinks, queue.NewTransitionPublisher(sqsClient, cfg.AWS.TransitionQueueURL, logger))
	}

	var metrics telemetry.Metrics = telemetry.Noop{}
	if cfg.Observability.EnableMetrics {
		metrics = telemetry.NewCloudWatchMetrics(cwClient, cfg.Observability.MetricNamespace, logger)
	}

	loop := refresh.NewLoop(refresh.LoopConfig{
		Locator:      locator,
		Fetcher:      weather.NewService(owm, logger),
		Sinks:        sinks,
		Analysis:     analysis,
		Interval:     cfg.Refresh.Interval,
		CycleTimeout: cfg.Refresh.CycleTimeout,
		Units:        cfg.Weather.Units,
		Metrics:      metrics,
		Logger:       logger,
		Clock:        opts.Clock,
	})

	logger.Info("rainwatch components wired",
		"location_mode", string(cfg.Location.Mode),
		"units", cfg.Weather.Units,
		"lookahead_hours", analysis.LookAheadHours,
		"probability_threshold", analysis.ProbabilityThreshold,
		"transitions_enabled", cfg.AWS.TransitionQueueURL != "",
		"metrics_enabled", cfg.Observability.EnableMetrics,
	)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Loop:    loop,
		Weather: owm,
		Locator: locator,
		now:     opts.Clock,
	}, nil
}

func newLocator(cfg *config.Config, httpClient *http.Client) (external.Locator, error) {
	switch cfg.Location.Mode {
	case types.LocationModeStatic:
		loc := types.Location{Lat: cfg.Location.Latitude, Lon: cfg.Location.Longitude}
		if err := loc.Validate(); err != nil {
			return nil, fmt.Errorf("invalid static location: %w", err)
		}
		return external.StaticLocator{Location: loc}, nil
	case types.LocationModeIP, "":
		return external.NewIPLocator(httpClient, cfg.Location.GeoIPURL, cfg.Weather.UserAgent), nil
	default:
		return nil, fmt.Errorf("unknown location mode %q", cfg.Location.Mode)
	}
}

// HealthProbes returns the status API probes: refresh freshness plus one
// breaker probe per upstream client.
func (a *App) HealthProbes() []api.HealthProbe {
	probes := []api.HealthProbe{
		api.FreshnessProbe{
			LastSuccess: a.Loop.LastSuccess,
			MaxAge:      2*a.Config.Refresh.Interval + a.Config.Refresh.CycleTimeout,
			Now:         a.now,
		},
		api.BreakerProbe{Client: a.Weather.Base()},
	}
	if ip, ok := a.Locator.(*external.IPLocator); ok {
		probes = append(probes, api.BreakerProbe{Client: ip.Base()})
	}
	return probes
}

// NewServer builds the status API over the loop.
func (a *App) NewServer() (*api.Server, error) {
	return api.NewServer(api.ServerConfig{
		Status:       a.Loop,
		Refresher:    a.Loop,
		HealthProbes: a.HealthProbes(),
		Logger:       a.Logger,
	})
}
