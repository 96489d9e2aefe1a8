// Package config defines the configuration of the RainWatch service.
// Configuration is loaded once at startup and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// A missing required value or an invalid format fails startup.
package config

import (
	"log/slog"
	"strings"
	"time"

	"rainwatch/internal/types"
)

// SecretString is an alias for types.SecretString so secrets in configuration
// stay redacted in logs.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Components receive only the
// sub-struct they need.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"rainwatch"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Weather       WeatherConfig
	Location      LocationConfig
	Analysis      AnalysisConfig
	Refresh       RefreshConfig
	Server        ServerConfig
	AWS           AWSConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// WeatherConfig holds the OpenWeatherMap client settings.
type WeatherConfig struct {
	APIKey    SecretString  `envconfig:"OPENWEATHER_API_KEY" validate:"required"`
	BaseURL   string        `envconfig:"OPENWEATHER_BASE_URL" default:"https://api.openweathermap.org/data/2.5" validate:"required,url"`
	Units     string        `envconfig:"OPENWEATHER_UNITS" default:"metric" validate:"oneof=metric imperial standard"`
	Timeout   time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" validate:"gt=0"`
	UserAgent string        `envconfig:"USER_AGENT" default:"RainWatch/1.0"`
}

// LocationConfig selects how the user's position is resolved. In static mode
// Latitude/Longitude are used as-is; in ip mode the GeoIP endpoint is queried
// on every refresh cycle.
type LocationConfig struct {
	Mode      types.LocationMode `envconfig:"LOCATION_MODE" default:"ip" validate:"oneof=static ip"`
	Latitude  float64            `envconfig:"LOCATION_LAT" validate:"gte=-90,lte=90"`
	Longitude float64            `envconfig:"LOCATION_LON" validate:"gte=-180,lte=180"`
	GeoIPURL  string             `envconfig:"GEOIP_URL" default:"http://ip-api.com/json" validate:"required,url"`
}

// AnalysisConfig holds the rain analyzer tunables.
type AnalysisConfig struct {
	LookAheadHours       float64 `envconfig:"RAIN_LOOKAHEAD_HOURS" default:"3" validate:"gt=0,lte=120"`
	ProbabilityThreshold float64 `envconfig:"RAIN_PROBABILITY_THRESHOLD" default:"0.3" validate:"gte=0,lte=1"`
}

// RefreshConfig controls the refresh loop cadence.
type RefreshConfig struct {
	Interval     time.Duration `envconfig:"REFRESH_INTERVAL" default:"15m" validate:"gte=1m"`
	CycleTimeout time.Duration `envconfig:"REFRESH_TIMEOUT" default:"30s" validate:"gt=0"`
}

// ServerConfig holds the status API settings.
type ServerConfig struct {
	Enabled bool   `envconfig:"STATUS_SERVER_ENABLED" default:"true"`
	Port    string `envconfig:"PORT" default:"8080"`
}

// AWSConfig holds AWS regional configuration and optional resource identifiers.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// TransitionQueueURL receives a message whenever the rain state changes.
	// Empty disables publishing.
	TransitionQueueURL string `envconfig:"SQS_TRANSITIONS" validate:"omitempty,url"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"false"`
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"RainWatch"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// SlogLevel converts LogLevel into a slog.Level. Unknown values map to Info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates an environment value could not be parsed.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
