package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"rainwatch/internal/types"
)

const (
	currentWeatherPath = "/weather"
	forecastPath       = "/forecast"

	currentLabel  = "Current Weather"
	forecastLabel = "Forecast"

	// maxErrorBody caps how much of a failed response is read for its message.
	maxErrorBody = 4 << 10
)

// OpenWeatherConfig holds the parameters needed to construct an OpenWeatherClient.
type OpenWeatherConfig struct {
	BaseURL   string
	APIKey    types.SecretString
	Units     string
	UserAgent string
	Logger    *slog.Logger
}

// OpenWeatherClient calls the OpenWeatherMap 2.5 current and forecast
// endpoints.
type OpenWeatherClient struct {
	base    *BaseClient
	baseURL string
	apiKey  types.SecretString
	units   string
	logger  *slog.Logger
}

// NewOpenWeatherClient creates an OpenWeatherClient. Units defaults to
// "metric".
func NewOpenWeatherClient(httpClient *http.Client, cfg OpenWeatherConfig, opts ...BaseClientOption) *OpenWeatherClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	units := cfg.Units
	if units == "" {
		units = "metric"
	}
	return &OpenWeatherClient{
		base:    NewBaseClient(httpClient, "openweathermap", DefaultRetryPolicy(), cfg.UserAgent, opts...),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		units:   units,
		logger:  logger,
	}
}

// Base exposes the underlying BaseClient for health reporting.
func (c *OpenWeatherClient) Base() *BaseClient {
	return c.base
}

// Current fetches the current conditions document for loc.
func (c *OpenWeatherClient) Current(ctx context.Context, loc types.Location) (*CurrentWeatherResponse, error) {
	var out CurrentWeatherResponse
	if err := c.get(ctx, currentWeatherPath, currentLabel, loc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Forecast fetches the 3-hour forecast list for loc.
func (c *OpenWeatherClient) Forecast(ctx context.Context, loc types.Location) (*ForecastResponse, error) {
	var out ForecastResponse
	if err := c.get(ctx, forecastPath, forecastLabel, loc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *OpenWeatherClient) get(ctx context.Context, path, label string, loc types.Location, dst any) error {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	q.Set("appid", c.apiKey.Unmask())
	q.Set("units", c.units)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected,
			fmt.Sprintf("%s: failed to build request", label), err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "weather request failed",
			"endpoint", path,
			"error", err,
		)
		return withEndpoint(err, label)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return rejectedError(label, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return types.NewAppError(types.ErrCodeInternalMalformedPayload,
			fmt.Sprintf("%s: malformed JSON response", label), err)
	}
	return nil
}

// rejectedError builds "<label> Error <status>: <provider message>" from a
// non-2xx response. The message suffix is omitted if the body is not the
// provider's JSON error shape.
// withEndpoint tags the AppError in err's chain with the endpoint label.
func withEndpoint(err error, label string) error {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr.WithDetails(map[string]any{"endpoint": label})
	}
	return err
}

func rejectedError(label string, resp *http.Response) *types.AppError {
	msg := fmt.Sprintf("%s Error %d", label, resp.StatusCode)

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var pe providerError
	if json.Unmarshal(body, &pe) == nil && pe.Message != "" {
		msg += ": " + pe.Message
	}

	return &types.AppError{
		Code:    types.ErrCodeUpstreamRejected,
		Message: msg,
		Details: map[string]any{
			"endpoint": label,
			"status":   resp.StatusCode,
		},
	}
}
