package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"rainwatch/internal/types"
)

// Locator resolves the coordinates RainWatch reports on.
type Locator interface {
	Locate(ctx context.Context) (types.Location, error)
}

// StaticLocator always returns the configured coordinates.
type StaticLocator struct {
	Location types.Location
}

// Locate returns the fixed location after validating its range.
func (s StaticLocator) Locate(context.Context) (types.Location, error) {
	if err := s.Location.Validate(); err != nil {
		return types.Location{}, err
	}
	return s.Location, nil
}

// ipAPIResponse is the ip-api.com JSON body.
type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
	Country string  `json:"countryCode"`
}

// IPLocator approximates the host's position from its public IP address
// using an ip-api.com compatible endpoint.
type IPLocator struct {
	base     *BaseClient
	endpoint string
}

// NewIPLocator creates an IPLocator. Geolocation is best effort, so it
// retries once and keeps its own breaker separate from the weather client.
func NewIPLocator(httpClient *http.Client, endpoint, userAgent string, opts ...BaseClientOption) *IPLocator {
	policy := DefaultRetryPolicy()
	policy.MaxRetries = 1
	return &IPLocator{
		base:     NewBaseClient(httpClient, "geolocation", policy, userAgent, opts...),
		endpoint: endpoint,
	}
}

// Base exposes the underlying client for breaker health checks.
func (l *IPLocator) Base() *BaseClient {
	return l.base
}

// Locate queries the endpoint. Any failure, including a "fail" status in
// the body, is reported as location_unavailable.
func (l *IPLocator) Locate(ctx context.Context) (types.Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return types.Location{}, unavailable("failed to build geolocation request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.base.Do(req)
	if err != nil {
		return types.Location{}, unavailable("geolocation service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Location{}, unavailable(fmt.Sprintf("geolocation service returned %d", resp.StatusCode), nil)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return types.Location{}, unavailable("malformed geolocation response", err)
	}
	if body.Status != "success" {
		msg := "geolocation lookup failed"
		if body.Message != "" {
			msg += ": " + body.Message
		}
		return types.Location{}, unavailable(msg, nil)
	}

	loc := types.Location{Lat: body.Lat, Lon: body.Lon}
	if err := loc.Validate(); err != nil {
		return types.Location{}, unavailable("geolocation returned out-of-range coordinates", err)
	}
	return loc, nil
}

func unavailable(msg string, err error) *types.AppError {
	return types.NewAppError(types.ErrCodeLocationUnavailable, msg, err)
}
