package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// ValidationResult is the outcome of checking one operator input.
type ValidationResult struct {
	Valid   bool
	Message string
}

// HTTPClient is the outbound HTTP surface used by active probes.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Validator checks operator input before it is written to SSM.
type Validator struct {
	httpClient     HTTPClient
	weatherBaseURL string
}

// defaultWeatherBaseURL matches the OPENWEATHER_BASE_URL default.
const defaultWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// NewValidator creates a Validator that probes the public OpenWeatherMap API.
func NewValidator() *Validator {
	return &Validator{
		httpClient:     &http.Client{Timeout: 10 * time.Second},
		weatherBaseURL: defaultWeatherBaseURL,
	}
}

// NewValidatorWithDeps creates a Validator with an injected client and base
// URL. A nil client disables active probing.
func NewValidatorWithDeps(httpClient HTTPClient, weatherBaseURL string) *Validator {
	return &Validator{
		httpClient:     httpClient,
		weatherBaseURL: strings.TrimRight(weatherBaseURL, "/"),
	}
}

// validateTimeout bounds each active probe.
const validateTimeout = 15 * time.Second

// owmKeyRegex matches the 32 character hex keys OpenWeatherMap issues.
var owmKeyRegex = regexp.MustCompile(`^[0-9a-f]{32}$`)

// ValidateOpenWeatherKey checks the key format and then requests current
// weather at (0, 0). The provider answers 401 for unknown or not yet
// activated keys.
func (v *Validator) ValidateOpenWeatherKey(ctx context.Context, key string) ValidationResult {
	key = strings.TrimSpace(key)
	if key == "" {
		return ValidationResult{Valid: false, Message: "OpenWeatherMap API key must not be empty"}
	}
	if !owmKeyRegex.MatchString(key) {
		return ValidationResult{Valid: false, Message: "OpenWeatherMap API key must be 32 lowercase hex characters"}
	}
	if v.httpClient == nil {
		return ValidationResult{Valid: true, Message: "OpenWeatherMap API key format validated"}
	}

	probeCtx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("lat", "0")
	q.Set("lon", "0")
	q.Set("appid", key)
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, v.weatherBaseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return ValidationResult{Valid: false, Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("User-Agent", "RainWatch-Bootstrap/1.0")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return ValidationResult{Valid: false, Message: fmt.Sprintf("OpenWeatherMap probe failed: %v", err)}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ValidationResult{
			Valid:   false,
			Message: "OpenWeatherMap returned HTTP 401: key is invalid or not yet activated",
		}
	case resp.StatusCode != http.StatusOK:
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("OpenWeatherMap returned HTTP %d: %s", resp.StatusCode, truncateBody(body, 200)),
		}
	}

	return ValidationResult{Valid: true, Message: "OpenWeatherMap API key verified (current weather accessible)"}
}

// ValidateQueueURL accepts https SQS queue URLs of the form
// https://sqs.<region>.amazonaws.com/<account>/<queue>.
func (v *Validator) ValidateQueueURL(_ context.Context, raw string) ValidationResult {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ValidationResult{Valid: false, Message: "queue URL must not be empty"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ValidationResult{Valid: false, Message: fmt.Sprintf("invalid URL format: %v", err)}
	}
	if u.Scheme != "https" {
		return ValidationResult{Valid: false, Message: fmt.Sprintf("expected https scheme, got %q", u.Scheme)}
	}
	if !strings.HasPrefix(u.Host, "sqs.") || !strings.HasSuffix(u.Host, ".amazonaws.com") {
		return ValidationResult{Valid: false, Message: fmt.Sprintf("host %q is not an SQS endpoint", u.Host)}
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ValidationResult{Valid: false, Message: "path must be /<account-id>/<queue-name>"}
	}
	return ValidationResult{Valid: true, Message: fmt.Sprintf("queue URL validated (queue=%s)", parts[1])}
}

// ValidateRegex checks input against pattern.
func (v *Validator) ValidateRegex(_ context.Context, input, pattern, fieldName string) ValidationResult {
	input = strings.TrimSpace(input)
	if input == "" {
		return ValidationResult{Valid: false, Message: fmt.Sprintf("%s must not be empty", fieldName)}
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return ValidationResult{Valid: false, Message: fmt.Sprintf("invalid regex pattern %q: %v", pattern, err)}
	}
	if !re.MatchString(input) {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("%s does not match expected format (pattern: %s)", fieldName, pattern),
		}
	}
	return ValidationResult{Valid: true, Message: fmt.Sprintf("%s format validated", fieldName)}
}

// truncateBody returns at most n bytes of body, marking truncation with "...".
func truncateBody(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
