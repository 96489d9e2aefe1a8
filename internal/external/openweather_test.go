package external

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rainwatch/internal/types"
)

const currentFixture = `{
  "name": "Berlin",
  "dt": 1792000000,
  "sys": {"country": "DE"},
  "main": {"temp": 14.6, "feels_like": 13.2, "humidity": 81},
  "wind": {"speed": 3.54},
  "weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}]
}`

const forecastFixture = `{
  "cnt": 2,
  "city": {"name": "Berlin", "country": "DE"},
  "list": [
    {"dt": 1792003600, "pop": 0.62, "weather": [{"id": 501, "main": "Rain"}], "rain": {"3h": 2.4}},
    {"dt": 1792014400, "weather": [{"id": 800, "main": "Clear"}]}
  ]
}`

func newTestWeatherClient(t *testing.T, handler http.HandlerFunc) *OpenWeatherClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewOpenWeatherClient(server.Client(), OpenWeatherConfig{
		BaseURL:   server.URL + "/",
		APIKey:    types.SecretString("owm-key"),
		UserAgent: "RainWatch-Test/1.0",
	}, WithSleepFunc(noopSleep))
}

func TestOpenWeather_CurrentSendsQuery(t *testing.T) {
	client := newTestWeatherClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "52.52", q.Get("lat"))
		assert.Equal(t, "13.405", q.Get("lon"))
		assert.Equal(t, "owm-key", q.Get("appid"))
		assert.Equal(t, "metric", q.Get("units"))
		w.Write([]byte(currentFixture))
	})

	got, err := client.Current(context.Background(), types.Location{Lat: 52.52, Lon: 13.405})
	require.NoError(t, err)

	assert.Equal(t, "Berlin", got.Name)
	assert.Equal(t, "DE", got.Sys.Country)
	assert.InDelta(t, 14.6, got.Main.Temp, 1e-9)
	assert.InDelta(t, 81, got.Main.Humidity, 1e-9)
	assert.InDelta(t, 3.54, got.Wind.Speed, 1e-9)
	require.Len(t, got.Weather, 1)
	assert.Equal(t, WeatherEntry{ID: 500, Main: "Rain", Description: "light rain", Icon: "10d"}, got.Weather[0])
}

func TestOpenWeather_ForecastDecodesOptionalFields(t *testing.T) {
	client := newTestWeatherClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		w.Write([]byte(forecastFixture))
	})

	got, err := client.Forecast(context.Background(), types.Location{Lat: 1, Lon: 2})
	require.NoError(t, err)
	require.Len(t, got.List, 2)

	first := got.List[0]
	assert.Equal(t, int64(1792003600), first.Dt)
	assert.InDelta(t, 0.62, first.Pop, 1e-9)
	require.NotNil(t, first.Rain)
	require.NotNil(t, first.Rain.ThreeHour)
	assert.InDelta(t, 2.4, *first.Rain.ThreeHour, 1e-9)

	second := got.List[1]
	assert.Zero(t, second.Pop)
	assert.Nil(t, second.Rain)
}

func TestOpenWeather_RejectedResponses(t *testing.T) {
	tests := []struct {
		name    string
		call    func(*OpenWeatherClient) error
		status  int
		body    string
		message string
	}{
		{
			name: "current unauthorized",
			call: func(c *OpenWeatherClient) error {
				_, err := c.Current(context.Background(), types.Location{})
				return err
			},
			status:  http.StatusUnauthorized,
			body:    `{"cod":401,"message":"Invalid API key."}`,
			message: "Current Weather Error 401: Invalid API key.",
		},
		{
			name: "forecast not found",
			call: func(c *OpenWeatherClient) error {
				_, err := c.Forecast(context.Background(), types.Location{})
				return err
			},
			status:  http.StatusNotFound,
			body:    `{"cod":"404","message":"city not found"}`,
			message: "Forecast Error 404: city not found",
		},
		{
			name: "non-json body",
			call: func(c *OpenWeatherClient) error {
				_, err := c.Forecast(context.Background(), types.Location{})
				return err
			},
			status:  http.StatusBadRequest,
			body:    `<html>bad request</html>`,
			message: "Forecast Error 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestWeatherClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			err := tt.call(client)

			var appErr *types.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, types.ErrCodeUpstreamRejected, appErr.Code)
			assert.Equal(t, tt.message, appErr.Message)
			assert.Equal(t, tt.status, appErr.Details["status"])
			assert.Equal(t, http.StatusBadGateway, appErr.HTTPStatus())
		})
	}
}

func TestOpenWeather_MalformedJSON(t *testing.T) {
	client := newTestWeatherClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":`))
	})

	_, err := client.Current(context.Background(), types.Location{})

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalMalformedPayload, appErr.Code)
	assert.Contains(t, appErr.Message, "Current Weather")
}

func TestOpenWeather_ServerErrorsMapToUpstreamUnavailable(t *testing.T) {
	client := newTestWeatherClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Forecast(context.Background(), types.Location{})

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamUnavailable, appErr.Code)
	assert.Equal(t, "Forecast", appErr.Details["endpoint"])
}

func TestOpenWeather_UnitsOverride(t *testing.T) {
	var units string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		units = r.URL.Query().Get("units")
		w.Write([]byte(currentFixture))
	}))
	defer server.Close()

	client := NewOpenWeatherClient(server.Client(), OpenWeatherConfig{BaseURL: server.URL, Units: "imperial"})
	_, err := client.Current(context.Background(), types.Location{})
	require.NoError(t, err)

	assert.Equal(t, "imperial", units)
	assert.Equal(t, "openweathermap", client.Base().BreakerName())
}

func TestWithEndpoint(t *testing.T) {
	base := types.NewAppError(types.ErrCodeUpstreamUnavailable, "upstream request failed", nil)

	t.Run("direct", func(t *testing.T) {
		var appErr *types.AppError
		require.ErrorAs(t, withEndpoint(base, "Forecast"), &appErr)
		assert.Equal(t, "Forecast", appErr.Details["endpoint"])
	})

	t.Run("wrapped", func(t *testing.T) {
		var appErr *types.AppError
		require.ErrorAs(t, withEndpoint(fmt.Errorf("attempt 3: %w", base), "Current Weather"), &appErr)
		assert.Equal(t, types.ErrCodeUpstreamUnavailable, appErr.Code)
		assert.Equal(t, "Current Weather", appErr.Details["endpoint"])
	})

	t.Run("plain error untouched", func(t *testing.T) {
		plain := errors.New("dial tcp: refused")
		assert.Same(t, plain, withEndpoint(plain, "Forecast"))
	})
}
