package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rainwatch/internal/types"
)

func newTestLocator(t *testing.T, status int, body string) *IPLocator {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return NewIPLocator(server.Client(), server.URL, "RainWatch-Test/1.0", WithSleepFunc(noopSleep))
}

func TestIPLocator_Success(t *testing.T) {
	locator := newTestLocator(t, http.StatusOK,
		`{"status":"success","lat":48.8566,"lon":2.3522,"city":"Paris","countryCode":"FR"}`)

	loc, err := locator.Locate(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 48.8566, loc.Lat, 1e-9)
	assert.InDelta(t, 2.3522, loc.Lon, 1e-9)
}

func TestIPLocator_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		contains string
	}{
		{"fail status", http.StatusOK, `{"status":"fail","message":"private range"}`, "private range"},
		{"non-200", http.StatusForbidden, `{}`, "403"},
		{"malformed", http.StatusOK, `not json`, "malformed"},
		{"out of range", http.StatusOK, `{"status":"success","lat":123,"lon":0}`, "out-of-range"},
		{"server down", http.StatusInternalServerError, ``, "unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestLocator(t, tt.status, tt.body).Locate(context.Background())

			var appErr *types.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, types.ErrCodeLocationUnavailable, appErr.Code)
			assert.Contains(t, appErr.Message, tt.contains)
		})
	}
}

func TestStaticLocator(t *testing.T) {
	loc, err := StaticLocator{Location: types.Location{Lat: -33.86, Lon: 151.2}}.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.Location{Lat: -33.86, Lon: 151.2}, loc)

	_, err = StaticLocator{Location: types.Location{Lat: 0, Lon: 200}}.Locate(context.Background())
	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeValidationInvalidLon, appErr.Code)
}
