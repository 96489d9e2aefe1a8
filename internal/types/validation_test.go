package types

import (
	"errors"
	"testing"
)

func TestLocationValidate(t *testing.T) {
	valid := []Location{
		{Lat: 0, Lon: 0},
		{Lat: 90, Lon: 180},
		{Lat: -90, Lon: -180},
		{Lat: 52.52, Lon: 13.405},
	}
	for _, loc := range valid {
		if err := loc.Validate(); err != nil {
			t.Errorf("Validate(%v) returned unexpected error: %v", loc, err)
		}
	}

	invalid := []struct {
		loc  Location
		code ErrorCode
	}{
		{Location{Lat: 90.0001, Lon: 0}, ErrCodeValidationInvalidLat},
		{Location{Lat: -91, Lon: 0}, ErrCodeValidationInvalidLat},
		{Location{Lat: 0, Lon: 180.5}, ErrCodeValidationInvalidLon},
		{Location{Lat: 0, Lon: -181}, ErrCodeValidationInvalidLon},
	}
	for _, tt := range invalid {
		err := tt.loc.Validate()
		var appErr *AppError
		if !errors.As(err, &appErr) {
			t.Fatalf("Validate(%v) = %v, want AppError", tt.loc, err)
		}
		if appErr.Code != tt.code {
			t.Errorf("Validate(%v) code = %q, want %q", tt.loc, appErr.Code, tt.code)
		}
	}
}
