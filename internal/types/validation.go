package types

import "fmt"

// Coordinate bounds.
const (
	MinLat = -90.0
	MaxLat = 90.0
	MinLon = -180.0
	MaxLon = 180.0
)

// Location is a geographic position in decimal degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the coordinates fall within the valid ranges.
func (l Location) Validate() error {
	if l.Lat < MinLat || l.Lat > MaxLat {
		return NewAppError(ErrCodeValidationInvalidLat,
			fmt.Sprintf("latitude %.4f out of range [%.0f, %.0f]", l.Lat, MinLat, MaxLat), nil)
	}
	if l.Lon < MinLon || l.Lon > MaxLon {
		return NewAppError(ErrCodeValidationInvalidLon,
			fmt.Sprintf("longitude %.4f out of range [%.0f, %.0f]", l.Lon, MinLon, MaxLon), nil)
	}
	return nil
}
