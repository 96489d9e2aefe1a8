package types

// WeatherCondition is a single entry of a provider "weather" array.
// Category is the coarse group ("Rain", "Clear", "Thunderstorm"); Code is the
// provider's fine-grained condition id.
type WeatherCondition struct {
	Category    string `json:"category"`
	Code        int    `json:"code"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// CurrentConditions is the point-in-time reading produced once per fetch cycle.
// It is never mutated after construction.
type CurrentConditions struct {
	PrimaryCategory string  `json:"primary_category"`
	Temperature     float64 `json:"temperature"`
	FeelsLike       float64 `json:"feels_like"`
	Humidity        float64 `json:"humidity"`
	WindSpeed       float64 `json:"wind_speed"`
	Description     string  `json:"description"`
	IconCode        string  `json:"icon_code"`
	LocationName    string  `json:"location_name"`
	CountryCode     string  `json:"country_code"`
}
