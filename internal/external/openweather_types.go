package external

// CurrentWeatherResponse is the subset of the OpenWeatherMap
// /data/2.5/weather document RainWatch reads.
type CurrentWeatherResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []WeatherEntry `json:"weather"`
	Dt      int64          `json:"dt"`
}

// WeatherEntry is one element of a provider "weather" array.
type WeatherEntry struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// ForecastResponse is the /data/2.5/forecast document: 3-hour buckets.
type ForecastResponse struct {
	Cnt  int            `json:"cnt"`
	List []ForecastItem `json:"list"`
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
}

// ForecastItem is one forecast bucket. Pop is absent in some feeds and
// decodes as zero; Rain is nil when the bucket carries no volume.
type ForecastItem struct {
	Dt      int64          `json:"dt"`
	Pop     float64        `json:"pop"`
	Weather []WeatherEntry `json:"weather"`
	Rain    *RainVolume    `json:"rain,omitempty"`
}

// RainVolume holds the precipitation volume of a bucket in millimetres.
type RainVolume struct {
	ThreeHour *float64 `json:"3h,omitempty"`
}

// providerError is the body OpenWeatherMap returns on non-2xx responses.
// Cod is a number on some endpoints and a string on others, so it is not
// decoded.
type providerError struct {
	Message string `json:"message"`
}
