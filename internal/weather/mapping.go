package weather

import (
	"rainwatch/internal/external"
	"rainwatch/internal/types"
)

// MapCurrent converts the provider's current-weather document. The first
// weather entry supplies the primary category, description and icon.
func MapCurrent(resp *external.CurrentWeatherResponse) types.CurrentConditions {
	if resp == nil {
		return types.CurrentConditions{}
	}

	cc := types.CurrentConditions{
		Temperature:  resp.Main.Temp,
		FeelsLike:    resp.Main.FeelsLike,
		Humidity:     resp.Main.Humidity,
		WindSpeed:    resp.Wind.Speed,
		LocationName: resp.Name,
		CountryCode:  resp.Sys.Country,
	}
	if len(resp.Weather) > 0 {
		primary := resp.Weather[0]
		cc.PrimaryCategory = primary.Main
		cc.Description = primary.Description
		cc.IconCode = primary.Icon
	}
	return cc
}

// MapForecast converts the forecast list, preserving provider order.
func MapForecast(resp *external.ForecastResponse) []types.ForecastSample {
	if resp == nil {
		return nil
	}

	samples := make([]types.ForecastSample, 0, len(resp.List))
	for _, item := range resp.List {
		samples = append(samples, mapItem(item))
	}
	return samples
}

func mapItem(item external.ForecastItem) types.ForecastSample {
	sample := types.ForecastSample{
		Timestamp:                item.Dt,
		PrecipitationProbability: item.Pop,
		Conditions:               make([]types.WeatherCondition, 0, len(item.Weather)),
	}
	for _, w := range item.Weather {
		sample.Conditions = append(sample.Conditions, types.WeatherCondition{
			Category:    w.Main,
			Code:        w.ID,
			Description: w.Description,
			Icon:        w.Icon,
		})
	}

	// A zero volume is reported the same as a missing one.
	if item.Rain != nil && item.Rain.ThreeHour != nil && *item.Rain.ThreeHour != 0 {
		v := *item.Rain.ThreeHour
		sample.PrecipitationVolumeMm3h = &v
	}
	return sample
}
