package rain

import (
	"strings"

	"rainwatch/internal/types"
)

// rainCategoryTerms are matched case-insensitively as substrings of a
// provider category.
var rainCategoryTerms = []string{"rain", "drizzle", "thunderstorm"}

// rainCodes is the fixed allowlist of provider condition codes that count as
// rain regardless of the category string.
var rainCodes = map[int]struct{}{
	// Rain and showers
	500: {}, 501: {}, 502: {}, 503: {}, 504: {}, 511: {}, 520: {}, 521: {}, 522: {}, 531: {},
	// Drizzle
	300: {}, 301: {}, 302: {}, 310: {}, 311: {}, 312: {}, 313: {}, 314: {}, 321: {},
	// Thunderstorm
	200: {}, 201: {}, 202: {}, 210: {}, 211: {}, 212: {}, 221: {}, 230: {}, 231: {}, 232: {},
}

// IsRainingNow reports whether the current primary category indicates rain.
func IsRainingNow(current types.CurrentConditions) bool {
	return matchesRainCategory(current.PrimaryCategory)
}

// IsRainyClassification reports whether any of a sample's weather conditions
// is rain, either by category or by condition code. Probability is not
// considered here.
func IsRainyClassification(sample types.ForecastSample) bool {
	for _, cond := range sample.Conditions {
		if matchesRainCategory(cond.Category) || IsRainCode(cond.Code) {
			return true
		}
	}
	return false
}

// IsRainCode reports whether code is in the rain allowlist.
func IsRainCode(code int) bool {
	_, ok := rainCodes[code]
	return ok
}

func matchesRainCategory(category string) bool {
	lower := strings.ToLower(category)
	for _, term := range rainCategoryTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func matchesThunderstorm(category string) bool {
	return strings.Contains(strings.ToLower(category), "thunderstorm")
}
