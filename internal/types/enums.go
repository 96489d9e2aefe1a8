package types

// VerdictKind identifies which variant a RainVerdict holds.
type VerdictKind string

const (
	VerdictRainingNow VerdictKind = "raining"
	VerdictRainSoon   VerdictKind = "rain-soon"
	VerdictClear      VerdictKind = "clear"
)

// Intensity is the qualitative strength of an upcoming rain event.
type Intensity string

const (
	IntensityLight                 Intensity = "light"
	IntensityModerate              Intensity = "moderate"
	IntensityHeavy                 Intensity = "heavy"
	IntensityPossibleThunderstorms Intensity = "possible thunderstorms"
	IntensityUnspecified           Intensity = ""
)

// LocationMode selects how the refresh loop resolves the user's position.
type LocationMode string

const (
	LocationModeStatic LocationMode = "static"
	LocationModeIP     LocationMode = "ip"
)
