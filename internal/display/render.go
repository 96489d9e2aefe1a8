package display

import (
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode"
	"unicode/utf8"

	"rainwatch/internal/types"
)

const (
	iconURLFormat = "https://openweathermap.org/img/wn/%s.png"

	timeLayout       = "3:04 PM"
	lastUpdateLayout = "3:04:05 PM"
)

// Input is everything Render needs for one status.
type Input struct {
	Current        types.CurrentConditions
	Verdict        types.RainVerdict
	LookAheadHours float64
	// Units selects the temperature and wind suffixes: "metric" (default),
	// "imperial" or "standard".
	Units string
	Now   time.Time
	// Zone is used for the rain time and the last-updated stamp. Nil means
	// time.Local.
	Zone *time.Location
}

// Render builds the status for a successful cycle.
func Render(in Input) Status {
	zone := in.Zone
	if zone == nil {
		zone = time.Local
	}
	now := in.Now.In(zone)
	verdict := in.Verdict
	state := StateFor(verdict.Kind)

	st := Status{
		State:       state,
		Theme:       state.Theme(),
		Location:    locationLine(in.Current),
		Conditions:  conditionsBlock(in.Current, in.Units),
		Verdict:     &verdict,
		LastUpdated: now.Format(lastUpdateLayout),
		UpdatedAt:   in.Now,
	}

	switch state {
	case StateRaining:
		st.Headline = "It's Raining Now"
		st.Detail = "Seek shelter or grab an umbrella!"
	case StateRainSoon:
		st.Headline = "Rain Expected Soon!"
		st.Detail = rainSoonDetail(verdict, now, zone)
	default:
		st.Headline = "No Rain Expected Soon"
		st.Detail = fmt.Sprintf("Looks clear for the next %s hours. Enjoy!", formatHours(in.LookAheadHours))
	}
	return st
}

// ErrorStatus builds the status shown when the first cycle fails.
func ErrorStatus(err error, now time.Time) Status {
	msg := types.UserMessage(err)
	if msg == "" {
		msg = "unknown error"
	}
	return Status{
		State:     StateError,
		Headline:  "Error",
		Detail:    fmt.Sprintf("Error: %s. Please ensure location is available and the API key is correct.", msg),
		UpdatedAt: now,
		Error:     msg,
	}
}

// MarkStale annotates a previously rendered status after a failed background
// refresh. The rest of the display is left untouched.
func MarkStale(prev Status, now time.Time, zone *time.Location) Status {
	if zone == nil {
		zone = time.Local
	}
	prev.LastUpdated = now.In(zone).Format(lastUpdateLayout) + " (Update failed)"
	return prev
}

func rainSoonDetail(v types.RainVerdict, now time.Time, zone *time.Location) string {
	at := v.Time.In(zone)

	day := "on " + at.Format("Mon")
	if sameDay(at, now) {
		day = "today"
	}

	intensity := ""
	if v.Intensity != types.IntensityUnspecified {
		intensity = " (" + string(v.Intensity) + ")"
	}
	return fmt.Sprintf("Prepare for%s rain around %s %s.", intensity, at.Format(timeLayout), day)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func locationLine(c types.CurrentConditions) string {
	switch {
	case c.LocationName != "" && c.CountryCode != "":
		return c.LocationName + ", " + c.CountryCode
	case c.LocationName != "":
		return c.LocationName
	default:
		return c.CountryCode
	}
}

func conditionsBlock(c types.CurrentConditions, units string) *Conditions {
	tempUnit, windUnit := unitSuffixes(units)

	block := &Conditions{
		Temperature: fmt.Sprintf("%d%s", roundInt(c.Temperature), tempUnit),
		FeelsLike:   fmt.Sprintf("Feels like %d%s", roundInt(c.FeelsLike), tempUnit),
		Description: capitalize(c.Description),
		Humidity:    fmt.Sprintf("Humidity: %s%%", strconv.FormatFloat(c.Humidity, 'f', -1, 64)),
		Wind:        fmt.Sprintf("Wind: %.1f %s", c.WindSpeed, windUnit),
	}
	if c.IconCode != "" {
		block.IconURL = fmt.Sprintf(iconURLFormat, c.IconCode)
	}
	return block
}

func unitSuffixes(units string) (temp, wind string) {
	switch units {
	case "imperial":
		return "°F", "mph"
	case "standard":
		return " K", "m/s"
	default:
		return "°C", "m/s"
	}
}

// roundInt rounds halves toward positive infinity, so -2.5 becomes -2.
func roundInt(v float64) int {
	return int(math.Floor(v + 0.5))
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
