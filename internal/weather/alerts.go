package weather

import (
	"fmt"
	"strconv"
	"time"
)

// ForecastLookahead is the number of 3-hour entries (about 24h) scanned for
// upcoming thunderstorms.
const ForecastLookahead = 8

// Metric thresholds for the current-condition rules.
const (
	HighWindMS      = 15.0
	ExtremeHeatC    = 35.0
	ExtremeColdC    = -10.0
	metersPerSecMPH = 0.44704
)

// AlertInput is everything the alert rules look at.
type AlertInput struct {
	Current  CurrentConditions
	Forecast []ForecastEntry
	Units    Units
	// Location renders forecast times; UTC when nil.
	Location *time.Location
}

// unitSystem holds thresholds and symbols converted to the caller's units.
type unitSystem struct {
	windLimit  float64
	heatLimit  float64
	coldLimit  float64
	windSymbol string
	tempSymbol string
}

func unitSystemFor(u Units) (unitSystem, error) {
	switch u {
	case UnitsMetric, "":
		return unitSystem{
			windLimit:  HighWindMS,
			heatLimit:  ExtremeHeatC,
			coldLimit:  ExtremeColdC,
			windSymbol: "m/s",
			tempSymbol: "°C",
		}, nil
	case UnitsImperial:
		return unitSystem{
			windLimit:  HighWindMS / metersPerSecMPH,
			heatLimit:  ExtremeHeatC*9/5 + 32,
			coldLimit:  ExtremeColdC*9/5 + 32,
			windSymbol: "mph",
			tempSymbol: "°F",
		}, nil
	case UnitsStandard:
		return unitSystem{
			windLimit:  HighWindMS,
			heatLimit:  ExtremeHeatC + 273.15,
			coldLimit:  ExtremeColdC + 273.15,
			windSymbol: "m/s",
			tempSymbol: "K",
		}, nil
	default:
		return unitSystem{}, fmt.Errorf("%w: unknown units %q", ErrInvalidInput, u)
	}
}

// alertRule pairs a predicate over current conditions with the alert it emits.
type alertRule struct {
	template Alert
	matches  func(c CurrentConditions, us unitSystem) bool
	describe func(c CurrentConditions, us unitSystem) string
}

func (r alertRule) alert(c CurrentConditions, us unitSystem) Alert {
	a := r.template
	if r.describe != nil {
		a.Description = r.describe(c, us)
	}
	return a
}

func codeIn(lo, hi int) func(CurrentConditions, unitSystem) bool {
	return func(c CurrentConditions, _ unitSystem) bool {
		return c.WeatherCode >= lo && c.WeatherCode < hi
	}
}

// currentRules is evaluated top to bottom; every matching rule fires.
var currentRules = []alertRule{
	{
		template: Alert{
			Type:        AlertThunderstorm,
			Severity:    SeverityWarning,
			Title:       "Thunderstorm Warning",
			Description: "Thunderstorm activity in your area. Stay indoors and away from windows.",
			Icon:        "cloud-lightning",
		},
		matches: codeIn(200, 300),
	},
	{
		template: Alert{
			Type:        AlertRain,
			Severity:    SeverityWarning,
			Title:       "Heavy Rain Alert",
			Description: "Heavy rainfall expected. Be cautious of flooding.",
			Icon:        "cloud-rain",
		},
		matches: func(c CurrentConditions, _ unitSystem) bool {
			switch c.WeatherCode {
			case 502, 503, 504:
				return true
			}
			return false
		},
	},
	{
		template: Alert{
			Type:        AlertSnow,
			Severity:    SeverityAdvisory,
			Title:       "Snow Advisory",
			Description: "Snow expected. Drive carefully and prepare for winter conditions.",
			Icon:        "snowflake",
		},
		matches: codeIn(600, 700),
	},
	{
		template: Alert{
			Type:     AlertWind,
			Severity: SeverityWarning,
			Title:    "High Wind Warning",
			Icon:     "wind",
		},
		matches: func(c CurrentConditions, us unitSystem) bool {
			return c.WindSpeed > us.windLimit
		},
		describe: func(c CurrentConditions, us unitSystem) string {
			return fmt.Sprintf("Strong winds of %s %s. Secure loose objects.", formatValue(c.WindSpeed), us.windSymbol)
		},
	},
	{
		template: Alert{
			Type:     AlertHeat,
			Severity: SeverityWarning,
			Title:    "Extreme Heat Warning",
			Icon:     "thermometer",
		},
		matches: func(c CurrentConditions, us unitSystem) bool {
			return c.Temperature > us.heatLimit
		},
		describe: func(c CurrentConditions, us unitSystem) string {
			return fmt.Sprintf("Temperature of %s%s. Stay hydrated and avoid outdoor activities.", formatValue(c.Temperature), us.tempSymbol)
		},
	},
	{
		template: Alert{
			Type:     AlertCold,
			Severity: SeverityWarning,
			Title:    "Extreme Cold Warning",
			Icon:     "thermometer-snowflake",
		},
		matches: func(c CurrentConditions, us unitSystem) bool {
			return c.Temperature < us.coldLimit
		},
		describe: func(c CurrentConditions, us unitSystem) string {
			return fmt.Sprintf("Temperature of %s%s. Dress warmly and limit outdoor exposure.", formatValue(c.Temperature), us.tempSymbol)
		},
	},
	{
		template: Alert{
			Type:        AlertFog,
			Severity:    SeverityAdvisory,
			Title:       "Fog Advisory",
			Description: "Reduced visibility due to fog. Drive with caution.",
			Icon:        "cloud-fog",
		},
		matches: codeIn(700, 800),
	},
}

// DetectAlerts evaluates current conditions against the rule table and then
// looks ahead through the forecast for the first predicted thunderstorm.
func DetectAlerts(in AlertInput) (AlertReport, error) {
	us, err := unitSystemFor(in.Units)
	if err != nil {
		return AlertReport{}, err
	}
	if err := ValidateConditions(in.Current); err != nil {
		return AlertReport{}, err
	}

	forecast := in.Forecast
	if len(forecast) > ForecastLookahead {
		forecast = forecast[:ForecastLookahead]
	}
	if err := ValidateEntries(forecast); err != nil {
		return AlertReport{}, err
	}

	alerts := make([]Alert, 0, len(currentRules)+1)
	for _, rule := range currentRules {
		if rule.matches(in.Current, us) {
			alerts = append(alerts, rule.alert(in.Current, us))
		}
	}

	if a, ok := forecastThunderstorm(alerts, forecast, in.Location); ok {
		alerts = append(alerts, a)
	}

	report := AlertReport{Alerts: alerts, Count: len(alerts)}
	for _, a := range alerts {
		if a.Severity == SeverityWarning {
			report.HasWarnings = true
			break
		}
	}
	return report, nil
}

// forecastThunderstorm returns a watch for the first forecast thunderstorm,
// unless a thunderstorm is already happening.
func forecastThunderstorm(current []Alert, forecast []ForecastEntry, loc *time.Location) (Alert, bool) {
	for _, a := range current {
		if a.Type == AlertThunderstorm {
			return Alert{}, false
		}
	}
	for _, e := range forecast {
		if e.WeatherCode >= 200 && e.WeatherCode < 300 {
			return Alert{
				Type:        AlertThunderstormForecast,
				Severity:    SeverityWatch,
				Title:       "Thunderstorm Watch",
				Description: fmt.Sprintf("Thunderstorms possible around %s.", e.Time(loc).Format("03:04 PM")),
				Icon:        "cloud-lightning",
			}, true
		}
	}
	return Alert{}, false
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
