package weather

import "time"

const (
	// HourlyWindow is the number of 3-hour entries returned as the hourly view.
	HourlyWindow = 24
	// DailyWindow is the maximum number of daily summaries returned.
	DailyWindow = 5
)

// dayGroup accumulates the entries of one calendar date.
type dayGroup struct {
	date     string
	tempMin  float64
	tempMax  float64
	humidity float64
	popMax   float64
	count    int
	icons    iconTally
}

// iconTally counts icons in first-seen order so ties resolve to the earliest icon.
type iconTally struct {
	order  []string
	counts map[string]int
}

func (t *iconTally) add(icon string) {
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	if _, seen := t.counts[icon]; !seen {
		t.order = append(t.order, icon)
	}
	t.counts[icon]++
}

func (t *iconTally) mode() string {
	best := ""
	bestCount := 0
	for _, icon := range t.order {
		if c := t.counts[icon]; c > bestCount {
			best = icon
			bestCount = c
		}
	}
	return best
}

// SummarizeForecast collapses chronological 3-hour entries into the hourly
// window and per-day roll-ups. Dates are taken in loc (UTC when nil).
func SummarizeForecast(entries []ForecastEntry, loc *time.Location) (ForecastSummary, error) {
	if err := ValidateEntries(entries); err != nil {
		return ForecastSummary{}, err
	}

	hourly := entries
	if len(hourly) > HourlyWindow {
		hourly = hourly[:HourlyWindow]
	}

	groups := groupByDay(entries, loc)

	daily := make([]DailySummary, 0, min(len(groups), DailyWindow))
	for _, g := range groups {
		if len(daily) >= DailyWindow {
			break
		}
		daily = append(daily, DailySummary{
			Date:                 g.date,
			TempMin:              g.tempMin,
			TempMax:              g.tempMax,
			HumidityAvg:          g.humidity / float64(g.count),
			PrecipProbabilityMax: g.popMax,
			Icon:                 g.icons.mode(),
		})
	}

	return ForecastSummary{
		Hourly: append(make([]ForecastEntry, 0, len(hourly)), hourly...),
		Daily:  daily,
	}, nil
}

// groupByDay partitions entries by calendar date in first-appearance order.
func groupByDay(entries []ForecastEntry, loc *time.Location) []*dayGroup {
	var groups []*dayGroup
	index := make(map[string]*dayGroup)

	for _, e := range entries {
		date := e.Time(loc).Format("2006-01-02")

		g, ok := index[date]
		if !ok {
			g = &dayGroup{
				date:    date,
				tempMin: e.Temperature,
				tempMax: e.Temperature,
				popMax:  e.PrecipProbability,
			}
			index[date] = g
			groups = append(groups, g)
		}

		g.tempMin = min(g.tempMin, e.Temperature)
		g.tempMax = max(g.tempMax, e.Temperature)
		g.popMax = max(g.popMax, e.PrecipProbability)
		g.humidity += e.Humidity
		g.count++
		g.icons.add(e.WeatherIcon)
	}
	return groups
}
