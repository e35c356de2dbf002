package weather

import (
	"encoding/json"
	"time"
)

// Units is the unit system a caller requested data in.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
	UnitsStandard Units = "standard"
)

// Coordinates identifies a point on the globe.
type Coordinates struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Key returns a canonical string key for indexing these coordinates in stores.
func (c Coordinates) Key() string {
	return formatCoord(c.Lat) + ":" + formatCoord(c.Lon)
}

// GeoLocation is a named place returned by geocoding.
type GeoLocation struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
}

// ForecastEntry is a single 3-hour forecast slot.
type ForecastEntry struct {
	Timestamp          int64   `json:"dt" validate:"gt=0"`
	Temperature        float64 `json:"temp"`
	FeelsLike          float64 `json:"feels_like"`
	TempMin            float64 `json:"temp_min"`
	TempMax            float64 `json:"temp_max"`
	Humidity           float64 `json:"humidity" validate:"gte=0,lte=100"`
	Pressure           float64 `json:"pressure" validate:"gte=0"`
	WindSpeed          float64 `json:"wind_speed" validate:"gte=0"`
	WindDeg            int     `json:"wind_deg"`
	CloudPct           float64 `json:"clouds" validate:"gte=0,lte=100"`
	PrecipProbability  float64 `json:"pop" validate:"gte=0,lte=1"`
	RainMM3h           float64 `json:"rain" validate:"gte=0"`
	SnowMM3h           float64 `json:"snow" validate:"gte=0"`
	WeatherCode        int     `json:"-" validate:"gt=0"`
	WeatherMain        string  `json:"-"`
	WeatherDescription string  `json:"-"`
	WeatherIcon        string  `json:"-" validate:"required"`
}

// MarshalJSON nests the weather group under "weather" the way clients read it.
func (e ForecastEntry) MarshalJSON() ([]byte, error) {
	type entry ForecastEntry
	cond := Condition{
		ID:          e.WeatherCode,
		Main:        e.WeatherMain,
		Description: e.WeatherDescription,
		Icon:        e.WeatherIcon,
	}
	return json.Marshal(struct {
		entry
		Weather Condition `json:"weather"`
	}{entry(e), cond})
}

// Time returns the entry timestamp in the given zone (UTC when nil).
func (e ForecastEntry) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(e.Timestamp, 0).In(loc)
}

// DailySummary is a per-calendar-day roll-up of forecast entries.
type DailySummary struct {
	Date                 string  `json:"date"`
	TempMin              float64 `json:"temp_min"`
	TempMax              float64 `json:"temp_max"`
	HumidityAvg          float64 `json:"humidity_avg"`
	PrecipProbabilityMax float64 `json:"pop_max"`
	Icon                 string  `json:"icon"`
}

// ForecastSummary is the hourly window plus the daily roll-ups.
type ForecastSummary struct {
	Hourly []ForecastEntry `json:"hourly"`
	Daily  []DailySummary  `json:"daily"`
}

// CurrentConditions is a read-only snapshot of the weather right now.
type CurrentConditions struct {
	Temperature float64 `json:"temp"`
	Humidity    float64 `json:"humidity" validate:"gte=0,lte=100"`
	Pressure    float64 `json:"pressure" validate:"gte=0"`
	WindSpeed   float64 `json:"wind_speed" validate:"gte=0"`
	CloudPct    float64 `json:"clouds" validate:"gte=0,lte=100"`
	WeatherCode int     `json:"weather_id" validate:"gt=0"`
	Latitude    float64 `json:"lat" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"lon" validate:"gte=-180,lte=180"`
	Timestamp   int64   `json:"dt" validate:"gte=0"`
}

// Condition describes the weather group reported by the provider.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// CurrentWeather is the full current-weather view served to clients.
// Conditions carries the subset the alert and UV rules consume.
type CurrentWeather struct {
	Temp           float64   `json:"temp"`
	FeelsLike      float64   `json:"feels_like"`
	TempMin        float64   `json:"temp_min"`
	TempMax        float64   `json:"temp_max"`
	Humidity       float64   `json:"humidity"`
	Pressure       float64   `json:"pressure"`
	VisibilityKm   float64   `json:"visibility"`
	WindSpeed      float64   `json:"wind_speed"`
	WindDeg        int       `json:"wind_deg"`
	WindGust       *float64  `json:"wind_gust"`
	Clouds         float64   `json:"clouds"`
	Weather        Condition `json:"weather"`
	Sunrise        int64     `json:"sunrise"`
	Sunset         int64     `json:"sunset"`
	TimezoneOffset int       `json:"timezone"`
	Name           string    `json:"name"`
	Country        string    `json:"country"`
	Dt             int64     `json:"dt"`

	Conditions CurrentConditions `json:"-"`
}

// ForecastSeries is the raw 3-hour forecast for a city.
type ForecastSeries struct {
	Entries        []ForecastEntry
	TimezoneOffset int // seconds east of UTC
}

// Severity classifies how urgent an alert is.
type Severity string

const (
	SeverityAdvisory Severity = "advisory"
	SeverityWatch    Severity = "watch"
	SeverityWarning  Severity = "warning"
)

// AlertType names the rule that produced an alert.
type AlertType string

const (
	AlertThunderstorm         AlertType = "thunderstorm"
	AlertRain                 AlertType = "rain"
	AlertSnow                 AlertType = "snow"
	AlertWind                 AlertType = "wind"
	AlertHeat                 AlertType = "heat"
	AlertCold                 AlertType = "cold"
	AlertFog                  AlertType = "fog"
	AlertThunderstormForecast AlertType = "thunderstorm_forecast"
)

// Alert is a single classified weather alert.
type Alert struct {
	Type        AlertType `json:"type"`
	Severity    Severity  `json:"severity"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
}

// AlertReport is the ordered list of alerts for one location.
type AlertReport struct {
	Alerts      []Alert `json:"alerts"`
	Count       int     `json:"count"`
	HasWarnings bool    `json:"has_warnings"`
}

// UVEstimate is a heuristic UV index. It is never a measured value.
type UVEstimate struct {
	Value          float64 `json:"uv"`
	Risk           string  `json:"risk"`
	Color          string  `json:"color"`
	Recommendation string  `json:"recommendation"`
	Estimated      bool    `json:"estimated"`
}

// AirQuality is the latest air pollution reading for a location.
type AirQuality struct {
	AQI      int      `json:"aqi"`
	AQILabel string   `json:"aqi_label"`
	CO       *float64 `json:"co"`
	NO       *float64 `json:"no"`
	NO2      *float64 `json:"no2"`
	O3       *float64 `json:"o3"`
	SO2      *float64 `json:"so2"`
	PM2_5    *float64 `json:"pm2_5"`
	PM10     *float64 `json:"pm10"`
	NH3      *float64 `json:"nh3"`
	Dt       int64    `json:"dt"`
}

// StatusCheck records that a client pinged the service.
type StatusCheck struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	Timestamp  time.Time `json:"timestamp"`
}

// SearchEntry is one saved location search.
type SearchEntry struct {
	ID        string    `json:"id"`
	City      string    `json:"city"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Country   string    `json:"country"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertRecord is a logged alert evaluation for a watched location.
type AlertRecord struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Location  Coordinates `json:"location"`
	Report    AlertReport `json:"report"`
	Timestamp time.Time   `json:"timestamp"`
}

// Place is a named location the alert watcher evaluates on a schedule.
type Place struct {
	Name  string  `json:"name" yaml:"name"`
	Lat   float64 `json:"lat" yaml:"lat"`
	Lon   float64 `json:"lon" yaml:"lon"`
	Units Units   `json:"units" yaml:"units"`
}

// Coordinates returns the place's position.
func (p Place) Coordinates() Coordinates {
	return Coordinates{Lat: p.Lat, Lon: p.Lon}
}
