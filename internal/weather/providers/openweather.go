package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-insights/internal/weather"
)

const (
	DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"
	DefaultOpenWeatherGeoURL  = "https://api.openweathermap.org/geo/1.0"
)

// OpenWeatherConfig configures the OpenWeatherMap provider.
type OpenWeatherConfig struct {
	APIKey  string
	BaseURL string
	GeoURL  string
	// RequestsPerSecond and Burst throttle outbound calls; RPS <= 0 disables it.
	RequestsPerSecond float64
	Burst             int
}

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	geoURL  string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, cfg OpenWeatherConfig) *OpenWeatherProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenWeatherBaseURL
	}
	if cfg.GeoURL == "" {
		cfg.GeoURL = DefaultOpenWeatherGeoURL
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		geoURL:  cfg.GeoURL,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
			Limiter: limiter,
		},
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// getJSON performs a GET against endpoint with the API key attached and decodes into out.
func (p *OpenWeatherProvider) getJSON(ctx context.Context, endpoint string, values url.Values, out interface{}) error {
	if p.apiKey == "" {
		return fmt.Errorf("%w: openweather api key is not configured", weather.ErrProviderUnavailable)
	}

	buildRequest := func() (*http.Request, error) {
		q := url.Values{}
		for k, v := range values {
			q[k] = v
		}
		q.Set("appid", p.apiKey)

		u := fmt.Sprintf("%s?%s", endpoint, q.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", weather.ErrMalformedResponse, err)
	}
	return nil
}

func coordValues(c weather.Coordinates) url.Values {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(c.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(c.Lon, 'f', -1, 64))
	return values
}

type owmCondition struct {
	ID          *int   `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmMain struct {
	Temp      *float64 `json:"temp"`
	FeelsLike float64  `json:"feels_like"`
	TempMin   float64  `json:"temp_min"`
	TempMax   float64  `json:"temp_max"`
	Humidity  *float64 `json:"humidity"`
	Pressure  float64  `json:"pressure"`
}

type owmWind struct {
	Speed *float64 `json:"speed"`
	Deg   int      `json:"deg"`
	Gust  *float64 `json:"gust"`
}

type owmClouds struct {
	All float64 `json:"all"`
}

type currentPayload struct {
	Dt         int64          `json:"dt"`
	Main       owmMain        `json:"main"`
	Wind       owmWind        `json:"wind"`
	Clouds     owmClouds      `json:"clouds"`
	Weather    []owmCondition `json:"weather"`
	Visibility float64        `json:"visibility"`
	Timezone   int            `json:"timezone"`
	Name       string         `json:"name"`
	Sys        struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
}

// Current fetches current conditions for the coordinates.
func (p *OpenWeatherProvider) Current(ctx context.Context, c weather.Coordinates, units weather.Units) (weather.CurrentWeather, error) {
	values := coordValues(c)
	values.Set("units", string(units))

	var payload currentPayload
	if err := p.getJSON(ctx, p.baseURL+"/weather", values, &payload); err != nil {
		return weather.CurrentWeather{}, err
	}

	if payload.Main.Temp == nil || payload.Main.Humidity == nil || payload.Wind.Speed == nil {
		return weather.CurrentWeather{}, fmt.Errorf("%w: current weather missing main or wind fields", weather.ErrMalformedResponse)
	}
	if len(payload.Weather) == 0 || payload.Weather[0].ID == nil {
		return weather.CurrentWeather{}, fmt.Errorf("%w: current weather missing condition", weather.ErrMalformedResponse)
	}
	cond := payload.Weather[0]

	return weather.CurrentWeather{
		Temp:         *payload.Main.Temp,
		FeelsLike:    payload.Main.FeelsLike,
		TempMin:      payload.Main.TempMin,
		TempMax:      payload.Main.TempMax,
		Humidity:     *payload.Main.Humidity,
		Pressure:     payload.Main.Pressure,
		VisibilityKm: payload.Visibility / 1000,
		WindSpeed:    *payload.Wind.Speed,
		WindDeg:      payload.Wind.Deg,
		WindGust:     payload.Wind.Gust,
		Clouds:       payload.Clouds.All,
		Weather: weather.Condition{
			ID:          *cond.ID,
			Main:        cond.Main,
			Description: cond.Description,
			Icon:        cond.Icon,
		},
		Sunrise:        payload.Sys.Sunrise,
		Sunset:         payload.Sys.Sunset,
		TimezoneOffset: payload.Timezone,
		Name:           payload.Name,
		Country:        payload.Sys.Country,
		Dt:             payload.Dt,
		Conditions: weather.CurrentConditions{
			Temperature: *payload.Main.Temp,
			Humidity:    *payload.Main.Humidity,
			Pressure:    payload.Main.Pressure,
			WindSpeed:   *payload.Wind.Speed,
			CloudPct:    payload.Clouds.All,
			WeatherCode: *cond.ID,
			Latitude:    c.Lat,
			Longitude:   c.Lon,
			Timestamp:   payload.Dt,
		},
	}, nil
}

type forecastPayload struct {
	List []struct {
		Dt     *int64    `json:"dt"`
		Main   owmMain   `json:"main"`
		Wind   owmWind   `json:"wind"`
		Clouds owmClouds `json:"clouds"`
		Pop    float64   `json:"pop"`
		Rain   struct {
			ThreeH float64 `json:"3h"`
		} `json:"rain"`
		Snow struct {
			ThreeH float64 `json:"3h"`
		} `json:"snow"`
		Weather []owmCondition `json:"weather"`
	} `json:"list"`
	City struct {
		Timezone int `json:"timezone"`
	} `json:"city"`
}

// Forecast fetches the 5-day / 3-hour forecast for the coordinates.
func (p *OpenWeatherProvider) Forecast(ctx context.Context, c weather.Coordinates, units weather.Units) (weather.ForecastSeries, error) {
	values := coordValues(c)
	values.Set("units", string(units))

	var payload forecastPayload
	if err := p.getJSON(ctx, p.baseURL+"/forecast", values, &payload); err != nil {
		return weather.ForecastSeries{}, err
	}

	entries := make([]weather.ForecastEntry, 0, len(payload.List))
	for i, item := range payload.List {
		if item.Dt == nil || item.Main.Temp == nil || item.Main.Humidity == nil || item.Wind.Speed == nil {
			return weather.ForecastSeries{}, fmt.Errorf("%w: forecast item %d missing required fields", weather.ErrMalformedResponse, i)
		}
		if len(item.Weather) == 0 || item.Weather[0].ID == nil {
			return weather.ForecastSeries{}, fmt.Errorf("%w: forecast item %d missing condition", weather.ErrMalformedResponse, i)
		}
		cond := item.Weather[0]

		entries = append(entries, weather.ForecastEntry{
			Timestamp:          *item.Dt,
			Temperature:        *item.Main.Temp,
			FeelsLike:          item.Main.FeelsLike,
			TempMin:            item.Main.TempMin,
			TempMax:            item.Main.TempMax,
			Humidity:           *item.Main.Humidity,
			Pressure:           item.Main.Pressure,
			WindSpeed:          *item.Wind.Speed,
			WindDeg:            item.Wind.Deg,
			CloudPct:           item.Clouds.All,
			PrecipProbability:  item.Pop,
			RainMM3h:           item.Rain.ThreeH,
			SnowMM3h:           item.Snow.ThreeH,
			WeatherCode:        *cond.ID,
			WeatherMain:        cond.Main,
			WeatherDescription: cond.Description,
			WeatherIcon:        cond.Icon,
		})
	}

	return weather.ForecastSeries{
		Entries:        entries,
		TimezoneOffset: payload.City.Timezone,
	}, nil
}

// AirQuality fetches the current air pollution reading.
func (p *OpenWeatherProvider) AirQuality(ctx context.Context, c weather.Coordinates) (weather.AirQuality, error) {
	var payload struct {
		List []struct {
			Dt   int64 `json:"dt"`
			Main struct {
				AQI int `json:"aqi"`
			} `json:"main"`
			Components map[string]float64 `json:"components"`
		} `json:"list"`
	}
	if err := p.getJSON(ctx, p.baseURL+"/air_pollution", coordValues(c), &payload); err != nil {
		return weather.AirQuality{}, err
	}
	if len(payload.List) == 0 {
		return weather.AirQuality{}, fmt.Errorf("%w: air quality data not available", weather.ErrNotFound)
	}

	item := payload.List[0]
	component := func(name string) *float64 {
		if v, ok := item.Components[name]; ok {
			return &v
		}
		return nil
	}

	return weather.AirQuality{
		AQI:   item.Main.AQI,
		CO:    component("co"),
		NO:    component("no"),
		NO2:   component("no2"),
		O3:    component("o3"),
		SO2:   component("so2"),
		PM2_5: component("pm2_5"),
		PM10:  component("pm10"),
		NH3:   component("nh3"),
		Dt:    item.Dt,
	}, nil
}

type geoPayload []struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}

func (g geoPayload) locations() []weather.GeoLocation {
	locs := make([]weather.GeoLocation, 0, len(g))
	for _, item := range g {
		locs = append(locs, weather.GeoLocation{
			Name:    item.Name,
			Lat:     item.Lat,
			Lon:     item.Lon,
			Country: item.Country,
			State:   item.State,
		})
	}
	return locs
}

// Geocode searches places by name.
func (p *OpenWeatherProvider) Geocode(ctx context.Context, query string, limit int) ([]weather.GeoLocation, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("limit", strconv.Itoa(limit))

	var payload geoPayload
	if err := p.getJSON(ctx, p.geoURL+"/direct", values, &payload); err != nil {
		return nil, err
	}
	return payload.locations(), nil
}

// ReverseGeocode returns places near the coordinates.
func (p *OpenWeatherProvider) ReverseGeocode(ctx context.Context, c weather.Coordinates) ([]weather.GeoLocation, error) {
	values := coordValues(c)
	values.Set("limit", "1")

	var payload geoPayload
	if err := p.getJSON(ctx, p.geoURL+"/reverse", values, &payload); err != nil {
		return nil, err
	}
	return payload.locations(), nil
}

var _ weather.Provider = (*OpenWeatherProvider)(nil)
