package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-insights/internal/store"
	"github.com/i474232898/weather-insights/internal/weather"
)

type stubProvider struct {
	current weather.CurrentWeather
	series  weather.ForecastSeries
	err     error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Current(context.Context, weather.Coordinates, weather.Units) (weather.CurrentWeather, error) {
	return s.current, s.err
}

func (s *stubProvider) Forecast(context.Context, weather.Coordinates, weather.Units) (weather.ForecastSeries, error) {
	return s.series, s.err
}

func (s *stubProvider) AirQuality(context.Context, weather.Coordinates) (weather.AirQuality, error) {
	return weather.AirQuality{AQI: 3}, s.err
}

func (s *stubProvider) Geocode(context.Context, string, int) ([]weather.GeoLocation, error) {
	return nil, s.err
}

func (s *stubProvider) ReverseGeocode(context.Context, weather.Coordinates) ([]weather.GeoLocation, error) {
	return []weather.GeoLocation{{Name: "Lisbon", Country: "PT"}}, s.err
}

func stormyProvider() *stubProvider {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	entries := make([]weather.ForecastEntry, 40)
	for i := range entries {
		entries[i] = weather.ForecastEntry{
			Timestamp:   start.Add(time.Duration(i) * 3 * time.Hour).Unix(),
			Temperature: 20,
			Humidity:    50,
			WeatherCode: 800,
			WeatherIcon: "01d",
		}
	}
	return &stubProvider{
		current: weather.CurrentWeather{
			Temp:    36,
			Weather: weather.Condition{ID: 800},
			Conditions: weather.CurrentConditions{
				Temperature: 36,
				Humidity:    20,
				WindSpeed:   20,
				WeatherCode: 800,
			},
		},
		series: weather.ForecastSeries{Entries: entries},
	}
}

func newTestApp(p weather.Provider) *fiber.App {
	app := fiber.New()
	svc := weather.NewService(store.NewMemoryStore(10, time.Hour), p)
	RegisterRoutes(app, svc)
	return app
}

func doJSON(t *testing.T, app *fiber.App, req *http.Request, wantStatus int, out interface{}) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, wantStatus, resp.StatusCode, string(body))
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out))
	}
}

// TestCoordinateValidation verifies that weather endpoints reject missing or
// out-of-range coordinates and unknown unit systems.
func TestCoordinateValidation(t *testing.T) {
	app := newTestApp(stormyProvider())

	for _, target := range []string{
		"/api/weather/current",
		"/api/weather/current?lat=10",
		"/api/weather/forecast?lat=91&lon=0",
		"/api/weather/alerts?lat=0&lon=181",
		"/api/weather/uv-index?lat=abc&lon=0",
		"/api/weather/alerts?lat=0&lon=0&units=kelvin",
		"/api/weather/geocode?q=a",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d, got %d", target, http.StatusBadRequest, resp.StatusCode)
		}
	}
}

func TestAlertsEndpoint(t *testing.T) {
	app := newTestApp(stormyProvider())

	var report weather.AlertReport
	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/weather/alerts?lat=30&lon=31", nil), http.StatusOK, &report)

	require.Equal(t, 2, report.Count)
	assert.Equal(t, weather.AlertWind, report.Alerts[0].Type)
	assert.Equal(t, weather.AlertHeat, report.Alerts[1].Type)
	assert.True(t, report.HasWarnings)
}

func TestForecastEndpoint(t *testing.T) {
	app := newTestApp(stormyProvider())

	var summary struct {
		Hourly []map[string]interface{} `json:"hourly"`
		Daily  []weather.DailySummary   `json:"daily"`
	}
	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/weather/forecast?lat=30&lon=31&units=metric", nil), http.StatusOK, &summary)

	require.Len(t, summary.Hourly, 24)
	weatherGroup, ok := summary.Hourly[0]["weather"].(map[string]interface{})
	require.True(t, ok, "hourly entries carry a nested weather object")
	assert.Equal(t, "01d", weatherGroup["icon"])
	assert.Equal(t, float64(800), weatherGroup["id"])
	assert.NotContains(t, summary.Hourly[0], "icon")
	require.Len(t, summary.Daily, 5)
	assert.Equal(t, "2024-07-01", summary.Daily[0].Date)
	assert.Equal(t, "01d", summary.Daily[0].Icon)
}

func TestUVIndexEndpointIsMarkedEstimated(t *testing.T) {
	app := newTestApp(stormyProvider())

	var uv weather.UVEstimate
	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/weather/uv-index?lat=0&lon=0", nil), http.StatusOK, &uv)
	assert.True(t, uv.Estimated)
	assert.NotEmpty(t, uv.Risk)
}

func TestAirQualityEndpoint(t *testing.T) {
	app := newTestApp(stormyProvider())

	var aq weather.AirQuality
	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/weather/air-quality?lat=0&lon=0", nil), http.StatusOK, &aq)
	assert.Equal(t, "Moderate", aq.AQILabel)
}

func TestGeocodeEndpoints(t *testing.T) {
	app := newTestApp(stormyProvider())

	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/weather/geocode?q=Atlantis", nil), http.StatusNotFound, nil)

	var loc weather.GeoLocation
	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/weather/reverse-geocode?lat=38.7&lon=-9.1", nil), http.StatusOK, &loc)
	assert.Equal(t, "Lisbon", loc.Name)
}

func TestProviderErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{weather.ErrNotFound, http.StatusNotFound},
		{weather.ErrProviderUnavailable, http.StatusServiceUnavailable},
		{weather.ErrMalformedResponse, http.StatusBadGateway},
	}

	for _, tt := range tests {
		p := stormyProvider()
		p.err = tt.err
		app := newTestApp(p)

		req := httptest.NewRequest(http.MethodGet, "/api/weather/current?lat=1&lon=1", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tt.want, resp.StatusCode, tt.err.Error())
	}
}

func TestMalformedForecastIsRejected(t *testing.T) {
	p := stormyProvider()
	p.series.Entries[3].Humidity = 250
	app := newTestApp(p)

	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/weather/forecast?lat=1&lon=1", nil), http.StatusBadGateway, nil)
}

func TestStatusAndHistoryRoundTrip(t *testing.T) {
	app := newTestApp(stormyProvider())

	var root map[string]string
	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/", nil), http.StatusOK, &root)
	assert.Equal(t, "Weather API is running", root["message"])

	req := httptest.NewRequest(http.MethodPost, "/api/status", strings.NewReader(`{"client_name":"kiosk"}`))
	req.Header.Set("Content-Type", "application/json")
	var check weather.StatusCheck
	doJSON(t, app, req, http.StatusOK, &check)
	assert.Equal(t, "kiosk", check.ClientName)
	assert.NotEmpty(t, check.ID)

	req = httptest.NewRequest(http.MethodPost, "/api/status", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	doJSON(t, app, req, http.StatusBadRequest, nil)

	var checks []weather.StatusCheck
	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/status", nil), http.StatusOK, &checks)
	assert.Len(t, checks, 1)

	for _, city := range []string{"Oslo", "Rome", "Quito"} {
		target := "/api/weather/history?city=" + city + "&country=XX&lat=1&lon=2"
		doJSON(t, app, httptest.NewRequest(http.MethodPost, target, nil), http.StatusOK, nil)
	}
	doJSON(t, app, httptest.NewRequest(http.MethodPost, "/api/weather/history?lat=1&lon=2", nil), http.StatusBadRequest, nil)

	var history []weather.SearchEntry
	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/weather/history?limit=2", nil), http.StatusOK, &history)
	require.Len(t, history, 2)
	assert.Equal(t, "Quito", history[0].City)
	assert.Equal(t, "Rome", history[1].City)

	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/weather/history?limit=0", nil), http.StatusBadRequest, nil)
}

func TestRecentAlertsEndpoint(t *testing.T) {
	p := stormyProvider()
	svc := weather.NewService(store.NewMemoryStore(10, time.Hour), p)
	app := fiber.New()
	RegisterRoutes(app, svc)

	_, err := svc.CheckAlerts(context.Background(), weather.Place{Name: "Cairo", Lat: 30.04, Lon: 31.24})
	require.NoError(t, err)

	var records []weather.AlertRecord
	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/weather/alerts/recent", nil), http.StatusOK, &records)
	require.Len(t, records, 1)
	assert.Equal(t, "Cairo", records[0].Name)
	assert.Equal(t, 2, records[0].Report.Count)
}

func TestSavedHistorySurvivesLaterRequests(t *testing.T) {
	app := newTestApp(stormyProvider())

	doJSON(t, app, httptest.NewRequest(http.MethodPost, "/api/weather/history?city=Reykjavik&country=IS&lat=64.1&lon=-21.9", nil), http.StatusOK, nil)
	for i := 0; i < 5; i++ {
		doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/weather/alerts?lat=30&lon=31&units=imperial", nil), http.StatusOK, nil)
		doJSON(t, app, httptest.NewRequest(http.MethodPost, "/api/weather/history?city=Nuuk&country=GL&lat=64.2&lon=-51.7", nil), http.StatusOK, nil)
	}

	var history []weather.SearchEntry
	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/weather/history?limit=6", nil), http.StatusOK, &history)
	require.Len(t, history, 6)
	assert.Equal(t, "Nuuk", history[0].City)
	assert.Equal(t, "GL", history[0].Country)
	assert.Equal(t, "Reykjavik", history[5].City)
	assert.Equal(t, "IS", history[5].Country)
}
