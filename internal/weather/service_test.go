package weather

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	current    CurrentWeather
	series     ForecastSeries
	air        AirQuality
	geo        []GeoLocation
	currentErr error
	seriesErr  error

	mu        sync.Mutex
	lastUnits []Units
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Current(_ context.Context, _ Coordinates, units Units) (CurrentWeather, error) {
	f.mu.Lock()
	f.lastUnits = append(f.lastUnits, units)
	f.mu.Unlock()
	return f.current, f.currentErr
}

func (f *fakeProvider) Forecast(_ context.Context, _ Coordinates, _ Units) (ForecastSeries, error) {
	return f.series, f.seriesErr
}

func (f *fakeProvider) AirQuality(_ context.Context, _ Coordinates) (AirQuality, error) {
	return f.air, nil
}

func (f *fakeProvider) Geocode(_ context.Context, _ string, _ int) ([]GeoLocation, error) {
	return f.geo, nil
}

func (f *fakeProvider) ReverseGeocode(_ context.Context, _ Coordinates) ([]GeoLocation, error) {
	return f.geo, nil
}

type fakeStore struct {
	checks   []StatusCheck
	searches []SearchEntry
	alerts   []AlertRecord
}

func (s *fakeStore) SaveStatusCheck(c StatusCheck) { s.checks = append(s.checks, c) }
func (s *fakeStore) StatusChecks(int) []StatusCheck { return s.checks }
func (s *fakeStore) SaveSearch(e SearchEntry) { s.searches = append(s.searches, e) }
func (s *fakeStore) RecentSearches(int) []SearchEntry { return s.searches }
func (s *fakeStore) RecordAlerts(r AlertRecord) { s.alerts = append(s.alerts, r) }
func (s *fakeStore) RecentAlerts(int) []AlertRecord { return s.alerts }

func currentWeather(code int, wind, temp, clouds float64, offset int) CurrentWeather {
	c := conditions(code, wind, temp)
	c.CloudPct = clouds
	return CurrentWeather{
		Temp:           temp,
		WindSpeed:      wind,
		Clouds:         clouds,
		TimezoneOffset: offset,
		Weather:        Condition{ID: code},
		Conditions:     c,
	}
}

func newTestService(p *fakeProvider) (*Service, *fakeStore) {
	st := &fakeStore{}
	svc := NewService(st, p)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	return svc, st
}

func TestServiceForecastUsesCityOffset(t *testing.T) {
	late := slots(1)
	late[0].Timestamp = time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC).Unix()

	svc, _ := newTestService(&fakeProvider{series: ForecastSeries{Entries: late, TimezoneOffset: 3 * 3600}})

	summary, err := svc.Forecast(context.Background(), Coordinates{Lat: 55.75, Lon: 37.62}, UnitsMetric)
	require.NoError(t, err)
	require.Len(t, summary.Daily, 1)
	assert.Equal(t, "2024-05-02", summary.Daily[0].Date)
}

func TestServiceAlerts(t *testing.T) {
	forecast := slots(16)
	forecast[4].WeatherCode = 210

	p := &fakeProvider{
		current: currentWeather(800, 17, 25, 10, 0),
		series:  ForecastSeries{Entries: forecast},
	}
	svc, _ := newTestService(p)

	report, err := svc.Alerts(context.Background(), Coordinates{Lat: 1, Lon: 2}, UnitsMetric)
	require.NoError(t, err)
	assert.Equal(t, []AlertType{AlertWind, AlertThunderstormForecast}, alertTypes(report))
	assert.True(t, report.HasWarnings)
	assert.Equal(t, "Thunderstorms possible around 12:00 PM.", report.Alerts[1].Description)
}

func TestServiceAlertsPropagatesProviderErrors(t *testing.T) {
	p := &fakeProvider{
		current:   currentWeather(800, 1, 20, 0, 0),
		seriesErr: ErrProviderUnavailable,
	}
	svc, _ := newTestService(p)

	_, err := svc.Alerts(context.Background(), Coordinates{}, UnitsMetric)
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	p.currentErr = ErrNotFound
	_, err = svc.Alerts(context.Background(), Coordinates{}, UnitsMetric)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceUVIndexUsesLocalHour(t *testing.T) {
	// 10:00 UTC is solar noon two hours east of Greenwich.
	p := &fakeProvider{current: currentWeather(800, 1, 30, 0, 2*3600)}
	svc, _ := newTestService(p)

	uv, err := svc.UVIndex(context.Background(), Coordinates{Lat: 0, Lon: 30})
	require.NoError(t, err)
	assert.Equal(t, 8.0, uv.Value)
	assert.Equal(t, "High", uv.Risk)
	assert.True(t, uv.Estimated)
	assert.Equal(t, []Units{UnitsMetric}, p.lastUnits)
}

func TestServiceAirQualityLabels(t *testing.T) {
	svc, _ := newTestService(&fakeProvider{air: AirQuality{AQI: 4}})

	aq, err := svc.AirQuality(context.Background(), Coordinates{})
	require.NoError(t, err)
	assert.Equal(t, "Poor", aq.AQILabel)
}

func TestServiceGeocodeNotFound(t *testing.T) {
	svc, _ := newTestService(&fakeProvider{})

	_, err := svc.Geocode(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.ReverseGeocode(context.Background(), Coordinates{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceCheckAlertsRecords(t *testing.T) {
	p := &fakeProvider{
		current: currentWeather(202, 3, 20, 90, 0),
		series:  ForecastSeries{Entries: slots(8)},
	}
	svc, st := newTestService(p)

	rec, err := svc.CheckAlerts(context.Background(), Place{Name: "Berlin", Lat: 52.52, Lon: 13.4})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "Berlin", rec.Name)
	assert.Equal(t, 1, rec.Report.Count)
	require.Len(t, st.alerts, 1)
	assert.Equal(t, rec, st.alerts[0])
	assert.Equal(t, []Units{UnitsMetric}, p.lastUnits)

	p.currentErr = errors.New("boom")
	_, err = svc.CheckAlerts(context.Background(), Place{Name: "Berlin"})
	assert.Error(t, err)
	assert.Len(t, st.alerts, 1)
}

func TestServiceStatusAndHistory(t *testing.T) {
	svc, st := newTestService(&fakeProvider{})

	check := svc.CreateStatusCheck("dashboard")
	assert.NotEmpty(t, check.ID)
	assert.Equal(t, "dashboard", check.ClientName)
	assert.Equal(t, []StatusCheck{check}, svc.StatusChecks())

	entry := svc.SaveSearch("Paris", "FR", Coordinates{Lat: 48.85, Lon: 2.35})
	assert.Equal(t, 48.85, entry.Lat)
	assert.Equal(t, []SearchEntry{entry}, st.searches)
}
