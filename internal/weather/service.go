package weather

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	geocodeLimit = 5
	// statusCheckLimit caps how many status checks are listed.
	statusCheckLimit = 1000
)

// Service orchestrates the upstream provider, the derivation engine and the store.
type Service struct {
	store    Store
	provider Provider
	now      func() time.Time
}

// NewService creates a new Service.
func NewService(store Store, provider Provider) *Service {
	return &Service{
		store:    store,
		provider: provider,
		now:      time.Now,
	}
}

// Geocode searches for places matching a name.
func (s *Service) Geocode(ctx context.Context, query string) ([]GeoLocation, error) {
	locs, err := s.provider.Geocode(ctx, query, geocodeLimit)
	if err != nil {
		return nil, err
	}
	if len(locs) == 0 {
		return nil, fmt.Errorf("%w: city %q", ErrNotFound, query)
	}
	return locs, nil
}

// ReverseGeocode returns the place nearest to the coordinates.
func (s *Service) ReverseGeocode(ctx context.Context, c Coordinates) (GeoLocation, error) {
	locs, err := s.provider.ReverseGeocode(ctx, c)
	if err != nil {
		return GeoLocation{}, err
	}
	if len(locs) == 0 {
		return GeoLocation{}, fmt.Errorf("%w: location %s", ErrNotFound, c.Key())
	}
	return locs[0], nil
}

// Current returns the current weather view.
func (s *Service) Current(ctx context.Context, c Coordinates, units Units) (CurrentWeather, error) {
	return s.provider.Current(ctx, c, units)
}

// Forecast fetches the 3-hour forecast and summarizes it in the city's zone.
func (s *Service) Forecast(ctx context.Context, c Coordinates, units Units) (ForecastSummary, error) {
	series, err := s.provider.Forecast(ctx, c, units)
	if err != nil {
		return ForecastSummary{}, err
	}
	return SummarizeForecast(series.Entries, offsetZone(series.TimezoneOffset))
}

// AirQuality returns the latest air quality reading with its label.
func (s *Service) AirQuality(ctx context.Context, c Coordinates) (AirQuality, error) {
	aq, err := s.provider.AirQuality(ctx, c)
	if err != nil {
		return AirQuality{}, err
	}
	aq.AQILabel = AirQualityLabel(aq.AQI)
	return aq, nil
}

// UVIndex estimates the UV index from metric current conditions and the
// location's local hour.
func (s *Service) UVIndex(ctx context.Context, c Coordinates) (UVEstimate, error) {
	current, err := s.provider.Current(ctx, c, UnitsMetric)
	if err != nil {
		return UVEstimate{}, err
	}
	hour := s.now().In(offsetZone(current.TimezoneOffset)).Hour()
	return EstimateUV(c.Lat, current.Conditions.CloudPct, hour)
}

// Alerts fetches current conditions and the forecast concurrently and runs
// the alert rules over them.
func (s *Service) Alerts(ctx context.Context, c Coordinates, units Units) (AlertReport, error) {
	var (
		wg                      sync.WaitGroup
		current                 CurrentWeather
		series                  ForecastSeries
		currentErr, forecastErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		current, currentErr = s.provider.Current(ctx, c, units)
	}()
	go func() {
		defer wg.Done()
		series, forecastErr = s.provider.Forecast(ctx, c, units)
	}()
	wg.Wait()

	if currentErr != nil {
		return AlertReport{}, currentErr
	}
	if forecastErr != nil {
		return AlertReport{}, forecastErr
	}

	return DetectAlerts(AlertInput{
		Current:  current.Conditions,
		Forecast: series.Entries,
		Units:    units,
		Location: offsetZone(series.TimezoneOffset),
	})
}

// CheckAlerts evaluates alerts for a watched place and records the result.
func (s *Service) CheckAlerts(ctx context.Context, p Place) (AlertRecord, error) {
	units := p.Units
	if units == "" {
		units = UnitsMetric
	}

	report, err := s.Alerts(ctx, p.Coordinates(), units)
	if err != nil {
		return AlertRecord{}, err
	}

	record := AlertRecord{
		ID:        uuid.NewString(),
		Name:      p.Name,
		Location:  p.Coordinates(),
		Report:    report,
		Timestamp: s.now().UTC(),
	}
	s.store.RecordAlerts(record)

	if report.HasWarnings {
		log.Printf("WARN: %d alert(s) with warnings for %s (%s)", report.Count, p.Name, p.Coordinates().Key())
	} else {
		log.Printf("DEBUG: %d alert(s) for %s (%s)", report.Count, p.Name, p.Coordinates().Key())
	}
	return record, nil
}

// RecentAlerts returns logged alert evaluations, newest first.
func (s *Service) RecentAlerts(limit int) []AlertRecord {
	return s.store.RecentAlerts(limit)
}

// CreateStatusCheck records a client ping.
func (s *Service) CreateStatusCheck(clientName string) StatusCheck {
	check := StatusCheck{
		ID:         uuid.NewString(),
		ClientName: clientName,
		Timestamp:  s.now().UTC(),
	}
	s.store.SaveStatusCheck(check)
	return check
}

// StatusChecks lists recorded status checks in insertion order.
func (s *Service) StatusChecks() []StatusCheck {
	return s.store.StatusChecks(statusCheckLimit)
}

// SaveSearch adds a location search to the history.
func (s *Service) SaveSearch(city, country string, c Coordinates) SearchEntry {
	entry := SearchEntry{
		ID:        uuid.NewString(),
		City:      city,
		Lat:       c.Lat,
		Lon:       c.Lon,
		Country:   country,
		Timestamp: s.now().UTC(),
	}
	s.store.SaveSearch(entry)
	return entry
}

// RecentSearches returns the newest searches first.
func (s *Service) RecentSearches(limit int) []SearchEntry {
	return s.store.RecentSearches(limit)
}

// offsetZone builds a fixed zone from a UTC offset in seconds.
func offsetZone(offset int) *time.Location {
	if offset == 0 {
		return time.UTC
	}
	return time.FixedZone("", offset)
}
