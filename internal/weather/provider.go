package weather

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when the upstream has no data for a query.
	ErrNotFound = errors.New("not found")
	// ErrProviderUnavailable is returned when the upstream cannot be reached.
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	// ErrMalformedResponse is returned when an upstream payload is incomplete.
	ErrMalformedResponse = errors.New("malformed provider response")
)

// Geocoder resolves place names to coordinates and back.
type Geocoder interface {
	Geocode(ctx context.Context, query string, limit int) ([]GeoLocation, error)
	ReverseGeocode(ctx context.Context, c Coordinates) ([]GeoLocation, error)
}

// Provider abstracts the upstream weather data source.
type Provider interface {
	Geocoder
	Name() string
	Current(ctx context.Context, c Coordinates, units Units) (CurrentWeather, error)
	Forecast(ctx context.Context, c Coordinates, units Units) (ForecastSeries, error)
	AirQuality(ctx context.Context, c Coordinates) (AirQuality, error)
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveStatusCheck(check StatusCheck)
	StatusChecks(limit int) []StatusCheck

	SaveSearch(entry SearchEntry)
	RecentSearches(limit int) []SearchEntry

	RecordAlerts(record AlertRecord)
	RecentAlerts(limit int) []AlertRecord
}
