package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-insights/internal/common"
	"github.com/i474232898/weather-insights/internal/weather"
)

type AppConfig struct {
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	OpenWeatherGeoURL  string

	// Outbound HTTP settings.
	HTTPTimeout   time.Duration
	ProviderRPS   float64
	ProviderBurst int

	// AlertCheckInterval controls how often watched places are evaluated.
	AlertCheckInterval time.Duration

	// Places evaluated by the alert watcher.
	WatchPlaces []weather.Place

	// In-memory store retention.
	StoreMaxHistory int           // max number of records per kind (0 = unlimited)
	StoreMaxAge     time.Duration // max age of records (0 = unlimited)

	CORSOrigins []string
	Port        string
}

// watchFile is the YAML layout of WATCH_FILE.
type watchFile struct {
	Places []weather.Place `yaml:"places"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = os.Getenv("OPENWEATHER_BASE_URL")
	cfg.OpenWeatherGeoURL = os.Getenv("OPENWEATHER_GEO_URL")

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	rps, err := strconv.ParseFloat(getenvDefault("PROVIDER_RPS", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PROVIDER_RPS: %w", err)
	}
	cfg.ProviderRPS = rps
	cfg.ProviderBurst = getenvInt("PROVIDER_BURST", 5)

	// Alert watcher interval: default 15 minutes.
	interval, err := time.ParseDuration(getenvDefault("ALERT_CHECK_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ALERT_CHECK_INTERVAL: %w", err)
	}
	cfg.AlertCheckInterval = interval

	// Store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 1000)

	maxAge, err := time.ParseDuration(getenvDefault("STORE_MAX_AGE", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge

	cfg.CORSOrigins = common.SplitList(getenvDefault("CORS_ORIGINS", "*"))
	cfg.Port = getenvDefault("PORT", "8080")

	places, err := loadWatchPlaces()
	if err != nil {
		return nil, err
	}
	cfg.WatchPlaces = places

	return cfg, nil
}

// loadWatchPlaces merges places from WATCH_FILE and WATCH_LOCATIONS.
func loadWatchPlaces() ([]weather.Place, error) {
	defaultUnits, err := weather.ParseUnits(os.Getenv("WATCH_UNITS"))
	if err != nil {
		return nil, fmt.Errorf("invalid WATCH_UNITS: %w", err)
	}

	var places []weather.Place

	if path := os.Getenv("WATCH_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read watch file %s: %w", path, err)
		}
		filePlaces, err := parseWatchFile(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse watch file %s: %w", path, err)
		}
		places = append(places, filePlaces...)
	}

	envPlaces, err := parseWatchLocations(os.Getenv("WATCH_LOCATIONS"))
	if err != nil {
		return nil, err
	}
	places = append(places, envPlaces...)

	for i := range places {
		if places[i].Units == "" {
			places[i].Units = defaultUnits
		}
		if _, err := weather.ParseUnits(string(places[i].Units)); err != nil {
			return nil, fmt.Errorf("watch place %q: %w", places[i].Name, err)
		}
		if err := weather.ValidateCoordinates(places[i].Coordinates()); err != nil {
			return nil, fmt.Errorf("watch place %q: %w", places[i].Name, err)
		}
	}

	return places, nil
}

func parseWatchFile(data []byte) ([]weather.Place, error) {
	var wf watchFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, err
	}
	return wf.Places, nil
}

// parseWatchLocations parses "name:lat:lon" items separated by commas.
func parseWatchLocations(s string) ([]weather.Place, error) {
	var places []weather.Place
	for _, item := range common.SplitList(s) {
		parts := strings.Split(item, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid WATCH_LOCATIONS item %q: want name:lat:lon", item)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in WATCH_LOCATIONS item %q: %w", item, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in WATCH_LOCATIONS item %q: %w", item, err)
		}
		places = append(places, weather.Place{
			Name: strings.TrimSpace(parts[0]),
			Lat:  lat,
			Lon:  lon,
		})
	}
	return places, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
