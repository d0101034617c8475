package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/power-user-weather/internal/cache"
	"github.com/i474232898/power-user-weather/internal/weather"
)

type AppConfig struct {
	// Response cache.
	CacheDir string
	CacheTTL time.Duration

	// Outbound HTTP.
	HTTPTimeout    time.Duration
	HTTPMaxRetries int

	// GeocoderAPIKey enables the Google geocoder; Open-Meteo search is used otherwise.
	GeocoderAPIKey string

	// Request defaults.
	Unit     weather.PrecipitationUnit
	Timezone string

	// PrewarmInterval controls how often reports are refreshed for each location.
	PrewarmInterval      time.Duration
	PrewarmLookbackDays  int
	PrewarmLookaheadDays int

	// Locations to keep warm.
	Locations []weather.Location

	// In-memory store retention.
	StoreMaxHistory int           // max number of reports per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of reports (0 = unlimited)

	LogLevel string
	Port     string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	cfg := &AppConfig{}

	cfg.CacheDir = os.Getenv("CACHE_DIR")
	if cfg.CacheDir == "" {
		dir, err := cache.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
		cfg.CacheDir = dir
	}

	var err error
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", cache.DefaultTTL); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	cfg.HTTPMaxRetries = getenvInt("HTTP_MAX_RETRIES", 2)
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	if cfg.Unit, err = weather.ParsePrecipitationUnit(getenvDefault("PRECIPITATION_UNIT", string(weather.Millimeters))); err != nil {
		return nil, fmt.Errorf("invalid PRECIPITATION_UNIT: %w", err)
	}
	cfg.Timezone = getenvDefault("TIMEZONE", "UTC")

	if cfg.PrewarmInterval, err = getenvDuration("PREWARM_INTERVAL", 60*time.Minute); err != nil {
		return nil, err
	}
	cfg.PrewarmLookbackDays = getenvInt("PREWARM_LOOKBACK_DAYS", 7)
	cfg.PrewarmLookaheadDays = getenvInt("PREWARM_LOOKAHEAD_DAYS", 7)

	// Store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 48) // roughly 48h at hourly refreshes
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", 48*time.Hour); err != nil {
		return nil, err
	}

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.Port = getenvDefault("PORT", "8080")

	locs, err := loadLocations()
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	return cfg, nil
}

// loadLocations pairs the comma-separated city and country lists. Countries
// may be omitted entirely.
func loadLocations() ([]weather.Location, error) {
	city := strings.TrimSpace(os.Getenv("WEATHER_LOCATION_CITY"))
	if city == "" {
		return nil, nil
	}
	cities := strings.Split(city, ",")

	var countries []string
	if country := strings.TrimSpace(os.Getenv("WEATHER_LOCATION_COUNTRY")); country != "" {
		countries = strings.Split(country, ",")
		if len(cities) != len(countries) {
			return nil, fmt.Errorf("number of cities and countries must be the same")
		}
	}

	var locs []weather.Location
	for i := range cities {
		loc := weather.Location{City: strings.TrimSpace(cities[i])}
		if loc.City == "" {
			return nil, fmt.Errorf("empty city at position %d in WEATHER_LOCATION_CITY", i+1)
		}
		if countries != nil {
			loc.Country = strings.TrimSpace(countries[i])
		}
		locs = append(locs, loc)
	}

	return locs, nil
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

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
