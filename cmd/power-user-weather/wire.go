package main

import (
	"log/slog"
	"net/http"

	"github.com/i474232898/power-user-weather/internal/cache"
	"github.com/i474232898/power-user-weather/internal/config"
	"github.com/i474232898/power-user-weather/internal/store"
	"github.com/i474232898/power-user-weather/internal/weather"
	"github.com/i474232898/power-user-weather/internal/weather/providers"
)

// components are the long-lived objects shared by every command.
type components struct {
	cache   *cache.DiskCache
	service *weather.Service
}

func wire(cfg *config.AppConfig, logger *slog.Logger) *components {
	diskCache := cache.NewDiskCache(cfg.CacheDir, cfg.CacheTTL, cache.WithLogger(logger))

	// Shared HTTP client for outbound Open-Meteo calls.
	httpCfg := providers.HTTPClientConfig{
		Client:  &http.Client{Timeout: cfg.HTTPTimeout},
		Backoff: providers.DefaultBackoff,
	}
	httpCfg.Backoff.MaxRetries = cfg.HTTPMaxRetries

	fetcher := providers.NewCachedFetcher(diskCache, httpCfg, logger)
	decoder := weather.NewColumnarDecoder(weather.NewKeyResolver(weather.DefaultModelRegistry()))
	provider := providers.NewOpenMeteoProvider(fetcher, decoder)

	var geocoder weather.Geocoder = providers.NewOpenMeteoGeocoder(fetcher)
	if cfg.GeocoderAPIKey != "" {
		geocoder = providers.NewGoogleGeocoder(cfg.GeocoderAPIKey)
	}

	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	service := weather.NewService(memStore, provider, geocoder, weather.ServiceConfig{
		Unit:          cfg.Unit,
		Timezone:      cfg.Timezone,
		LookbackDays:  cfg.PrewarmLookbackDays,
		LookaheadDays: cfg.PrewarmLookaheadDays,
	}, weather.WithLogger(logger))

	return &components{
		cache:   diskCache,
		service: service,
	}
}
