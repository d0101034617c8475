package providers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/kelvins/geocoder"
	"github.com/tidwall/gjson"

	"github.com/i474232898/power-user-weather/internal/weather"
)

// ErrLocationNotFound is returned when a geocoder has no match for a city.
var ErrLocationNotFound = errors.New("location not found")

const openMeteoGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"

// OpenMeteoGeocoder resolves city names with the Open-Meteo search API.
// Lookups go through the Fetcher, so repeated searches are served from cache.
type OpenMeteoGeocoder struct {
	fetcher Fetcher
	baseURL string
}

func NewOpenMeteoGeocoder(fetcher Fetcher) *OpenMeteoGeocoder {
	return &OpenMeteoGeocoder{fetcher: fetcher, baseURL: openMeteoGeocodingURL}
}

// Geocode returns the best match for city. A two-letter country is passed
// as an ISO country filter.
func (g *OpenMeteoGeocoder) Geocode(ctx context.Context, city, country string) (weather.Location, error) {
	values := url.Values{}
	values.Set("name", city)
	values.Set("count", "1")
	values.Set("language", "en")
	values.Set("format", "json")
	if len(country) == 2 {
		values.Set("countryCode", country)
	}

	body, err := g.fetcher.Fetch(ctx, g.baseURL+"?"+values.Encode())
	if err != nil {
		return weather.Location{}, fmt.Errorf("fetch geocoding data: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return weather.Location{}, fmt.Errorf("%w: geocoding response is not valid json", weather.ErrMalformedResponse)
	}

	results := gjson.GetBytes(body, "results").Array()
	if len(results) == 0 {
		return weather.Location{}, fmt.Errorf("%w: city %q", ErrLocationNotFound, city)
	}
	first := results[0]

	region := first.Get("admin1").String()
	if region == "" {
		region = first.Get("country").String()
	}
	if region == "" {
		region = "Unknown"
	}

	return weather.Location{
		Name:    fmt.Sprintf("%s, %s", first.Get("name").String(), region),
		City:    city,
		Country: country,
		Lat:     first.Get("latitude").Float(),
		Lon:     first.Get("longitude").Float(),
	}, nil
}

// GoogleGeocoder resolves city names with the Google Geocoding API.
type GoogleGeocoder struct{}

// geocoder keeps its API key in a package variable.
var googleKeyMu sync.Mutex

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	googleKeyMu.Lock()
	geocoder.ApiKey = apiKey
	googleKeyMu.Unlock()
	return &GoogleGeocoder{}
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, city, country string) (weather.Location, error) {
	if err := ctx.Err(); err != nil {
		return weather.Location{}, err
	}

	loc, err := geocoder.Geocoding(geocoder.Address{
		City:    city,
		Country: country,
	})
	if err != nil {
		return weather.Location{}, fmt.Errorf("%w: city %q: %w", ErrLocationNotFound, city, err)
	}

	name := city
	if country != "" {
		name = fmt.Sprintf("%s, %s", city, country)
	}
	return weather.Location{
		Name:    name,
		City:    city,
		Country: country,
		Lat:     loc.Latitude,
		Lon:     loc.Longitude,
	}, nil
}
