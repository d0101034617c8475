package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/power-user-weather/internal/cache"
	"github.com/i474232898/power-user-weather/internal/weather"
)

type stubFetcher struct {
	urls []string
	body string
	err  error
}

func (f *stubFetcher) Fetch(_ context.Context, rawURL string) ([]byte, error) {
	f.urls = append(f.urls, rawURL)
	return []byte(f.body), f.err
}

// redirectTransport sends every request to target, keeping path and query.
type redirectTransport struct {
	target *url.URL
	hosts  []string
}

func (rt *redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.hosts = append(rt.hosts, req.URL.Host)
	r := req.Clone(req.Context())
	r.URL.Scheme = rt.target.Scheme
	r.URL.Host = rt.target.Host
	r.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

func day(s string) time.Time {
	t, _ := weather.ParseDate(s)
	return t
}

func newDecoder() *weather.ColumnarDecoder {
	return weather.NewColumnarDecoder(weather.NewKeyResolver(weather.DefaultModelRegistry()))
}

func TestDailyURL(t *testing.T) {
	q := weather.DailyQuery{
		Source:   weather.ForecastStandard,
		Location: weather.Location{Lat: 47.6062, Lon: -122.3321},
		Start:    day("2026-02-13"),
		End:      day("2026-02-21"),
		Unit:     weather.Inches,
		Timezone: "America/Los_Angeles",
		Models:   []string{"best_match", "kma_gdps"},
		Measures: []string{"rain_sum", "snowfall_sum"},
	}

	raw, err := DailyURL(q)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "api.open-meteo.com", u.Host)
	assert.Equal(t, "/v1/forecast", u.Path)

	got := u.Query()
	assert.Equal(t, "47.6062", got.Get("latitude"))
	assert.Equal(t, "-122.3321", got.Get("longitude"))
	assert.Equal(t, "2026-02-13", got.Get("start_date"))
	assert.Equal(t, "2026-02-21", got.Get("end_date"))
	assert.Equal(t, "rain_sum,snowfall_sum", got.Get("daily"))
	assert.Equal(t, "inch", got.Get("precipitation_unit"))
	assert.Equal(t, "America/Los_Angeles", got.Get("timezone"))
	assert.Equal(t, "best_match,kma_gdps", got.Get("models"))

	again, err := DailyURL(q)
	require.NoError(t, err)
	assert.Equal(t, raw, again)

	t.Run("DefaultsAndNoModels", func(t *testing.T) {
		raw, err := DailyURL(weather.DailyQuery{
			Source:   weather.HistoricalArchive,
			Start:    day("2026-01-01"),
			End:      day("2026-01-02"),
			Measures: []string{"rain_sum"},
		})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(raw, "https://archive-api.open-meteo.com/v1/archive?"))

		u, _ := url.Parse(raw)
		assert.Equal(t, "mm", u.Query().Get("precipitation_unit"))
		assert.Equal(t, "UTC", u.Query().Get("timezone"))
		assert.False(t, u.Query().Has("models"))
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := DailyURL(weather.DailyQuery{Source: weather.Source(42), Measures: []string{"rain_sum"}})
		assert.Error(t, err)

		_, err = DailyURL(weather.DailyQuery{Source: weather.ForecastEnsemble})
		assert.Error(t, err)
	})
}

func TestOpenMeteoProviderFetchDaily(t *testing.T) {
	t.Run("DecodesFetchedBody", func(t *testing.T) {
		f := &stubFetcher{body: `{"daily":{"time":["2026-02-13","2026-02-14"],"rain_sum_best_match":[0.0,0.5]}}`}
		p := NewOpenMeteoProvider(f, newDecoder())

		ds, err := p.FetchAllSummable(context.Background(), weather.HistoricalArchive,
			weather.Location{Lat: 1, Lon: 2}, day("2026-02-13"), day("2026-02-14"), weather.Millimeters, "UTC")
		require.NoError(t, err)

		vals := ds.Fields[weather.MeasureAndModel{Measure: "rain_sum", Model: "best_match"}]
		require.Len(t, vals, 2)
		assert.Equal(t, 0.0, *vals[0])
		assert.Equal(t, 0.5, *vals[1])

		require.Len(t, f.urls, 1)
		u, _ := url.Parse(f.urls[0])
		assert.Equal(t, strings.Join(weather.HistoricalArchive.Models(), ","), u.Query().Get("models"))
		assert.Equal(t, "rain_sum,snowfall_sum,precipitation_sum,precipitation_hours", u.Query().Get("daily"))
	})

	t.Run("FetchError", func(t *testing.T) {
		p := NewOpenMeteoProvider(&stubFetcher{err: ErrNetwork}, newDecoder())
		_, err := p.FetchAllSummable(context.Background(), weather.ForecastStandard,
			weather.Location{}, day("2026-02-13"), day("2026-02-14"), weather.Millimeters, "UTC")
		assert.ErrorIs(t, err, ErrNetwork)
	})

	t.Run("DecodeError", func(t *testing.T) {
		p := NewOpenMeteoProvider(&stubFetcher{body: `{"daily":{"time":[],"rain_sum_mystery":[]}}`}, newDecoder())
		_, err := p.FetchAllSummable(context.Background(), weather.ForecastStandard,
			weather.Location{}, day("2026-02-13"), day("2026-02-14"), weather.Millimeters, "UTC")
		assert.ErrorIs(t, err, weather.ErrUnresolvableFieldKey)
	})

	t.Run("EndToEndThroughDiskCache", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			assert.Equal(t, "/v1/ensemble", r.URL.Path)
			_, _ = w.Write([]byte(`{"daily":{"time":["2026-02-13"],"precipitation_sum_icon_seamless_eps":[null]}}`))
		}))
		defer srv.Close()

		target, _ := url.Parse(srv.URL)
		rt := &redirectTransport{target: target}
		cfg := testHTTPConfig(0)
		cfg.Client.Transport = rt

		fetcher := NewCachedFetcher(cache.NewDiskCache(t.TempDir(), time.Hour), cfg, nil)
		p := NewOpenMeteoProvider(fetcher, newDecoder())

		for i := 0; i < 2; i++ {
			ds, err := p.FetchAllSummable(context.Background(), weather.ForecastEnsemble,
				weather.Location{Lat: 1, Lon: 2}, day("2026-02-13"), day("2026-02-13"), weather.Millimeters, "UTC")
			require.NoError(t, err)
			vals := ds.Fields[weather.MeasureAndModel{Measure: "precipitation_sum", Model: "icon_seamless_eps"}]
			require.Len(t, vals, 1)
			assert.Nil(t, vals[0])
		}

		assert.EqualValues(t, 1, calls.Load())
		assert.Equal(t, []string{"ensemble-api.open-meteo.com"}, rt.hosts)
	})
}

func TestOpenMeteoGeocoder(t *testing.T) {
	t.Run("FirstResultWithRegion", func(t *testing.T) {
		f := &stubFetcher{body: `{"results":[{"name":"Seattle","latitude":47.60621,"longitude":-122.33207,"admin1":"Washington","country":"United States"}]}`}
		g := NewOpenMeteoGeocoder(f)

		loc, err := g.Geocode(context.Background(), "Seattle", "US")
		require.NoError(t, err)
		assert.Equal(t, "Seattle, Washington", loc.Name)
		assert.Equal(t, "Seattle", loc.City)
		assert.Equal(t, "US", loc.Country)
		assert.InDelta(t, 47.60621, loc.Lat, 1e-9)
		assert.InDelta(t, -122.33207, loc.Lon, 1e-9)

		u, _ := url.Parse(f.urls[0])
		assert.Equal(t, "geocoding-api.open-meteo.com", u.Host)
		assert.Equal(t, "Seattle", u.Query().Get("name"))
		assert.Equal(t, "1", u.Query().Get("count"))
		assert.Equal(t, "US", u.Query().Get("countryCode"))
	})

	t.Run("FallsBackToCountryThenUnknown", func(t *testing.T) {
		g := NewOpenMeteoGeocoder(&stubFetcher{body: `{"results":[{"name":"Monaco","latitude":43.7,"longitude":7.4,"country":"Monaco"}]}`})
		loc, err := g.Geocode(context.Background(), "Monaco", "")
		require.NoError(t, err)
		assert.Equal(t, "Monaco, Monaco", loc.Name)

		g = NewOpenMeteoGeocoder(&stubFetcher{body: `{"results":[{"name":"Nowhere","latitude":0,"longitude":0}]}`})
		loc, err = g.Geocode(context.Background(), "Nowhere", "")
		require.NoError(t, err)
		assert.Equal(t, "Nowhere, Unknown", loc.Name)
	})

	t.Run("NotFound", func(t *testing.T) {
		g := NewOpenMeteoGeocoder(&stubFetcher{body: `{"generationtime_ms":0.5}`})
		_, err := g.Geocode(context.Background(), "Atlantis", "")
		assert.ErrorIs(t, err, ErrLocationNotFound)
	})

	t.Run("FetchFailure", func(t *testing.T) {
		g := NewOpenMeteoGeocoder(&stubFetcher{err: errors.New("offline")})
		_, err := g.Geocode(context.Background(), "Seattle", "")
		assert.EqualError(t, err, "fetch geocoding data: offline")
	})
}
