package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/power-user-weather/internal/weather"
)

// OpenMeteoProvider implements weather.DailyProvider for the Open-Meteo
// archive, forecast and ensemble endpoints.
type OpenMeteoProvider struct {
	name    string
	fetcher Fetcher
	decoder *weather.ColumnarDecoder
}

func NewOpenMeteoProvider(fetcher Fetcher, decoder *weather.ColumnarDecoder) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		fetcher: fetcher,
		decoder: decoder,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// FetchDaily requests the query's measures and models and decodes the columnar response.
func (p *OpenMeteoProvider) FetchDaily(ctx context.Context, q weather.DailyQuery) (*weather.ColumnarDataset, error) {
	u, err := DailyURL(q)
	if err != nil {
		return nil, err
	}

	body, err := p.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch %s data: %w", q.Source.Slug(), err)
	}

	ds, err := p.decoder.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s data: %w", q.Source.Slug(), err)
	}
	return ds, nil
}

// FetchAllSummable fetches every summable precipitation measure for every model of source.
func (p *OpenMeteoProvider) FetchAllSummable(
	ctx context.Context,
	source weather.Source,
	loc weather.Location,
	start, end time.Time,
	unit weather.PrecipitationUnit,
	timezone string,
) (*weather.ColumnarDataset, error) {
	return p.FetchDaily(ctx, weather.DailyQuery{
		Source:   source,
		Location: loc,
		Start:    start,
		End:      end,
		Unit:     unit,
		Timezone: timezone,
		Models:   source.Models(),
		Measures: source.SummableMeasures(),
	})
}

// DailyURL builds the request URL for q. The same query always yields the
// same URL so that it maps to the same cache entry.
func DailyURL(q weather.DailyQuery) (string, error) {
	base := q.Source.BaseURL()
	if base == "" {
		return "", fmt.Errorf("unknown source %v", q.Source)
	}
	if len(q.Measures) == 0 {
		return "", fmt.Errorf("no daily measures requested")
	}

	unit := q.Unit
	if unit == "" {
		unit = weather.Millimeters
	}
	tz := q.Timezone
	if tz == "" {
		tz = "UTC"
	}

	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(q.Location.Lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(q.Location.Lon, 'f', -1, 64))
	values.Set("start_date", q.Start.Format(weather.DateLayout))
	values.Set("end_date", q.End.Format(weather.DateLayout))
	values.Set("daily", strings.Join(q.Measures, ","))
	values.Set("precipitation_unit", string(unit))
	values.Set("timezone", tz)
	if len(q.Models) > 0 {
		values.Set("models", strings.Join(q.Models, ","))
	}

	return fmt.Sprintf("%s?%s", base, values.Encode()), nil
}
