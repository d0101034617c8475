package weather

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// DateLayout is the calendar-day format used by the upstream API and in reports.
const DateLayout = "2006-01-02"

// Source identifies one of the upstream daily data endpoints.
type Source int

const (
	HistoricalArchive Source = iota
	ForecastStandard
	ForecastEnsemble
)

// Sources lists every source in display order.
var Sources = []Source{HistoricalArchive, ForecastStandard, ForecastEnsemble}

func (s Source) String() string {
	switch s {
	case HistoricalArchive:
		return "Historical Archive"
	case ForecastStandard:
		return "Standard Forecast"
	case ForecastEnsemble:
		return "Ensemble Forecast"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// Slug is the short machine name used in JSON and query parameters.
func (s Source) Slug() string {
	switch s {
	case HistoricalArchive:
		return "historical"
	case ForecastStandard:
		return "forecast"
	case ForecastEnsemble:
		return "ensemble"
	default:
		return "unknown"
	}
}

// BaseURL is the endpoint serving daily data for the source.
func (s Source) BaseURL() string {
	switch s {
	case HistoricalArchive:
		return "https://archive-api.open-meteo.com/v1/archive"
	case ForecastStandard:
		return "https://api.open-meteo.com/v1/forecast"
	case ForecastEnsemble:
		return "https://ensemble-api.open-meteo.com/v1/ensemble"
	default:
		return ""
	}
}

func (s Source) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slug())
}

// PrecipitationUnit is the unit requested from the upstream API.
type PrecipitationUnit string

const (
	Millimeters PrecipitationUnit = "mm"
	Inches      PrecipitationUnit = "inch"
)

// ParsePrecipitationUnit accepts "mm" or "inch".
func ParsePrecipitationUnit(s string) (PrecipitationUnit, error) {
	switch PrecipitationUnit(s) {
	case Millimeters, Inches:
		return PrecipitationUnit(s), nil
	default:
		return "", fmt.Errorf("invalid precipitation unit: %q (want mm or inch)", s)
	}
}

// Location represents a place we fetch precipitation for.
// Lat/Lon are always set; City/Country are set when the location was geocoded.
type Location struct {
	Name    string  `json:"name"`
	City    string  `json:"city,omitempty"`
	Country string  `json:"country,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	if l.City != "" {
		return l.City + ":" + l.Country
	}
	return fmt.Sprintf("%.4f,%.4f", l.Lat, l.Lon)
}

// MeasureAndModel identifies one value series in a daily response.
type MeasureAndModel struct {
	Measure string `json:"measure"`
	Model   string `json:"model"`
}

func (m MeasureAndModel) String() string {
	return m.Measure + "_" + m.Model
}

// ColumnarDataset is a decoded daily response: one time axis and one value
// series per (measure, model). A nil value means the day is missing.
//
// Series are expected to be as long as Time but this is not checked;
// readers must bounds-check.
type ColumnarDataset struct {
	Time   []string
	Fields map[MeasureAndModel][]*float64
}

// Keys returns the series keys sorted by model, then measure.
func (d *ColumnarDataset) Keys() []MeasureAndModel {
	keys := make([]MeasureAndModel, 0, len(d.Fields))
	for k := range d.Fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Model != keys[j].Model {
			return keys[i].Model < keys[j].Model
		}
		return keys[i].Measure < keys[j].Measure
	})
	return keys
}

// Series is the JSON form of one dataset column.
type Series struct {
	MeasureAndModel
	Values []*float64 `json:"values"`
}

func (d *ColumnarDataset) MarshalJSON() ([]byte, error) {
	keys := d.Keys()
	series := make([]Series, 0, len(keys))
	for _, k := range keys {
		series = append(series, Series{MeasureAndModel: k, Values: d.Fields[k]})
	}
	return json.Marshal(struct {
		Time   []string `json:"time"`
		Series []Series `json:"series"`
	}{Time: d.Time, Series: series})
}

// Window is a date range to request from one source. Dates are whole days.
type Window struct {
	Source Source    `json:"source"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// SourceReport is the outcome of fetching one window.
type SourceReport struct {
	Window
	Dataset *ColumnarDataset `json:"dataset,omitempty"`
	Totals  []Total          `json:"totals,omitempty"`
	Spread  []DailySpread    `json:"spread,omitempty"`
	Err     error            `json:"-"`
	Error   string           `json:"error,omitempty"`
}

// Report is the normalized multi-source precipitation view for a location and period.
type Report struct {
	Location    Location          `json:"location"`
	Start       time.Time         `json:"start"`
	End         time.Time         `json:"end"`
	Unit        PrecipitationUnit `json:"unit"`
	Timezone    string            `json:"timezone"`
	GeneratedAt time.Time         `json:"generatedAt"` // always UTC
	Sources     []SourceReport    `json:"sources"`
}
