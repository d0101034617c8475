package weather

import (
	"errors"
	"time"
)

// ForecastHorizonDays is how far ahead the forecast endpoints serve data.
const ForecastHorizonDays = 16

// ErrInvalidPeriod is returned when the end date precedes the start date.
var ErrInvalidPeriod = errors.New("end date must not be before start date")

// PlanOptions selects which sources may be queried.
type PlanOptions struct {
	Historical bool
	Forecast   bool
	Ensemble   bool
}

// AllSources enables every source.
var AllSources = PlanOptions{Historical: true, Forecast: true, Ensemble: true}

// PlanWindows splits [start, end] into per-source request windows relative
// to today. Past days go to the archive (up to yesterday when the period
// spans today); today onwards goes to the forecast sources, capped at the
// forecast horizon.
func PlanWindows(start, end, today time.Time, opts PlanOptions) ([]Window, error) {
	start, end, today = Day(start), Day(end), Day(today)
	if end.Before(start) {
		return nil, ErrInvalidPeriod
	}

	horizon := today.AddDate(0, 0, ForecastHorizonDays)
	isHistorical := end.Before(today)
	isForecast := !start.After(horizon)
	isMixed := start.Before(today) && !end.Before(today)

	var windows []Window

	if opts.Historical && (isHistorical || isMixed) {
		histEnd := end
		if isMixed {
			histEnd = today.AddDate(0, 0, -1)
		}
		windows = append(windows, Window{Source: HistoricalArchive, Start: start, End: histEnd})
	}

	if opts.Forecast && isForecast {
		fcStart := start
		if isMixed {
			fcStart = today
		}
		fcEnd := end
		if end.After(horizon) {
			fcEnd = horizon
		}

		windows = append(windows, Window{Source: ForecastStandard, Start: fcStart, End: fcEnd})
		if opts.Ensemble {
			windows = append(windows, Window{Source: ForecastEnsemble, Start: fcStart, End: fcEnd})
		}
	}

	return windows, nil
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
