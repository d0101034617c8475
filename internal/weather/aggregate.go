package weather

import "sort"

// Total is the period sum of one series. Days counts the non-missing values
// that went into it.
type Total struct {
	MeasureAndModel
	Total float64 `json:"total"`
	Days  int     `json:"days"`
}

// Totals sums every series over the period, skipping missing days.
// Results are ordered by model, then measure.
func Totals(ds *ColumnarDataset) []Total {
	if ds == nil {
		return nil
	}

	keys := ds.Keys()
	totals := make([]Total, 0, len(keys))
	for _, k := range keys {
		t := Total{MeasureAndModel: k}
		for _, v := range ds.Fields[k] {
			if v == nil {
				continue
			}
			t.Total += *v
			t.Days++
		}
		totals = append(totals, t)
	}
	return totals
}

// DailyEntry is one series value on one date.
type DailyEntry struct {
	Model   string   `json:"model"`
	Measure string   `json:"measure"`
	Value   *float64 `json:"value"`
}

// DayBreakdown groups every series value reported for a date.
type DayBreakdown struct {
	Date    string       `json:"date"`
	Entries []DailyEntry `json:"entries"`
}

// ByDate regroups the dataset per date, dates ascending and entries ordered
// by model then measure. Series shorter than the time axis contribute only
// the days they have.
func ByDate(ds *ColumnarDataset) []DayBreakdown {
	if ds == nil {
		return nil
	}

	byDate := make(map[string][]DailyEntry)
	for _, k := range ds.Keys() {
		values := ds.Fields[k]
		for i, date := range ds.Time {
			if i >= len(values) {
				break
			}
			byDate[date] = append(byDate[date], DailyEntry{
				Model:   k.Model,
				Measure: k.Measure,
				Value:   values[i],
			})
		}
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]DayBreakdown, 0, len(dates))
	for _, d := range dates {
		out = append(out, DayBreakdown{Date: d, Entries: byDate[d]})
	}
	return out
}

// DailySpread summarizes one measure across models for a date. Members is
// the number of models that reported a value.
type DailySpread struct {
	Date    string  `json:"date"`
	Min     float64 `json:"min"`
	Mean    float64 `json:"mean"`
	Max     float64 `json:"max"`
	Members int     `json:"members"`
}

// EnsembleSpread computes per-day min, mean and max of measure across every
// model in the dataset. Days where no model reported a value are omitted.
func EnsembleSpread(ds *ColumnarDataset, measure string) []DailySpread {
	if ds == nil {
		return nil
	}

	var series [][]*float64
	for k, values := range ds.Fields {
		if k.Measure == measure {
			series = append(series, values)
		}
	}

	var out []DailySpread
	for i, date := range ds.Time {
		var (
			s   = DailySpread{Date: date}
			sum float64
		)
		for _, values := range series {
			if i >= len(values) || values[i] == nil {
				continue
			}
			v := *values[i]
			if s.Members == 0 || v < s.Min {
				s.Min = v
			}
			if s.Members == 0 || v > s.Max {
				s.Max = v
			}
			sum += v
			s.Members++
		}
		if s.Members == 0 {
			continue
		}
		s.Mean = sum / float64(s.Members)
		out = append(out, s)
	}
	return out
}
