package weather

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu      sync.Mutex
	queries []DailyQuery
	fail    map[Source]error
}

func (p *fakeProvider) FetchDaily(_ context.Context, q DailyQuery) (*ColumnarDataset, error) {
	p.mu.Lock()
	p.queries = append(p.queries, q)
	p.mu.Unlock()

	if err := p.fail[q.Source]; err != nil {
		return nil, err
	}
	v := 1.5
	return &ColumnarDataset{
		Time: []string{q.Start.Format(DateLayout)},
		Fields: map[MeasureAndModel][]*float64{
			{Measure: "precipitation_sum", Model: q.Models[0]}: {&v},
		},
	}, nil
}

type fakeGeocoder struct{}

func (fakeGeocoder) Geocode(_ context.Context, city, country string) (Location, error) {
	if city == "Nowhere" {
		return Location{}, errors.New("not found")
	}
	return Location{Name: city + ", Somewhere", City: city, Country: country, Lat: 47.6, Lon: -122.3}, nil
}

type fakeStore struct {
	saved map[string]Report
}

func (s *fakeStore) SaveReport(loc Location, r Report) { s.saved[loc.Key()] = r }
func (s *fakeStore) GetLatest(loc Location) (Report, error) {
	r, ok := s.saved[loc.Key()]
	if !ok {
		return Report{}, errors.New("not found")
	}
	return r, nil
}
func (s *fakeStore) GetRange(Location, time.Time, time.Time) ([]Report, error) { return nil, nil }

func newTestService(p *fakeProvider, st *fakeStore) *Service {
	today := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return NewService(st, p, fakeGeocoder{}, ServiceConfig{LookbackDays: 3, LookaheadDays: 3},
		WithClock(func() time.Time { return today }))
}

func TestServiceCompare(t *testing.T) {
	loc := Location{Name: "Seattle", Lat: 47.6, Lon: -122.3}

	t.Run("AllSourcesFetched", func(t *testing.T) {
		p := &fakeProvider{}
		svc := newTestService(p, nil)

		report, err := svc.Compare(context.Background(), CompareRequest{
			Location: loc,
			Start:    date("2026-03-08"),
			End:      date("2026-03-12"),
			Sources:  AllSources,
		})
		require.NoError(t, err)

		require.Len(t, report.Sources, 3)
		assert.Equal(t, Millimeters, report.Unit)
		assert.Equal(t, "UTC", report.Timezone)
		for _, sr := range report.Sources {
			assert.NoError(t, sr.Err)
			require.Len(t, sr.Totals, 1)
			assert.Equal(t, 1.5, sr.Totals[0].Total)
		}

		assert.Equal(t, HistoricalArchive, report.Sources[0].Source)
		assert.Empty(t, report.Sources[0].Spread)
		assert.Equal(t, ForecastEnsemble, report.Sources[2].Source)
		require.Len(t, report.Sources[2].Spread, 1)
		assert.Equal(t, 1, report.Sources[2].Spread[0].Members)

		require.Len(t, p.queries, 3)
		for _, q := range p.queries {
			assert.Equal(t, q.Source.Models(), q.Models)
			assert.Equal(t, q.Source.SummableMeasures(), q.Measures)
		}
	})

	t.Run("PartialFailureIsolated", func(t *testing.T) {
		p := &fakeProvider{fail: map[Source]error{ForecastEnsemble: errors.New("boom")}}
		svc := newTestService(p, nil)

		report, err := svc.Compare(context.Background(), CompareRequest{
			Location: loc,
			Start:    date("2026-03-08"),
			End:      date("2026-03-12"),
			Unit:     Inches,
			Sources:  AllSources,
		})
		require.NoError(t, err)
		assert.Equal(t, Inches, report.Unit)
		require.Len(t, report.Sources, 3)
		assert.NoError(t, report.Sources[0].Err)
		assert.NoError(t, report.Sources[1].Err)
		assert.EqualError(t, report.Sources[2].Err, "boom")
		assert.Equal(t, "boom", report.Sources[2].Error)
		assert.Nil(t, report.Sources[2].Dataset)
	})

	t.Run("AllFailed", func(t *testing.T) {
		boom := errors.New("boom")
		p := &fakeProvider{fail: map[Source]error{HistoricalArchive: boom, ForecastStandard: boom}}
		svc := newTestService(p, nil)

		_, err := svc.Compare(context.Background(), CompareRequest{
			Location: loc,
			Start:    date("2026-03-08"),
			End:      date("2026-03-12"),
			Sources:  PlanOptions{Historical: true, Forecast: true},
		})
		assert.ErrorIs(t, err, ErrNoData)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("NoWindows", func(t *testing.T) {
		svc := newTestService(&fakeProvider{}, nil)
		_, err := svc.Compare(context.Background(), CompareRequest{
			Location: loc,
			Start:    date("2026-06-01"),
			End:      date("2026-06-10"),
			Sources:  AllSources,
		})
		assert.ErrorIs(t, err, ErrNoWindows)
	})

	t.Run("InvalidPeriod", func(t *testing.T) {
		svc := newTestService(&fakeProvider{}, nil)
		_, err := svc.Compare(context.Background(), CompareRequest{
			Start:   date("2026-03-12"),
			End:     date("2026-03-08"),
			Sources: AllSources,
		})
		assert.ErrorIs(t, err, ErrInvalidPeriod)
	})
}

func TestServiceFetchAndStore(t *testing.T) {
	t.Run("GeocodesAndStoresUnderCityKey", func(t *testing.T) {
		p := &fakeProvider{}
		st := &fakeStore{saved: make(map[string]Report)}
		svc := newTestService(p, st)

		loc := Location{City: "Seattle", Country: "US"}
		require.NoError(t, svc.FetchAndStore(context.Background(), loc))

		report, err := svc.GetLatest(loc)
		require.NoError(t, err)
		assert.Equal(t, 47.6, report.Location.Lat)
		assert.Equal(t, date("2026-03-07"), report.Start)
		assert.Equal(t, date("2026-03-13"), report.End)
		assert.Len(t, report.Sources, 3)
	})

	t.Run("GeocodeFailure", func(t *testing.T) {
		st := &fakeStore{saved: make(map[string]Report)}
		svc := newTestService(&fakeProvider{}, st)

		err := svc.FetchAndStore(context.Background(), Location{City: "Nowhere"})
		require.Error(t, err)
		assert.Empty(t, st.saved)
	})
}
