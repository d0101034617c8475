package weather

import (
	"context"
	"time"
)

// DailyQuery describes one daily-data request against a source.
type DailyQuery struct {
	Source   Source
	Location Location
	Start    time.Time
	End      time.Time
	Unit     PrecipitationUnit
	Timezone string
	Models   []string
	Measures []string
}

// DailyProvider abstracts an upstream daily data API (e.g. Open-Meteo).
type DailyProvider interface {
	FetchDaily(ctx context.Context, q DailyQuery) (*ColumnarDataset, error)
}

// Geocoder resolves a city name to coordinates. Implementations keep the
// city and country they were given on the returned Location.
type Geocoder interface {
	Geocode(ctx context.Context, city, country string) (Location, error)
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveReport(loc Location, report Report)
	GetLatest(loc Location) (Report, error)
	GetRange(loc Location, from, to time.Time) ([]Report, error)
}
