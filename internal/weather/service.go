package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoWindows is returned when no enabled source covers the requested period.
	ErrNoWindows = errors.New("no data source covers the requested period")
	// ErrNoData is returned when every source failed.
	ErrNoData = errors.New("no data retrieved from any source")
)

// SpreadMeasure is the measure summarized across ensemble models.
const SpreadMeasure = "precipitation_sum"

// ServiceConfig holds defaults for requests that leave fields empty and the
// rolling window used by FetchAndStore.
type ServiceConfig struct {
	Unit          PrecipitationUnit
	Timezone      string
	LookbackDays  int
	LookaheadDays int
}

// Service orchestrates geocoding, multi-source fetching and report storage.
type Service struct {
	store    Store
	provider DailyProvider
	geocoder Geocoder
	cfg      ServiceConfig
	logger   *slog.Logger
	now      func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithClock overrides the clock used to decide which dates are past or future.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new Service.
func NewService(store Store, provider DailyProvider, geocoder Geocoder, cfg ServiceConfig, opts ...ServiceOption) *Service {
	if cfg.Unit == "" {
		cfg.Unit = Millimeters
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	s := &Service{
		store:    store,
		provider: provider,
		geocoder: geocoder,
		cfg:      cfg,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CompareRequest asks for every enabled source over a period.
type CompareRequest struct {
	Location Location
	Start    time.Time
	End      time.Time
	Unit     PrecipitationUnit
	Timezone string
	Sources  PlanOptions
}

// Locate geocodes a city.
func (s *Service) Locate(ctx context.Context, city, country string) (Location, error) {
	if s.geocoder == nil {
		return Location{}, errors.New("no geocoder configured")
	}
	return s.geocoder.Geocode(ctx, city, country)
}

// Compare fetches every planned source window concurrently. A failing source
// is recorded on its SourceReport and does not affect the others; Compare
// fails only when nothing could be fetched.
func (s *Service) Compare(ctx context.Context, req CompareRequest) (*Report, error) {
	if req.Unit == "" {
		req.Unit = s.cfg.Unit
	}
	if req.Timezone == "" {
		req.Timezone = s.cfg.Timezone
	}

	windows, err := PlanWindows(req.Start, req.End, s.now(), req.Sources)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, ErrNoWindows
	}

	s.logger.Debug("comparing sources", "location", req.Location.Key(), "windows", len(windows))

	results := make([]SourceReport, len(windows))
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range windows {
		g.Go(func() error {
			results[i] = s.fetchWindow(gctx, req, w)
			// Source failures are isolated; never cancel the siblings.
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Source, r.Err))
		}
	}
	if len(errs) == len(results) {
		return nil, fmt.Errorf("%w: %w", ErrNoData, errors.Join(errs...))
	}

	return &Report{
		Location:    req.Location,
		Start:       Day(req.Start),
		End:         Day(req.End),
		Unit:        req.Unit,
		Timezone:    req.Timezone,
		GeneratedAt: s.now().UTC(),
		Sources:     results,
	}, nil
}

func (s *Service) fetchWindow(ctx context.Context, req CompareRequest, w Window) SourceReport {
	r := SourceReport{Window: w}

	ds, err := s.provider.FetchDaily(ctx, DailyQuery{
		Source:   w.Source,
		Location: req.Location,
		Start:    w.Start,
		End:      w.End,
		Unit:     req.Unit,
		Timezone: req.Timezone,
		Models:   w.Source.Models(),
		Measures: w.Source.SummableMeasures(),
	})
	if err != nil {
		s.logger.Warn("source fetch failed", "source", w.Source.Slug(), "location", req.Location.Key(), "error", err)
		r.Err = err
		r.Error = err.Error()
		return r
	}

	r.Dataset = ds
	r.Totals = Totals(ds)
	if w.Source == ForecastEnsemble {
		r.Spread = EnsembleSpread(ds, SpreadMeasure)
	}
	return r
}

// FetchAndStore builds a report for loc over the configured rolling window
// around today and saves it. Locations carrying a city are geocoded first.
func (s *Service) FetchAndStore(ctx context.Context, loc Location) error {
	target := loc
	if loc.City != "" {
		geo, err := s.Locate(ctx, loc.City, loc.Country)
		if err != nil {
			return fmt.Errorf("geocode %s: %w", loc.Key(), err)
		}
		target = geo
		target.City, target.Country = loc.City, loc.Country
	}

	today := Day(s.now())
	report, err := s.Compare(ctx, CompareRequest{
		Location: target,
		Start:    today.AddDate(0, 0, -s.cfg.LookbackDays),
		End:      today.AddDate(0, 0, s.cfg.LookaheadDays),
		Sources:  AllSources,
	})
	if err != nil {
		return err
	}

	s.store.SaveReport(target, *report)
	s.logger.Info("stored precipitation report", "location", target.Key(), "sources", len(report.Sources))
	return nil
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(loc Location) (Report, error) {
	return s.store.GetLatest(loc)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(loc Location, from, to time.Time) ([]Report, error) {
	return s.store.GetRange(loc, from, to)
}
