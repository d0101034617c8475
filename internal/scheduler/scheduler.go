package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/power-user-weather/internal/weather"
)

const (
	defaultIntervalMinutes = 60
	jobTimeout             = 30 * time.Second
)

// Prewarmer builds and stores a report for one location.
type Prewarmer interface {
	FetchAndStore(ctx context.Context, loc weather.Location) error
}

// Scheduler periodically refreshes reports for configured locations, which
// also keeps the response cache warm.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Prewarmer
	locations []weather.Location
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(locations []weather.Location, interval time.Duration, service Prewarmer, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		locations: locations,
		interval:  interval,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.logger.Info("no locations configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = defaultIntervalMinutes
	}

	if _, err := s.scheduler.Every(minutes).Minutes().Do(func() { s.RunOnce() }); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce refreshes every location concurrently and returns the number of failures.
func (s *Scheduler) RunOnce() int {
	s.logger.Info("running prewarm job", "locations", len(s.locations))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures int
	)
	for _, loc := range s.locations {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()

			if err := s.service.FetchAndStore(ctx, loc); err != nil {
				s.logger.Warn("prewarm failed", "location", loc.Key(), "error", err)
				mu.Lock()
				failures++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.logger.Info("completed prewarm job", "failures", failures)
	return failures
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
