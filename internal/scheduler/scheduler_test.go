package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/power-user-weather/internal/weather"
)

type recordingPrewarmer struct {
	mu   sync.Mutex
	seen []string
	fail map[string]bool
}

func (p *recordingPrewarmer) FetchAndStore(ctx context.Context, loc weather.Location) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, loc.Key())
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("no deadline")
	}
	if p.fail[loc.City] {
		return errors.New("upstream down")
	}
	return nil
}

func (p *recordingPrewarmer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}

func TestRunOnce(t *testing.T) {
	p := &recordingPrewarmer{fail: map[string]bool{"Bergen": true}}
	s := New([]weather.Location{
		{City: "Seattle", Country: "US"},
		{City: "Bergen", Country: "NO"},
		{Lat: 1, Lon: 2},
	}, time.Hour, p, nil)

	failures := s.RunOnce()

	assert.Equal(t, 1, failures)
	assert.ElementsMatch(t, []string{"Seattle:US", "Bergen:NO", "1.0000,2.0000"}, p.seen)
}

func TestStartRunsImmediately(t *testing.T) {
	p := &recordingPrewarmer{}
	s := New([]weather.Location{{City: "Seattle", Country: "US"}}, 0, p, nil)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return p.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestStartWithoutLocations(t *testing.T) {
	p := &recordingPrewarmer{}
	s := New(nil, time.Minute, p, nil)

	require.NoError(t, s.Start())
	s.Stop()
	assert.Zero(t, p.count())
}
