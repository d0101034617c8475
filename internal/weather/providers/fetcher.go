package providers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/sony/gobreaker"
)

// Fetcher returns the body of a GET request.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// ResponseCache is the persistence the CachedFetcher sits in front of.
type ResponseCache interface {
	Lookup(rawURL string) ([]byte, bool, error)
	Store(rawURL string, body []byte) error
}

// CachedFetcher serves fresh cached bodies without network I/O and fetches
// (then stores) everything else. One circuit breaker is kept per upstream host.
type CachedFetcher struct {
	cache   ResponseCache
	httpCfg HTTPClientConfig
	logger  *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewCachedFetcher creates a fetcher over cache using the given HTTP settings.
func NewCachedFetcher(cache ResponseCache, httpCfg HTTPClientConfig, logger *slog.Logger) *CachedFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedFetcher{
		cache:    cache,
		httpCfg:  httpCfg,
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Fetch returns the body for rawURL, from cache when fresh. A failure to store
// the fetched body is logged and does not fail the call.
func (f *CachedFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	body, ok, err := f.cache.Lookup(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if ok {
		f.logger.Debug("using cached response", "url", rawURL)
		return body, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	f.logger.Debug("fetching url from api", "url", rawURL)
	resp, err := doRequestWithResilience(ctx, f.httpCfg, f.breaker(u.Host), func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrNetwork, rawURL, err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body of %s: %w", ErrNetwork, rawURL, err)
	}

	if err := f.cache.Store(rawURL, body); err != nil {
		f.logger.Warn("failed to cache response", "url", rawURL, "error", err)
	}
	return body, nil
}

func (f *CachedFetcher) breaker(host string) *gobreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()

	cb, ok := f.breakers[host]
	if !ok {
		cb = newCircuitBreaker(host, func(name string, from, to gobreaker.State) {
			f.logger.Warn("circuit breaker state changed", "host", name, "from", from.String(), "to", to.String())
		})
		f.breakers[host] = cb
	}
	return cb
}
