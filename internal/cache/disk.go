// Package cache persists raw HTTP response bodies on disk, keyed by request URL.
// Freshness is taken from the file modification time, so there is no separate
// metadata to keep in sync.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// DefaultTTL is how long a stored response is served without re-fetching.
	DefaultTTL = time.Hour

	// AppDirName is the directory created under the OS user cache directory.
	AppDirName = "power-user-weather"

	maxBaseNameLen = 100
	hashPrefixLen  = 16
	entryExt       = ".json"
)

var (
	// ErrInvalidURL is returned when a cache path cannot be derived from a URL.
	ErrInvalidURL = errors.New("invalid request url")
	// ErrCacheIO wraps filesystem failures on the cache directory.
	ErrCacheIO = errors.New("cache io failure")
)

// DiskCache is a TTL-gated response cache backed by one file per URL.
// It is safe for concurrent use: writes go through a temp file and a rename,
// so a reader sees either the previous body or the new one.
type DiskCache struct {
	dir    string
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option customizes a DiskCache.
type Option func(*DiskCache)

// WithClock overrides the clock used for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(c *DiskCache) {
		c.now = now
	}
}

// WithLogger sets the logger used for cache hits, misses and absorbed read errors.
func WithLogger(logger *slog.Logger) Option {
	return func(c *DiskCache) {
		c.logger = logger
	}
}

// NewDiskCache creates a cache rooted at dir. A non-positive ttl falls back to DefaultTTL.
func NewDiskCache(dir string, ttl time.Duration, opts ...Option) *DiskCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &DiskCache{
		dir:    dir,
		ttl:    ttl,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultDir resolves the per-user cache directory for this application.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%w: resolve user cache dir: %w", ErrCacheIO, err)
	}
	return filepath.Join(base, AppDirName), nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	return c.dir
}

// TTL returns the freshness window.
func (c *DiskCache) TTL() time.Duration {
	return c.ttl
}

// Path returns the file that holds the cached body for rawURL.
func (c *DiskCache) Path(rawURL string) (string, error) {
	name, err := FileName(rawURL)
	if err != nil {
		return "", err
	}
	return filepath.Join(c.dir, name), nil
}

// FileName derives the cache file name for rawURL: a readable, sanitized and
// truncated host/path/query prefix followed by the first 16 hex characters of
// the SHA-256 of the full URL. The hash keeps distinct URLs apart even when
// their readable prefixes coincide.
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidURL, rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q: missing scheme or host", ErrInvalidURL, rawURL)
	}

	base := u.Hostname() + "_" + strings.ReplaceAll(u.EscapedPath(), "/", "_")
	if u.RawQuery != "" {
		base += "_" + u.RawQuery
	}
	base = truncate(sanitize(base), maxBaseNameLen)

	sum := sha256.Sum256([]byte(rawURL))
	return base + "_" + hex.EncodeToString(sum[:])[:hashPrefixLen] + entryExt, nil
}

// Lookup returns the cached body for rawURL if a fresh entry exists.
// Read failures are treated as a miss; only an underivable path is an error.
func (c *DiskCache) Lookup(rawURL string) ([]byte, bool, error) {
	path, err := c.Path(rawURL)
	if err != nil {
		return nil, false, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("cache stat failed, treating as miss", "path", path, "error", err)
		}
		return nil, false, nil
	}

	if !c.fresh(info.ModTime()) {
		c.logger.Debug("cache entry expired", "path", path, "modified", info.ModTime())
		return nil, false, nil
	}

	body, err := os.ReadFile(path)
	if err != nil {
		c.logger.Debug("cache read failed, treating as miss", "path", path, "error", err)
		return nil, false, nil
	}
	return body, true, nil
}

// Store replaces the cached body for rawURL.
func (c *DiskCache) Store(rawURL string, body []byte) error {
	path, err := c.Path(rawURL)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create cache directory %s: %w", ErrCacheIO, c.dir, err)
	}

	// Unique temp name so concurrent writers of the same URL never share a file.
	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: write %s: %w", ErrCacheIO, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: rename into %s: %w", ErrCacheIO, path, err)
	}
	return nil
}

// Entry describes one cached response file.
type Entry struct {
	Name     string
	Size     int64
	Modified time.Time
	Fresh    bool
}

// Entries lists cached responses, newest first. A missing directory yields no entries.
func (c *DiskCache) Entries() ([]Entry, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: list %s: %w", ErrCacheIO, c.dir, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != entryExt {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:     de.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
			Fresh:    c.fresh(info.ModTime()),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Modified.After(entries[j].Modified)
	})
	return entries, nil
}

// fresh reports whether a file modified at mod is still inside the TTL.
// A modification time in the future (clock skew) is never fresh.
func (c *DiskCache) fresh(mod time.Time) bool {
	age := c.now().Sub(mod)
	return age >= 0 && age < c.ttl
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(`/\?%*:|"<>`, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
