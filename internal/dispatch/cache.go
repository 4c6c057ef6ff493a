// Package dispatch orchestrates optimize-text and test-connection calls:
// cache lookup, request building, the network round trip under a timeout,
// failure classification, and response extraction.
package dispatch

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hpn/hpn-text-optimizer/internal/domain"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE CACHE - In-Memory Result Caching
// ══════════════════════════════════════════════════════════════════════════════
//
// Data Structure: map guarded by RWMutex
// Key: SHA256 of (prompt, model variant, temperature, prompt template)
// Value: terminal Result with insertion time
// TTL: 1 hour, swept every 10 minutes by a single goroutine
//
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultCacheTTL is the default time-to-live for cache entries.
	DefaultCacheTTL = time.Hour

	// DefaultSweepInterval is how often the background sweep runs.
	DefaultSweepInterval = 10 * time.Minute
)

// CacheEntry is a cached Result with its insertion time.
type CacheEntry struct {
	Key        string
	Value      domain.Result
	InsertedAt time.Time
}

// IsExpired returns true once more than ttl has passed since insertion.
func (e *CacheEntry) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.InsertedAt) > ttl
}

// CacheStats reports cache performance counters.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

// ResponseCache is a thread-safe TTL cache of dispatch Results.
type ResponseCache struct {
	mu            sync.RWMutex
	entries       map[string]*CacheEntry
	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	logger        *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
}

// CacheOption is a functional option for configuring ResponseCache.
type CacheOption func(*ResponseCache)

// WithCacheTTL sets a custom TTL for cache entries.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *ResponseCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithSweepInterval sets how often expired entries are removed.
// Zero disables the background sweep; Sweep can still be called directly.
func WithSweepInterval(interval time.Duration) CacheOption {
	return func(c *ResponseCache) {
		c.sweepInterval = interval
	}
}

// WithCacheLogger sets a custom logger.
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *ResponseCache) {
		c.logger = logger
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *ResponseCache) {
		c.now = now
	}
}

// NewResponseCache creates a new ResponseCache instance.
// It starts a background goroutine for TTL cleanup unless the sweep is disabled.
func NewResponseCache(opts ...CacheOption) *ResponseCache {
	c := &ResponseCache{
		entries:       make(map[string]*CacheEntry),
		ttl:           DefaultCacheTTL,
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
		logger:        slog.Default(),
		stop:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.sweepInterval > 0 {
		go c.startSweep()
	}

	return c
}

// CacheKey derives the key from the four inputs that determine a response.
// Fields are length-prefixed so no two distinct inputs share a key.
func CacheKey(prompt, modelVariant string, temperature float64, promptTemplate string) string {
	h := sha256.New()
	for _, field := range []string{
		prompt,
		modelVariant,
		strconv.FormatFloat(temperature, 'g', -1, 64),
		promptTemplate,
	} {
		h.Write([]byte(strconv.Itoa(len(field))))
		h.Write([]byte{':'})
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached result by key.
// Expired entries are removed on access and reported as misses.
func (c *ResponseCache) Get(key string) (domain.Result, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.misses.Add(1)
		return domain.Result{}, false
	}

	if entry.IsExpired(c.now(), c.ttl) {
		c.mu.Lock()
		if current, ok := c.entries[key]; ok && current == entry {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		c.misses.Add(1)
		return domain.Result{}, false
	}

	c.hits.Add(1)
	return entry.Value, true
}

// Set stores a result under key, replacing any previous entry.
func (c *ResponseCache) Set(key string, result domain.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &CacheEntry{
		Key:        key,
		Value:      result,
		InsertedAt: c.now(),
	}
}

// Clear drops every entry and returns how many were removed.
func (c *ResponseCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]*CacheEntry)
	return n
}

// startSweep runs until Close, removing expired entries every interval.
func (c *ResponseCache) startSweep() {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.stop:
			return
		}
	}
}

// Sweep removes all expired entries and returns how many were removed.
func (c *ResponseCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expired := 0

	for key, entry := range c.entries {
		if entry.IsExpired(now, c.ttl) {
			delete(c.entries, key)
			expired++
		}
	}

	if expired > 0 && c.logger != nil {
		c.logger.Debug("cache sweep",
			slog.Int("expired_entries", expired),
			slog.Int("remaining_entries", len(c.entries)),
		)
	}
	return expired
}

// Stats returns cache hit/miss statistics.
func (c *ResponseCache) Stats() CacheStats {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()

	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   size,
	}
}

// Close stops the background sweep. It is safe to call more than once.
func (c *ResponseCache) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}
