package dispatch

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hpn/hpn-text-optimizer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// RESPONSE CACHE UNIT TESTS
// ============================================================================

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// TestCacheKey verifies that the key depends on every input field.
func TestCacheKey(t *testing.T) {
	t.Log("=== TEST: Cache Key ===")

	base := CacheKey("hello world", "grok-3-beta", 0.7, "{text}")
	assert.Equal(t, base, CacheKey("hello world", "grok-3-beta", 0.7, "{text}"), "key must be deterministic")
	assert.Len(t, base, 64)

	variants := map[string]string{
		"prompt":      CacheKey("hello world!", "grok-3-beta", 0.7, "{text}"),
		"model":       CacheKey("hello world", "grok-3", 0.7, "{text}"),
		"temperature": CacheKey("hello world", "grok-3-beta", 0.8, "{text}"),
		"template":    CacheKey("hello world", "grok-3-beta", 0.7, "{text}!"),
	}
	for field, key := range variants {
		assert.NotEqual(t, base, key, "changing %s must change the key", field)
		t.Logf("✓ %s participates in the key", field)
	}

	// Field boundaries are unambiguous.
	assert.NotEqual(t,
		CacheKey("ab", "c", 0.7, ""),
		CacheKey("a", "bc", 0.7, ""),
	)

	t.Log("=== TEST PASSED: Cache Key ===")
}

// TestResponseCacheGetSet tests basic cache get/set operations.
func TestResponseCacheGetSet(t *testing.T) {
	t.Log("=== TEST: Response Cache Get/Set ===")

	cache := NewResponseCache(WithSweepInterval(0))
	defer cache.Close()

	_, found := cache.Get("missing")
	assert.False(t, found, "expected cache miss for new key")

	want := domain.Success("optimized text", "Grok grok-3-beta: choices[0].message.content")
	cache.Set("k1", want)

	got, found := cache.Get("k1")
	require.True(t, found)
	assert.Equal(t, want, got)

	// Overwrite keeps a single entry.
	cache.Set("k1", domain.Failure(domain.KindAuthError, "denied", "HTTP 401"))
	got, _ = cache.Get("k1")
	assert.Equal(t, domain.KindAuthError, got.ErrorKind)

	stats := cache.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
	t.Logf("✓ Stats: hits=%d misses=%d size=%d", stats.Hits, stats.Misses, stats.Size)

	t.Log("=== TEST PASSED: Response Cache Get/Set ===")
}

// TestResponseCacheTTL verifies expiry on access.
func TestResponseCacheTTL(t *testing.T) {
	t.Log("=== TEST: Response Cache TTL ===")

	clock := newFakeClock()
	cache := NewResponseCache(
		WithCacheTTL(time.Hour),
		WithSweepInterval(0),
		WithClock(clock.Now),
	)
	defer cache.Close()

	cache.Set("k", domain.Success("text", "tag"))

	clock.Advance(time.Hour)
	_, found := cache.Get("k")
	assert.True(t, found, "entry exactly at TTL is still fresh")

	clock.Advance(time.Second)
	_, found = cache.Get("k")
	assert.False(t, found, "entry older than TTL must expire")
	assert.Equal(t, 0, cache.Stats().Size, "expired entry is removed on access")

	t.Log("=== TEST PASSED: Response Cache TTL ===")
}

// TestResponseCacheSweep verifies that Sweep removes only expired entries.
func TestResponseCacheSweep(t *testing.T) {
	t.Log("=== TEST: Response Cache Sweep ===")

	clock := newFakeClock()
	cache := NewResponseCache(
		WithCacheTTL(10*time.Minute),
		WithSweepInterval(0),
		WithClock(clock.Now),
	)
	defer cache.Close()

	cache.Set("old-1", domain.Success("a", ""))
	cache.Set("old-2", domain.Success("b", ""))
	clock.Advance(8 * time.Minute)
	cache.Set("fresh", domain.Success("c", ""))
	clock.Advance(3 * time.Minute)

	removed := cache.Sweep()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, cache.Stats().Size)

	_, found := cache.Get("fresh")
	assert.True(t, found)

	t.Log("=== TEST PASSED: Response Cache Sweep ===")
}

// TestResponseCacheClear verifies that Clear empties the cache.
func TestResponseCacheClear(t *testing.T) {
	cache := NewResponseCache(WithSweepInterval(0))
	defer cache.Close()

	for i := 0; i < 5; i++ {
		cache.Set(fmt.Sprintf("k%d", i), domain.Success("x", ""))
	}
	assert.Equal(t, 5, cache.Clear())
	assert.Equal(t, 0, cache.Stats().Size)
	assert.Equal(t, 0, cache.Clear())
}

// TestResponseCacheBackgroundSweep verifies the sweep goroutine runs and stops.
func TestResponseCacheBackgroundSweep(t *testing.T) {
	cache := NewResponseCache(
		WithCacheTTL(time.Millisecond),
		WithSweepInterval(5*time.Millisecond),
	)
	cache.Set("k", domain.Success("x", ""))

	assert.Eventually(t, func() bool {
		return cache.Stats().Size == 0
	}, time.Second, 5*time.Millisecond)

	cache.Close()
	cache.Close()
}

// TestResponseCacheConcurrency verifies thread-safety of cache operations.
func TestResponseCacheConcurrency(t *testing.T) {
	t.Log("=== TEST: Response Cache Concurrency ===")

	cache := NewResponseCache(WithSweepInterval(0))
	defer cache.Close()

	var wg sync.WaitGroup
	numGoroutines := 50
	numOps := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				key := fmt.Sprintf("key-%d-%d", id, j%10)
				cache.Set(key, domain.Success("v", ""))
				cache.Get(key)
				if j%25 == 0 {
					cache.Sweep()
				}
			}
		}(i)
	}

	wg.Wait()

	stats := cache.Stats()
	assert.Equal(t, int64(numGoroutines*numOps), stats.Hits+stats.Misses)
	assert.Equal(t, numGoroutines*10, stats.Size)
	t.Logf("✓ Completed %d concurrent operations", numGoroutines*numOps*2)

	t.Log("=== TEST PASSED: Response Cache Concurrency ===")
}
