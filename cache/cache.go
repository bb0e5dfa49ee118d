// Package cache holds successful scrape responses in memory so repeat
// fetches can skip the tier ladder entirely when the caller tolerates a
// stale result.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/use-agent/ladder/models"
)

// maxEntryAge is the hard upper bound on an entry's lifetime, regardless of
// the per-request max-age.
const maxEntryAge = time.Hour

// entry holds a cached response with its creation timestamp.
type entry struct {
	response  *models.ScrapeResponse
	createdAt time.Time
}

// Cache is an in-memory cache for successful scrape responses, keyed by
// URL + output options. Safe for concurrent use.
//
// Entries are not equally expensive to replace: a response that took the
// ladder up to tier 3 cost several browser launches, while a tier 0 hit is
// one HTTP request. Eviction therefore drops the cheapest-to-refetch entry
// first.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
}

// New creates a Cache holding at most maxEntries responses. A background
// goroutine drops entries older than maxEntryAge every five minutes.
func New(maxEntries int) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
	}
	go c.cleanupLoop()
	return c
}

// Key derives the cache key from the URL, output format and extract mode.
func Key(url, outputFormat, extractMode string) string {
	h := sha256.New()
	h.Write([]byte(url))
	h.Write([]byte{'|'})
	h.Write([]byte(outputFormat))
	h.Write([]byte{'|'})
	h.Write([]byte(extractMode))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached response younger than maxAge milliseconds, and
// whether it was a hit. maxAgeMs <= 0 skips the lookup entirely.
//
// The returned response is a shallow copy: callers stamp cache status and
// timing onto it, and the stored original may be serialized concurrently by
// another request.
func (c *Cache) Get(key string, maxAgeMs int) (*models.ScrapeResponse, bool) {
	if maxAgeMs <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if time.Since(e.createdAt) > time.Duration(maxAgeMs)*time.Millisecond {
		return nil, false
	}

	cp := *e.response
	return &cp, true
}

// Set stores a response. At capacity, the entry whose result came from the
// lowest tier is evicted (oldest first among equals) to make room.
//
// The stored value is a shallow copy, so the caller keeps mutating its own
// response (cache status, timing) without touching the cached one.
func (c *Cache) Set(key string, resp *models.ScrapeResponse) {
	cp := *resp

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		c.evictCheapest()
	}

	c.store[key] = &entry{response: &cp, createdAt: time.Now()}
}

// evictCheapest removes the entry with the lowest tier, breaking ties by
// age. Caller holds the write lock.
func (c *Cache) evictCheapest() {
	var victim string
	var victimEntry *entry

	for k, e := range c.store {
		if victimEntry == nil ||
			e.response.Tier < victimEntry.response.Tier ||
			(e.response.Tier == victimEntry.response.Tier && e.createdAt.Before(victimEntry.createdAt)) {
			victim = k
			victimEntry = e
		}
	}
	if victimEntry != nil {
		delete(c.store, victim)
	}
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-maxEntryAge)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
