package market

import (
	"sync"
	"time"
)

// Cache provides a TTL-based in-memory cache for candle series, keyed by
// symbol. It keeps repeated reads within one tick from hitting the API
// twice (primary and reference symbols are fetched back to back).
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	candles   []Candle
	fetchedAt time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func (c *Cache) Get(symbol string) ([]Candle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[symbol]
	if !ok || time.Since(entry.fetchedAt) > c.ttl {
		return nil, false
	}
	return entry.candles, true
}

func (c *Cache) Set(symbol string, candles []Candle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[symbol] = cacheEntry{
		candles:   candles,
		fetchedAt: time.Now(),
	}
}
