package external

import (
	"sync"
	"time"
)

type cacheEntry struct {
	quote     Quote
	expiresAt time.Time
}

type quoteCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

func newQuoteCache(ttl time.Duration) *quoteCache {
	return &quoteCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *quoteCache) get(ticker string) (Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[ticker]
	if !ok || c.now().After(entry.expiresAt) {
		return Quote{}, false
	}
	return entry.quote, true
}

func (c *quoteCache) set(ticker string, q Quote) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[ticker] = cacheEntry{
		quote:     q,
		expiresAt: c.now().Add(c.ttl),
	}
}
