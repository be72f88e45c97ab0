package statecache

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultSweepInterval is how often expired entries are reaped when the
// caller does not choose an interval.
const DefaultSweepInterval = 5 * time.Minute

type entry struct {
	nonce     string
	expiresAt time.Time
}

// Cache is the in-process tier of the oauth state store, a nonce per shop
// with a TTL. Expired entries report a miss immediately, the background
// sweep only reclaims their memory.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	logger   zerolog.Logger
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a cache and starts its background sweep.
func New(sweepInterval time.Duration, logger zerolog.Logger) *Cache {
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	c := &Cache{
		entries:  make(map[string]entry),
		logger:   logger,
		interval: sweepInterval,
		done:     make(chan struct{}),
	}
	go c.run()
	return c
}

// Put stores the nonce for a shop, replacing any earlier one.
func (c *Cache) Put(shop, nonce string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[shop] = entry{nonce: nonce, expiresAt: time.Now().Add(ttl)}
}

// Get returns the live nonce for a shop.
func (c *Cache) Get(shop string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[shop]
	if !ok || time.Now().After(e.expiresAt) {
		return "", false
	}
	return e.nonce, true
}

// Delete removes the entry for a shop if present.
func (c *Cache) Delete(shop string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, shop)
}

// Len returns the number of entries currently held, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop ends the background sweep. The cache stays usable afterwards.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
}

func (c *Cache) run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}

func (c *Cache) sweep() {
	now := time.Now()

	c.mu.Lock()
	removed := 0
	for shop, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, shop)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.logger.Debug().
			Int("removed", removed).
			Msg("Swept expired oauth state entries")
	}
}
