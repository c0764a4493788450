package profiles

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dkarlovs/voucherd/internal/models"
)

// DefaultTTL bounds how stale a cached profile may get. Profiles change
// rarely but are read on every reconciliation cycle, so a short TTL keeps
// the store quiet without push-based invalidation.
const DefaultTTL = 300 * time.Second

type cacheEntry struct {
	profile   models.Profile
	fetchedAt time.Time
}

// Cache is a TTL read-through decorator over a profile Repository. Keys are
// case-insensitive; expiry is checked lazily on access, there is no sweeper.
type Cache struct {
	inner Repository
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

func NewCache(inner Repository, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *Cache) Get(ctx context.Context, name string) (*models.Profile, error) {
	key := strings.ToLower(name)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if c.now().Sub(e.fetchedAt) < c.ttl {
			p := e.profile
			c.mu.Unlock()
			return &p, nil
		}
		delete(c.entries, key)
	}
	c.mu.Unlock()

	p, err := c.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{profile: *p, fetchedAt: c.now()}
	c.mu.Unlock()

	return p, nil
}

// Put writes through to the store and evicts the entry so the next read is
// fresh even if the TTL has not elapsed.
func (c *Cache) Put(ctx context.Context, p *models.Profile) error {
	if err := c.inner.Put(ctx, p); err != nil {
		return err
	}

	c.mu.Lock()
	delete(c.entries, strings.ToLower(p.Name))
	c.mu.Unlock()

	return nil
}

func (c *Cache) List(ctx context.Context) ([]models.Profile, error) {
	return c.inner.List(ctx)
}
