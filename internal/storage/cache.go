package storage

import (
	"strings"
	"sync"
	"time"
)

// DefaultTeamCacheTTL is how long a resolved team id is trusted.
const DefaultTeamCacheTTL = 7 * 24 * time.Hour

// TeamCache maps team names to HLTV ids with a TTL. It is safe for
// concurrent use.
type TeamCache struct {
	IDs      map[string]string    `json:"ids"`       // normalized name → id
	CachedAt map[string]time.Time `json:"cached_at"` // normalized name → cache time
	TTL      time.Duration        `json:"-"`

	now func() time.Time
	mu  sync.Mutex
}

// NewTeamCache creates an empty cache with the default 7-day TTL.
func NewTeamCache() *TeamCache {
	return &TeamCache{
		IDs:      make(map[string]string),
		CachedAt: make(map[string]time.Time),
		TTL:      DefaultTeamCacheTTL,
		now:      time.Now,
	}
}

// Get returns the cached id for name. Expired entries are removed and
// reported as missing.
func (c *TeamCache) Get(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(name)
	id, exists := c.IDs[key]
	if !exists {
		return "", false
	}

	cachedTime, hasTime := c.CachedAt[key]
	if !hasTime || c.now().Sub(cachedTime) > c.TTL {
		delete(c.IDs, key)
		delete(c.CachedAt, key)
		return "", false
	}
	return id, true
}

// Set stores id for name.
func (c *TeamCache) Set(name, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(name)
	c.IDs[key] = id
	c.CachedAt[key] = c.now()
}

// CleanExpired removes expired entries and returns how many were removed.
func (c *TeamCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for key, cachedTime := range c.CachedAt {
		if now.Sub(cachedTime) > c.TTL {
			delete(c.IDs, key)
			delete(c.CachedAt, key)
			removed++
		}
	}
	for key := range c.IDs {
		if _, ok := c.CachedAt[key]; !ok {
			delete(c.IDs, key)
			removed++
		}
	}
	return removed
}

// Size returns the number of cached entries
func (c *TeamCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.IDs)
}

func cacheKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
