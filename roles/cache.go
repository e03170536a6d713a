package roles

import (
	"sync"
	"time"

	"github.com/mirabot/mira/guildmodels"
)

//groupCache is a bounded, time-expiring cache of each guild's group list.
//Every registry write path that touches a guild's groups must call
//invalidate for that guild. Read paths tolerate the TTL's worth of
//staleness.
type groupCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries map[string]groupCacheEntry
	now     func() time.Time
}

type groupCacheEntry struct {
	groups  []guildmodels.RoleGroup
	expires time.Time
}

func newGroupCache(ttl time.Duration, max int) *groupCache {
	return &groupCache{
		ttl:     ttl,
		max:     max,
		entries: make(map[string]groupCacheEntry),
		now:     time.Now,
	}
}

func (c *groupCache) get(guildID string) ([]guildmodels.RoleGroup, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[guildID]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expires) {
		delete(c.entries, guildID)
		return nil, false
	}
	return entry.groups, true
}

func (c *groupCache) put(guildID string, groups []guildmodels.RoleGroup) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.max {
		c.evictOldestLocked()
	}
	c.entries[guildID] = groupCacheEntry{
		groups:  groups,
		expires: c.now().Add(c.ttl),
	}
}

func (c *groupCache) invalidate(guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, guildID)
}

func (c *groupCache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expires.Before(oldest) {
			oldestKey = key
			oldest = entry.expires
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
