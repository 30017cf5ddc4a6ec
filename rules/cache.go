package rules

import (
	"sync"
	"time"
)

// RulesCache holds the active rule list between mutations so evaluation
// does not hit the store on every request.
type RulesCache interface {
	// Get returns the cached rules, or nil on a miss or expiry
	Get() []*Rule

	Set(rules []*Rule)

	// Invalidate clears the cache, forcing a refresh on next Get
	Invalidate()

	IsValid() bool
}

// CacheConfig holds configuration for cache behavior
type CacheConfig struct {
	// TTL of the cached list; 0 means it only expires on mutation
	TTL time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: 0}
}

// InMemoryRulesCache is a RulesCache guarded by an RWMutex.
// It stores and hands out clones so callers cannot mutate cached rules.
type InMemoryRulesCache struct {
	rules    []*Rule
	cachedAt time.Time
	config   CacheConfig
	valid    bool
	mu       sync.RWMutex
}

func NewInMemoryRulesCache(config CacheConfig) *InMemoryRulesCache {
	return &InMemoryRulesCache{config: config}
}

func (c *InMemoryRulesCache) Get() []*Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.freshLocked() {
		return nil
	}

	out := make([]*Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = cloneRule(r)
	}
	return out
}

// Set caches a sorted copy of rules
func (c *InMemoryRulesCache) Set(rules []*Rule) {
	cached := make([]*Rule, len(rules))
	for i, r := range rules {
		cached[i] = cloneRule(r)
	}
	sortRules(cached)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.rules = cached
	c.cachedAt = time.Now()
	c.valid = true
}

func (c *InMemoryRulesCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.valid = false
	c.rules = nil
}

func (c *InMemoryRulesCache) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.freshLocked()
}

func (c *InMemoryRulesCache) freshLocked() bool {
	if !c.valid {
		return false
	}
	if c.config.TTL > 0 && time.Since(c.cachedAt) > c.config.TTL {
		return false
	}
	return true
}
