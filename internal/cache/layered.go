package cache

import "time"

// LayeredCache reads through a fast near tier to a slower far tier
// (memory + disk, or memory + redis).
type LayeredCache struct {
	near Cache
	far  Cache
}

// NewLayeredCache creates a two-tier cache
func NewLayeredCache(near, far Cache) *LayeredCache {
	return &LayeredCache{
		near: near,
		far:  far,
	}
}

// Get checks the near tier first and promotes far hits
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.near.Get(key); found {
		return val, true
	}

	if val, found := c.far.Get(key); found {
		_ = c.near.Set(key, val, 0)
		return val, true
	}

	return nil, false
}

// Set stores a value in both tiers
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.near.Set(key, value, ttl); err != nil {
		return err
	}
	return c.far.Set(key, value, ttl)
}

// Delete removes a value from both tiers
func (c *LayeredCache) Delete(key string) error {
	nearErr := c.near.Delete(key)
	if err := c.far.Delete(key); err != nil {
		return err
	}
	return nearErr
}

// Clear removes all values from both tiers
func (c *LayeredCache) Clear() error {
	nearErr := c.near.Clear()
	if err := c.far.Clear(); err != nil {
		return err
	}
	return nearErr
}
