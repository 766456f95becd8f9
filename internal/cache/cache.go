package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/realcheck/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey builds a namespaced key from the given parts, e.g.
// CacheKey("search", "duckduckgo", query, "3").
func CacheKey(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "realcheck:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}

// New builds the configured cache backend. A disabled cache returns nil.
func New(cfg model.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return NewMemoryCache(cfg.TTL, 10*time.Minute), nil
	case "disk":
		return NewDiskCache(cfg.Dir, cfg.TTL), nil
	case "layered":
		return NewLayeredCache(NewMemoryCache(cfg.TTL, 10*time.Minute), NewDiskCache(cfg.Dir, cfg.TTL)), nil
	case "redis":
		redisCache, err := NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return NewLayeredCache(NewMemoryCache(cfg.TTL, 10*time.Minute), redisCache), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s (supported: memory, disk, layered, redis)", cfg.Backend)
	}
}
