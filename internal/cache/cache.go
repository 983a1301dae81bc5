package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/clients/overpass"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/geo"
)

// Loader runs geodata queries around a point
type Loader interface {
	Load(ctx context.Context, queries []string, at geo.LatLng) (*overpass.Response, error)
}

// Store is a persistent second level behind the in-memory cache
type Store interface {
	Get(ctx context.Context, key string) (*overpass.Response, bool, error)
	Put(ctx context.Context, key string, response *overpass.Response) error
}

// Config holds geodata cache settings
type Config struct {
	Size        int           `koanf:"size"`
	TTL         time.Duration `koanf:"ttl"`
	DatabaseURL string        `koanf:"database_url"` // empty disables the persistent store
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		Size: 256,
		TTL:  24 * time.Hour,
	}
}

// GeoCache caches geodata responses by query. Identical queries running
// at the same time share a single load.
type GeoCache struct {
	loader Loader
	store  Store
	logger *zap.SugaredLogger
	lru    *expirable.LRU[string, *overpass.Response]
	group  singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// NewGeoCache wraps loader with an in-memory cache and, when store is not
// nil, a persistent one
func NewGeoCache(loader Loader, cfg Config, store Store, logger *zap.SugaredLogger) *GeoCache {
	if cfg.Size <= 0 {
		cfg.Size = DefaultConfig().Size
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &GeoCache{
		loader: loader,
		store:  store,
		logger: logger,
		lru:    expirable.NewLRU[string, *overpass.Response](cfg.Size, nil, cfg.TTL),
	}
}

// Key returns the cache key of a set of queries
func Key(queries []string) string {
	sum := sha256.Sum256([]byte(strings.Join(queries, "\n")))
	return hex.EncodeToString(sum[:])
}

// Load returns the cached response for queries or loads it. Responses are
// shared between callers and must not be modified.
func (c *GeoCache) Load(ctx context.Context, queries []string, at geo.LatLng) (*overpass.Response, error) {
	key := Key(queries)

	if response, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return response, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		if c.store != nil {
			response, found, err := c.store.Get(ctx, key)
			if err != nil {
				c.logger.Errorw("Failed to read geodata store", "key", key, "error", err)
			} else if found {
				c.hits.Add(1)
				c.lru.Add(key, response)
				return response, nil
			}
		}

		c.misses.Add(1)
		response, err := c.loader.Load(ctx, queries, at)
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, response)

		if c.store != nil {
			if err := c.store.Put(ctx, key, response); err != nil {
				c.logger.Errorw("Failed to write geodata store", "key", key, "error", err)
			}
		}
		return response, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		c.logger.Debugw("Shared geodata load", "key", key)
	}
	return v.(*overpass.Response), nil
}

// Purge drops every in-memory entry
func (c *GeoCache) Purge() {
	c.lru.Purge()
}

// Stats provides cache usage statistics
type Stats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// Stats returns cache statistics
func (c *GeoCache) Stats() Stats {
	return Stats{
		Entries: c.lru.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
