// internal/app/system/cache/cache.go

// Package cache is the read-through cache for public content lists.
//
// Entries are grouped into namespaces, one per record type. Each namespace
// has a generation counter that is part of every entry key, so bumping the
// counter invalidates the whole namespace without scanning keys. Stale
// generations simply expire.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Namespaces, one per cached record type.
const (
	NSPosts         = "posts"
	NSPracticeAreas = "practice_areas"
	NSTestimonials  = "testimonials"
	NSSettings      = "settings"
)

const (
	keyPrefix  = "stratalaw:cache:" // stratalaw:cache:{ns}:{gen}:{key}
	genPrefix  = "stratalaw:gen:"   // stratalaw:gen:{ns} -> int
	DefaultTTL = 5 * time.Minute
)

// Cache stores JSON-encoded values by namespace and key. Reads and writes
// name the generation they belong to, so a value loaded before an
// Invalidate is written under the old generation and never served.
type Cache interface {
	// Generation returns the current generation of ns.
	Generation(ctx context.Context, ns string) (int64, error)
	// Get decodes the cached value into dst. found is false on a miss.
	Get(ctx context.Context, ns string, gen int64, key string, dst any) (found bool, err error)
	Set(ctx context.Context, ns string, gen int64, key string, v any) error
	// Invalidate drops every entry in ns.
	Invalidate(ctx context.Context, ns string) error
}

// Redis is a Cache backed by Redis.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis cache. ttl <= 0 uses DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) genKey(ns string) string { return genPrefix + ns }

// Generation implements Cache. An unset counter is generation 0.
func (r *Redis) Generation(ctx context.Context, ns string) (int64, error) {
	gen, err := r.client.Get(ctx, r.genKey(ns)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read generation for %s: %w", ns, err)
	}
	return gen, nil
}

func (r *Redis) entryKey(ns string, gen int64, key string) string {
	return fmt.Sprintf("%s%s:%d:%s", keyPrefix, ns, gen, key)
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, ns string, gen int64, key string, dst any) (bool, error) {
	data, err := r.client.Get(ctx, r.entryKey(ns, gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cache entry: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return true, nil
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, ns string, gen int64, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := r.client.Set(ctx, r.entryKey(ns, gen, key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

// Invalidate implements Cache.
func (r *Redis) Invalidate(ctx context.Context, ns string) error {
	if err := r.client.Incr(ctx, r.genKey(ns)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", ns, err)
	}
	return nil
}

// Nop is a Cache that never stores anything.
type Nop struct{}

func (Nop) Generation(context.Context, string) (int64, error)             { return 0, nil }
func (Nop) Get(context.Context, string, int64, string, any) (bool, error) { return false, nil }
func (Nop) Set(context.Context, string, int64, string, any) error         { return nil }
func (Nop) Invalidate(context.Context, string) error                      { return nil }

// Fetch returns the cached value for ns/key, or calls load and caches its
// result under the generation read before loading. Cache errors are logged
// and fall through to load.
func Fetch[T any](ctx context.Context, c Cache, log *zap.Logger, ns, key string, load func() (T, error)) (T, error) {
	gen, err := c.Generation(ctx, ns)
	if err != nil {
		log.Warn("cache generation failed", zap.String("ns", ns), zap.Error(err))
		return load()
	}

	var cached T
	found, err := c.Get(ctx, ns, gen, key, &cached)
	if err != nil {
		log.Warn("cache get failed", zap.String("ns", ns), zap.String("key", key), zap.Error(err))
	} else if found {
		return cached, nil
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	if err := c.Set(ctx, ns, gen, key, v); err != nil {
		log.Warn("cache set failed", zap.String("ns", ns), zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

// Invalidate drops ns and logs on failure. Admin writes call this after a
// successful store mutation.
func Invalidate(ctx context.Context, c Cache, log *zap.Logger, ns string) {
	if err := c.Invalidate(ctx, ns); err != nil {
		log.Warn("cache invalidate failed", zap.String("ns", ns), zap.Error(err))
	}
}
