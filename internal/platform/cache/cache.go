package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache keeps encoded values in Redis under a namespace. Every stored key is
// tracked in an index set so Invalidate can drop the whole namespace at once.
// Stored keys carry the namespace generation, which Invalidate bumps, so a
// load that finishes after an invalidation writes an entry nobody reads.
type Cache struct {
	rdb      *redis.Client
	ttl      time.Duration
	indexKey string
	genKey   string
	sf       singleflight.Group
	logger   *zap.Logger
}

func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func New(rdb *redis.Client, namespace string, ttl time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.L()
	}
	return &Cache{
		rdb:      rdb,
		ttl:      ttl,
		indexKey: namespace + "keys",
		genKey:   namespace + "gen",
		logger:   logger.Named("cache"),
	}
}

// Remember returns the cached value for key, calling load on a miss.
// Concurrent misses for the same key share one load. Redis failures degrade
// to calling load directly.
func (c *Cache) Remember(ctx context.Context, key string, load func(context.Context) ([]byte, error)) ([]byte, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn("cache generation read failed", zap.Error(err))
		return load(ctx)
	}
	key = key + ":g" + gen

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		return raw, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		raw, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, raw)
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) generation(ctx context.Context) (string, error) {
	gen, err := c.rdb.Get(ctx, c.genKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func (c *Cache) store(ctx context.Context, key string, raw []byte) {
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.SAdd(ctx, c.indexKey, key).Err(); err != nil {
		c.logger.Warn("cache index write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate moves the namespace to a new generation, then drops the keys
// stored so far.
func (c *Cache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, c.genKey).Err(); err != nil {
		return err
	}
	keys, err := c.rdb.SMembers(ctx, c.indexKey).Result()
	if err != nil {
		return err
	}
	return c.rdb.Del(ctx, append(keys, c.indexKey)...).Err()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
