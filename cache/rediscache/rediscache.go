// Package rediscache stores page cursors and counts in Redis. Keys never
// expire; they are removed by sloth.Clear.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Alp4ka/sloth"
	"github.com/redis/go-redis/v9"
)

// Options configures Connect.
type Options struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// Connect creates a client and pings the server.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address is empty")
	}

	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}

	rc := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
		PoolSize:    10,
	})

	ctx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("redis connect error: %w", err)
	}

	return rc, nil
}

// Cache implements sloth.Cache and sloth.Swapper on a Redis client.
type Cache struct {
	rc     *redis.Client
	prefix string
}

// New wraps rc. A non-empty prefix is prepended as "prefix:key".
func New(rc *redis.Client, prefix string) *Cache {
	return &Cache{rc: rc, prefix: prefix}
}

// Key returns the Redis key for a cache key.
func (c *Cache) Key(key string) string {
	if c.prefix != "" {
		return fmt.Sprintf("%s:%s", c.prefix, key)
	}
	return key
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.rc == nil {
		return nil, false, errors.New("redis client is nil, cannot get cache")
	}

	v, err := c.rc.Get(ctx, c.Key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil // Cache miss
		}
		return nil, false, fmt.Errorf("failed to get cache: %w", err)
	}

	return v, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	if c.rc == nil {
		return errors.New("redis client is nil, cannot set cache")
	}

	if err := c.rc.Set(ctx, c.Key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c.rc == nil {
		return errors.New("redis client is nil, cannot delete cache")
	}
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, 0, len(keys))
	for _, key := range keys {
		full = append(full, c.Key(key))
	}

	if err := c.rc.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}

	return nil
}

// CompareAndSwap - implements sloth.Swapper with WATCH/MULTI/EXEC. A write by
// another client between the read and EXEC reports false.
func (c *Cache) CompareAndSwap(ctx context.Context, key string, old, new []byte) (bool, error) {
	if c.rc == nil {
		return false, errors.New("redis client is nil, cannot swap cache")
	}

	full := c.Key(key)
	swapped := false

	err := c.rc.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, full).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if old != nil {
				return nil
			}
		case err != nil:
			return err
		case old == nil || string(cur) != string(old):
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, full, new, 0)
			return nil
		})
		if err != nil {
			return err
		}

		swapped = true
		return nil
	}, full)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to swap cache: %w", err)
	}

	return swapped, nil
}

var (
	_ sloth.Cache   = (*Cache)(nil)
	_ sloth.Swapper = (*Cache)(nil)
)
