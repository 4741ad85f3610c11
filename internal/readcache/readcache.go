// Package readcache is an optional fast-read cache in front of the
// engine's status read; no other read operation is cached.
// It is never consulted by a mutating transition: the engine's state
// store remains the single source of truth, and a cache miss or a
// disabled cache simply falls through to a direct read.
package readcache

import (
	"time"

	"github.com/gomodule/redigo/redis"
)

// Cache wraps a redigo connection pool with the narrow get/set/invalidate
// surface the kernel's read path needs.
type Cache struct {
	pool *redis.Pool
	ttl  time.Duration
}

// New returns a Cache dialing addr (host:port) lazily through a pooled
// connection, with entries expiring after ttl.
func New(addr string, ttl time.Duration) *Cache {
	pool := &redis.Pool{
		MaxIdle:     8,
		IdleTimeout: 2 * time.Minute,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr)
		},
	}
	return &Cache{pool: pool, ttl: ttl}
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	return c.pool.Close()
}

// Get returns the cached bytes for key, and whether they were present.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	conn := c.pool.Get()
	defer conn.Close() //nolint:errcheck // pooled connection, best-effort close

	reply, err := conn.Do("GET", key)
	if err != nil {
		return nil, false, err
	}
	if reply == nil {
		return nil, false, nil
	}
	data, err := redis.Bytes(reply, nil)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores value under key with the cache's configured TTL.
func (c *Cache) Set(key string, value []byte) error {
	conn := c.pool.Get()
	defer conn.Close() //nolint:errcheck // pooled connection, best-effort close

	ttlSeconds := int(c.ttl.Seconds())
	if ttlSeconds <= 0 {
		_, err := conn.Do("SET", key, value)
		return err
	}
	_, err := conn.Do("SET", key, value, "EX", ttlSeconds)
	return err
}

// Invalidate removes key, used after any mutation touches a cached read's
// underlying data.
func (c *Cache) Invalidate(key string) error {
	conn := c.pool.Get()
	defer conn.Close() //nolint:errcheck // pooled connection, best-effort close

	_, err := conn.Do("DEL", key)
	return err
}
