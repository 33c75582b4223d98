// Package cache provides the byte cache behind memoized search results.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// Cache stores opaque values by key with a TTL.
type Cache interface {
	// Get returns the value and true on a hit, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// Redis is a Cache backed by a go-redis client.
type Redis struct {
	rdb redis.UniversalClient
}

// NewRedis connects to url, which is either a redis:// URL or a bare
// host:port address.
func NewRedis(url string) (*Redis, error) {
	opts, err := parseURL(url)
	if err != nil {
		return nil, err
	}
	return NewRedisFromClient(redis.NewClient(opts)), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb redis.UniversalClient) *Redis {
	return &Redis{rdb: rdb}
}

func parseURL(url string) (*redis.Options, error) {
	if strings.Contains(url, "://") {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, eris.Wrap(err, "cache: parse redis url")
		}
		return opts, nil
	}
	if url == "" {
		return nil, eris.New("cache: redis url is empty")
	}
	return &redis.Options{Addr: url}, nil
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "cache: get")
	}
	return val, true, nil
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return eris.Wrap(err, "cache: set")
	}
	return nil
}

// Ping implements Cache.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return eris.Wrap(err, "cache: ping")
	}
	return nil
}

// Close implements Cache.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
