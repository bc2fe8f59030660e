package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// ErrUnavailable indicates the fast cache tier could not serve the call.
// Callers recover by falling back to durable storage; it is never surfaced.
var ErrUnavailable = errors.New("cache: unavailable")

const (
	keyPrefix   = "luna:config:"
	opTimeout   = 250 * time.Millisecond
	pingTimeout = 2 * time.Second
)

// Redis is the fast configuration tier. Entries are an expendable copy of
// durable storage and may be dropped and rebuilt at any time.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a Redis cache client. Connectivity is not required at
// construction time; every operation degrades to ErrUnavailable instead.
func NewRedis(addr, password string, db int) *Redis {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	return &Redis{client: client}
}

// Ping reports whether the cache tier is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// GetAll returns the cached values for the requested keys. Keys without a
// cached entry are absent from the result map.
func (r *Redis) GetAll(ctx context.Context, keys []string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = keyPrefix + key
	}
	values, err := r.client.MGet(ctx, prefixed...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	found := make(map[string]string, len(keys))
	for i, value := range values {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			found[keys[i]] = v
		case []byte:
			found[keys[i]] = string(v)
		default:
			found[keys[i]] = fmt.Sprint(v)
		}
	}
	return found, nil
}

// Set writes one entry. Failures are the caller's to swallow; backfill is
// best-effort by contract.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := r.client.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
