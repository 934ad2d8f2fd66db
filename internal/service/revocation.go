package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v2"
	"github.com/redis/go-redis/v9"
)

// Revoker remembers logged out token ids until the token would have
// expired anyway
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryRevoker keeps revoked ids in process memory. Revocations are
// lost on restart and not shared between replicas.
type MemoryRevoker struct {
	cache *ttlcache.Cache
}

func NewMemoryRevoker() *MemoryRevoker {
	c := ttlcache.NewCache()
	c.SkipTTLExtensionOnHit(true)

	return &MemoryRevoker{cache: c}
}

func (m *MemoryRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	return m.cache.SetWithTTL(jti, struct{}{}, ttl)
}

func (m *MemoryRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, err := m.cache.Get(jti)
	if err != nil {
		if errors.Is(err, ttlcache.ErrNotFound) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (m *MemoryRevoker) Close() error {
	return m.cache.Close()
}

const revokedKeyPrefix = "revoked_jti:"

// RedisRevoker shares revocations between replicas
type RedisRevoker struct {
	c *redis.Client
}

// NewRedisRevoker connects and pings the server, failing fast when it
// can't be reached
func NewRedisRevoker(addr, password string, db int) (*RedisRevoker, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s, %w", addr, err)
	}

	return &RedisRevoker{c: c}, nil
}

func (r *RedisRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	return r.c.Set(ctx, revokedKeyPrefix+jti, 1, ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.c.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (r *RedisRevoker) Close() error {
	return r.c.Close()
}
