package availcache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "domainfinder:avail:"

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// RedisStore shares availability answers between server instances. Expiry is
// left to Redis key TTLs.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func redisKey(domain string) string { return redisKeyPrefix + strings.ToLower(domain) }

func (s *RedisStore) Get(ctx context.Context, domain string) (bool, bool, error) {
	v, err := s.rdb.Get(ctx, redisKey(domain)).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("redis GET %s: %w", domain, err)
	}
	return v == "1", true, nil
}

func (s *RedisStore) Put(ctx context.Context, domain string, available bool) error {
	v := "0"
	if available {
		v = "1"
	}
	if err := s.rdb.Set(ctx, redisKey(domain), v, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", domain, err)
	}
	return nil
}
