package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultIdleTTL is how long an unused token is kept in Redis.
const DefaultIdleTTL = 8 * time.Hour

const redisKeyPrefix = "console:token:"

// RedisStore keeps tokens in Redis so several console replicas share sessions.
// Every read slides the idle TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects to redisURL (redis:// or rediss://) and pings it.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// NewRedisStore wraps client. A non-positive ttl uses DefaultIdleTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(sid string) string {
	return redisKeyPrefix + sid
}

// Get implements Store.
func (r *RedisStore) Get(ctx context.Context, sid string) (string, bool, error) {
	token, err := r.client.GetEx(ctx, redisKey(sid), r.ttl).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// Set implements Store.
func (r *RedisStore) Set(ctx context.Context, sid, token string) error {
	return r.client.Set(ctx, redisKey(sid), token, r.ttl).Err()
}

// Clear implements Store.
func (r *RedisStore) Clear(ctx context.Context, sid string) error {
	return r.client.Del(ctx, redisKey(sid)).Err()
}

// Ping reports whether Redis is reachable.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
