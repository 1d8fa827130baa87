package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	redisKeyPrefix = "booking:snapshot:"
	redisOpTimeout = 3 * time.Second
)

// redisCmdable is the subset of *redis.Client the store uses.
type redisCmdable interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// redisStore shares snapshot digests between harvester replicas. Expiry is
// delegated to redis key TTLs.
type redisStore struct {
	client redisCmdable
	ttl    time.Duration
}

func openRedis(addr string, opts Options) (*redisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}

	return &redisStore{client: client, ttl: opts.SnapshotTTL}, nil
}

func (r *redisStore) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *redisStore) SeenSnapshot(digest string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	n, err := r.client.Exists(ctx, redisKeyPrefix+digest).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (r *redisStore) MarkSnapshot(digest string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Set(ctx, redisKeyPrefix+digest, time.Now().UTC().Unix(), r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
