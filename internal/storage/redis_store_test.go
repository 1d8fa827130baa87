package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// fakeRedis keeps keys in memory and records the TTL of every Set.
type fakeRedis struct {
	keys    map[string]time.Duration
	failErr error
	closed  bool
}

func (f *fakeRedis) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	if f.failErr != nil {
		return redis.NewIntResult(0, f.failErr)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, _ interface{}, ttl time.Duration) *redis.StatusCmd {
	if f.failErr != nil {
		return redis.NewStatusResult("", f.failErr)
	}
	if f.keys == nil {
		f.keys = make(map[string]time.Duration)
	}
	f.keys[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisStoreMarksWithTTL(t *testing.T) {
	client := &fakeRedis{}
	store := &redisStore{client: client, ttl: time.Hour}

	seen, err := store.SeenSnapshot("abc")
	if err != nil || seen {
		t.Fatalf("expected unseen digest, seen=%v err=%v", seen, err)
	}
	if err := store.MarkSnapshot("abc"); err != nil {
		t.Fatalf("MarkSnapshot: %v", err)
	}
	if ttl := client.keys[redisKeyPrefix+"abc"]; ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}
	seen, err = store.SeenSnapshot("abc")
	if err != nil || !seen {
		t.Fatalf("expected seen digest, seen=%v err=%v", seen, err)
	}

	if err := store.Close(); err != nil || !client.closed {
		t.Fatalf("Close: %v closed=%v", err, client.closed)
	}
}

func TestRedisStorePropagatesErrors(t *testing.T) {
	boom := errors.New("connection refused")
	store := &redisStore{client: &fakeRedis{failErr: boom}, ttl: time.Hour}

	if _, err := store.SeenSnapshot("abc"); !errors.Is(err, boom) {
		t.Fatalf("SeenSnapshot err = %v", err)
	}
	if err := store.MarkSnapshot("abc"); !errors.Is(err, boom) {
		t.Fatalf("MarkSnapshot err = %v", err)
	}
}
