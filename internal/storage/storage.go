// Package storage remembers which booking snapshots were already published.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store tracks published snapshot digests.
type Store interface {
	Close() error
	SeenSnapshot(digest string) (bool, error)
	MarkSnapshot(digest string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	SnapshotTTL     time.Duration
	CleanupInterval time.Duration

	RedisPassword string
	RedisDB       int
}

const (
	TypeNone  = "none"
	TypeBBolt = "bbolt"
	TypeRedis = "redis"

	defaultSnapshotTTL     = 24 * time.Hour
	defaultCleanupInterval = 6 * time.Hour
)

// NewStore creates the configured storage backend. target is the bbolt file
// path or the redis address depending on typ.
func NewStore(typ, target string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", TypeNone, "disabled":
		return noopStore{}, nil
	case TypeBBolt:
		if strings.TrimSpace(target) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(target, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	case TypeRedis:
		if strings.TrimSpace(target) == "" {
			return nil, fmt.Errorf("redis storage requires an address")
		}
		store, err := openRedis(target, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = defaultSnapshotTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                      { return nil }
func (noopStore) SeenSnapshot(string) (bool, error) { return false, nil }
func (noopStore) MarkSnapshot(string) error         { return nil }
