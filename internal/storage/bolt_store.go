package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	snapshotBucket = "snapshots"
	// value layout: expiry as big-endian unix seconds.
	recordBytes = 8
)

var errBucketMissing = errors.New("snapshot bucket missing")

// boltStore keeps snapshot digests in a single BoltDB bucket.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	ttl             time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

func openBolt(path string, opts Options) (*boltStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		ttl:             opts.SnapshotTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// SeenSnapshot reports whether digest was marked and has not expired.
func (b *boltStore) SeenSnapshot(digest string) (bool, error) {
	if b == nil || b.db == nil {
		return false, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return false, err
	}

	var seen bool
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		if bucket == nil {
			return errBucketMissing
		}
		rec, ok := decodeRecord(bucket.Get([]byte(digest)))
		seen = ok && rec.expiresAt.After(now)
		return nil
	})
	return seen, err
}

// MarkSnapshot records digest for the configured TTL. Re-marking extends it.
func (b *boltStore) MarkSnapshot(digest string) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		if bucket == nil {
			return errBucketMissing
		}
		rec := snapshotRecord{expiresAt: now.Add(b.ttl)}
		return bucket.Put([]byte(digest), rec.encode())
	})
}

// maybeCleanupExpired drops expired digests at most once per cleanup interval.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if now.Sub(time.Unix(b.lastCleanup.Load(), 0)) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	if now.Sub(time.Unix(b.lastCleanup.Load(), 0)) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		if bucket == nil {
			return errBucketMissing
		}

		// Deleting through the cursor mid-iteration skips keys, so collect first.
		var expired [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			if rec, ok := decodeRecord(v); !ok || !rec.expiresAt.After(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

type snapshotRecord struct {
	expiresAt time.Time
}

func (r snapshotRecord) encode() []byte {
	buf := make([]byte, recordBytes)
	binary.BigEndian.PutUint64(buf, uint64(r.expiresAt.Unix()))
	return buf
}

func decodeRecord(value []byte) (snapshotRecord, bool) {
	if len(value) != recordBytes {
		return snapshotRecord{}, false
	}
	expiry := int64(binary.BigEndian.Uint64(value))
	if expiry <= 0 {
		return snapshotRecord{}, false
	}
	return snapshotRecord{expiresAt: time.Unix(expiry, 0)}, true
}
