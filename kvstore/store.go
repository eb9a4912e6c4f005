package kvstore

import (
	"context"
	"errors"
	"sync"

	"github.com/lightningnetwork/lnd/kvdb"
)

var (
	// ErrNotFound is returned by Get for a key that was never stored or
	// has been deleted.
	ErrNotFound = errors.New("key not found")

	// ErrEmptyKey is returned for operations on the empty key.
	ErrEmptyKey = errors.New("key must not be empty")

	// bucketName is the top level bucket all values live in.
	bucketName = []byte("nip76-session")
)

// Store persists opaque session values by name.
type Store interface {
	// Get returns the value stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// MemStore is a Store held in memory.
type MemStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// A compile-time check to ensure MemStore implements the Store interface.
var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (m *MemStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}

	return append([]byte(nil), v...), nil
}

// Put stores a copy of value under key.
func (m *MemStore) Put(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = append([]byte(nil), value...)

	return nil
}

// Delete removes key.
func (m *MemStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)

	return nil
}

// DB is a Store backed by a kvdb backend.
type DB struct {
	backend kvdb.Backend
}

// A compile-time check to ensure DB implements the Store interface.
var _ Store = (*DB)(nil)

// NewDB creates the session bucket if needed and returns a store over it.
func NewDB(backend kvdb.Backend) (*DB, error) {
	err := kvdb.Update(backend, func(tx kvdb.RwTx) error {
		_, err := tx.CreateTopLevelBucket(bucketName)
		return err
	}, func() {})
	if err != nil {
		return nil, err
	}

	return &DB{backend: backend}, nil
}

// Get returns the value stored under key.
func (d *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := kvdb.View(d.backend, func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(bucketName)
		if bucket == nil {
			return kvdb.ErrBucketNotFound
		}

		v := bucket.Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		value = append([]byte(nil), v...)

		return nil
	}, func() {
		value = nil
	})
	if err != nil {
		return nil, err
	}

	log.TraceS(ctx, "Read value", "key", key, "len", len(value))

	return value, nil
}

// Put stores value under key.
func (d *DB) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}

	err := kvdb.Update(d.backend, func(tx kvdb.RwTx) error {
		bucket := tx.ReadWriteBucket(bucketName)
		if bucket == nil {
			return kvdb.ErrBucketNotFound
		}

		return bucket.Put([]byte(key), value)
	}, func() {})
	if err != nil {
		return err
	}

	log.DebugS(ctx, "Stored value", "key", key, "len", len(value))

	return nil
}

// Delete removes key.
func (d *DB) Delete(ctx context.Context, key string) error {
	err := kvdb.Update(d.backend, func(tx kvdb.RwTx) error {
		bucket := tx.ReadWriteBucket(bucketName)
		if bucket == nil {
			return kvdb.ErrBucketNotFound
		}

		return bucket.Delete([]byte(key))
	}, func() {})
	if err != nil {
		return err
	}

	log.DebugS(ctx, "Deleted value", "key", key)

	return nil
}

// Close closes the underlying backend.
func (d *DB) Close() error {
	return d.backend.Close()
}
