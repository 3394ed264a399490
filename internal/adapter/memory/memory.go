// Package memory implements in-memory browser storage for development and
// testing.
package memory

import (
	"context"
	"sync"
	"time"

	"recipebook/internal/domain"
)

// DB holds one key/value bucket per browser.
type DB struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	values  map[string]string
	written time.Time
}

// New creates an empty in-memory store.
func New() *DB {
	return &DB{buckets: make(map[string]*bucket), now: time.Now}
}

// Ensure interfaces are met.
var _ domain.Storage = (*DB)(nil)

// Get returns the value stored under key, or domain.ErrNotFound.
func (db *DB) Get(ctx context.Context, browserID, key string) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	b, ok := db.buckets[browserID]
	if !ok {
		return "", domain.ErrNotFound
	}
	v, ok := b.values[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

// Set stores value under key, replacing any previous value.
func (db *DB) Set(ctx context.Context, browserID, key, value string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	b, ok := db.buckets[browserID]
	if !ok {
		b = &bucket{values: make(map[string]string)}
		db.buckets[browserID] = b
	}
	b.values[key] = value
	b.written = db.now()
	return nil
}

// Delete removes keys. Missing keys are ignored.
func (db *DB) Delete(ctx context.Context, browserID string, keys ...string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	b, ok := db.buckets[browserID]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(b.values, k)
	}
	if len(b.values) == 0 {
		delete(db.buckets, browserID)
	}
	return nil
}

// DeleteStale removes buckets not written since before cutoff and reports how
// many were removed.
func (db *DB) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var n int64
	for id, b := range db.buckets {
		if b.written.Before(cutoff) {
			delete(db.buckets, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of browsers with at least one stored key.
func (db *DB) Len() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.buckets)
}
