// Package redisstore implements browser storage on Redis, one hash per
// browser.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"recipebook/internal/domain"
)

const keyPrefix = "recipebook:browser:"

// Store keeps each browser's bucket in a hash that expires ttl after its last
// write. A zero ttl keeps buckets forever.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// Open parses a redis:// URL, pings the server and returns a Store.
func Open(ctx context.Context, rawURL string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(rdb, ttl), nil
}

// New wraps an existing client.
func New(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

var _ domain.Storage = (*Store)(nil)

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func bucket(browserID string) string {
	return keyPrefix + browserID
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, browserID, key string) (string, error) {
	v, err := s.rdb.HGet(ctx, bucket(browserID), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Set writes value and refreshes the bucket's expiry.
func (s *Store) Set(ctx context.Context, browserID, key, value string) error {
	b := bucket(browserID)
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, b, key, value)
		if s.ttl > 0 {
			p.Expire(ctx, b, s.ttl)
		}
		return nil
	})
	return err
}

// Delete removes keys from the bucket.
func (s *Store) Delete(ctx context.Context, browserID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.HDel(ctx, bucket(browserID), keys...).Err()
}
