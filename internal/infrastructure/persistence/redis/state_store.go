// Package redis provides a Redis-backed script state store for the scene
// and global scopes, so state outlives one process.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/assetkit-dev/assetkit/internal/scripting/hostenv"
)

// StateStore keeps one scope in a Redis hash; values are JSON encoded.
type StateStore struct {
	rdb *goredis.Client
	key string
}

var _ hostenv.StateStore = (*StateStore)(nil)

// Options configure the connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key, e.g. "assetkit:"
	Prefix string
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, opts Options) (*goredis.Client, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address required")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewStateStore creates a store for scope on an open client.
func NewStateStore(rdb *goredis.Client, prefix, scope string) *StateStore {
	return &StateStore{rdb: rdb, key: prefix + "state:" + scope}
}

// Get returns the value for key.
func (s *StateStore) Get(ctx context.Context, key string) (any, bool, error) {
	raw, err := s.rdb.HGet(ctx, s.key, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, fmt.Errorf("decode state %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key.
func (s *StateStore) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode state %s: %w", key, err)
	}
	if err := s.rdb.HSet(ctx, s.key, key, raw).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key and reports whether it existed.
func (s *StateStore) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.HDel(ctx, s.key, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis delete %s: %w", key, err)
	}
	return n > 0, nil
}

// Keys returns every key in sorted order.
func (s *StateStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.rdb.HKeys(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis keys: %w", err)
	}
	slices.Sort(keys)
	return keys, nil
}

// Clear removes the whole scope.
func (s *StateStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}
	return nil
}
