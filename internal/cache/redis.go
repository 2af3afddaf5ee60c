package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces cache entries in a shared Redis database.
const DefaultRedisPrefix = "embed:"

// Redis stores entries as plain string keys without TTL.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client. An empty prefix selects DefaultRedisPrefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

// NewRedisFromAddr dials a client for addr.
func NewRedisFromAddr(addr, password string, db int) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedis(rdb, "")
}

func (s *Redis) key(slug string) string {
	return fmt.Sprintf("%s%s", s.prefix, slug)
}

// Ping checks the connection.
func (s *Redis) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *Redis) Close() error {
	return s.client.Close()
}

// Get fetches the entry for key.
func (s *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	slug := Slugify(key)
	if slug == "" {
		return nil, false, nil
	}
	val, err := s.client.Get(ctx, s.key(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores value for key. A zero expiration keeps it until evicted by the server.
func (s *Redis) Set(ctx context.Context, key string, value []byte) error {
	slug := Slugify(key)
	if slug == "" {
		return ErrEmptyKey
	}
	return s.client.Set(ctx, s.key(slug), value, 0).Err()
}
