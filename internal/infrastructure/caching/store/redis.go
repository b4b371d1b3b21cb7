package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/logging"
)

// RedisStore implements KeyedCacheStore on top of a shared Redis instance.
type RedisStore struct {
	client    *redis.Client
	opTimeout time.Duration
	logger    *logging.ChanneledLogger
}

// RedisConfig holds connection settings for the Redis-backed store
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	OpTimeout time.Duration
}

// Validate checks the Redis configuration eagerly
func (c *RedisConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("redis store: addr is required")
	}
	if c.OpTimeout <= 0 {
		return fmt.Errorf("redis store: op timeout must be positive, got %v", c.OpTimeout)
	}
	return nil
}

// NewRedisStore creates a Redis-backed cache store
func NewRedisStore(cfg *RedisConfig, logger *logging.ChanneledLogger) (*RedisStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if logger != nil {
		logger.Cache().Info("Redis cache store initialized", "addr", cfg.Addr, "db", cfg.DB)
	}

	return &RedisStore{
		client:    client,
		opTimeout: cfg.OpTimeout,
		logger:    logger,
	}, nil
}

// Get fetches a value; ErrNotFound on absent keys, ErrStoreUnavailable on
// connection failure or timeout.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	val, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, s.unavailable("GET", key, err)
	}
	return val, nil
}

// Set stores a value with the given TTL
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return s.unavailable("SET", key, err)
	}
	return nil
}

// Delete removes the given keys; missing keys are not an error
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return s.unavailable("DEL", keys[0], err)
	}
	return nil
}

// DeletePrefix removes every key under the given prefix using SCAN so the
// server is never blocked by a KEYS call
func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	deleted := 0
	batch := make([]string, 0, 100)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return s.unavailable("DEL", prefix, err)
		}
		deleted += len(batch)
		batch = batch[:0]
		return nil
	}

	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, s.unavailable("SCAN", prefix, err)
	}
	if err := flush(); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// Ping measures a round trip to the store
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	start := time.Now()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return 0, s.unavailable("PING", "", err)
	}
	return time.Since(start), nil
}

// Close releases the underlying connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) unavailable(op, key string, err error) error {
	if s.logger != nil {
		s.logger.Cache().Warn("Cache store call failed", "op", op, "key", key, "error", err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s timed out", ErrStoreUnavailable, op)
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
