// Package abuse throttles repeated identity requests per client.
package abuse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/imamteguh/backend-fullstack-taskman/internal/errors"
)

// Shield decides whether an identity request from a given source may
// proceed. Implementations must fail open: an unreachable backend never
// blocks legitimate traffic.
type Shield interface {
	// Allow records one attempt for the key and reports whether the
	// request may proceed.
	Allow(ctx context.Context, key string) error

	// Reset clears the attempt counter for the key.
	Reset(ctx context.Context, key string) error
}

// RedisShield implements Shield with a fixed-window counter in Redis.
type RedisShield struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
	logger      *slog.Logger
}

// NewRedisShield creates a Redis-backed shield.
func NewRedisShield(client *redis.Client, maxAttempts int, window time.Duration, logger *slog.Logger) *RedisShield {
	return &RedisShield{
		client:      client,
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
	}
}

func (s *RedisShield) key(key string) string {
	return fmt.Sprintf("shield:attempts:%s", key)
}

// Allow increments the fixed-window counter for the key and denies the
// request once the window's attempt budget is spent.
func (s *RedisShield) Allow(ctx context.Context, key string) error {
	k := s.key(key)

	count, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		s.logger.Warn("shield backend unavailable, allowing request", "error", err)
		return nil
	}

	if count == 1 {
		if err := s.client.Expire(ctx, k, s.window).Err(); err != nil {
			s.logger.Warn("shield expire failed", "key", k, "error", err)
		}
	}

	if count > int64(s.maxAttempts) {
		s.logger.Info("request denied by shield", "key", key, "attempts", count)
		return apperrors.RequestDenied()
	}

	return nil
}

// Reset clears the attempt counter for the key.
func (s *RedisShield) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("reset shield counter: %w", err)
	}
	return nil
}

// NoopShield allows every request. Used in tests and when Redis is not
// configured.
type NoopShield struct{}

// Allow always permits the request.
func (NoopShield) Allow(ctx context.Context, key string) error { return nil }

// Reset is a no-op.
func (NoopShield) Reset(ctx context.Context, key string) error { return nil }
