// Package ratelimit caps check-in attempts per user and session with a Redis fixed window.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "eduflow:checkin:attempts:"

// Limiter counts attempts in Redis. A limit of zero disables it.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// New returns a Limiter allowing limit attempts per (user, session) per window.
func New(client *redis.Client, limit int, window time.Duration) (*Limiter, error) {
	if client == nil {
		return nil, errors.New("ratelimit: redis client is required")
	}
	if limit < 0 {
		return nil, errors.New("ratelimit: limit must be >= 0")
	}
	if window <= 0 {
		return nil, errors.New("ratelimit: window must be positive")
	}
	return &Limiter{client: client, limit: limit, window: window}, nil
}

// NewFromURL parses a redis:// URL and returns a Limiter over a new client.
func NewFromURL(rawURL string, limit int, window time.Duration) (*Limiter, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse redis url: %w", err)
	}
	return New(redis.NewClient(opts), limit, window)
}

// Allow records one attempt and reports whether it is within the limit.
// The window starts at the first attempt and is not extended by later ones. The counter and its
// expiry are written in one MULTI, so a counter never outlives its window.
func (l *Limiter) Allow(ctx context.Context, userID, sessionID string) (bool, error) {
	if l == nil || l.limit == 0 {
		return true, nil
	}
	key := attemptKey(userID, sessionID)
	pipe := l.client.TxPipeline()
	pipe.SetNX(ctx, key, 0, l.window)
	incr := pipe.Incr(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("ratelimit: incr: %w", err)
	}
	return incr.Val() <= int64(l.limit), nil
}

// Reset clears the attempt counter. Called after a check-in succeeds.
func (l *Limiter) Reset(ctx context.Context, userID, sessionID string) error {
	if l == nil || l.limit == 0 {
		return nil
	}
	return l.client.Del(ctx, attemptKey(userID, sessionID)).Err()
}

func attemptKey(userID, sessionID string) string {
	return keyPrefix + sessionID + ":" + userID
}

// Ping checks connectivity to Redis.
func (l *Limiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (l *Limiter) Close() error {
	return l.client.Close()
}
