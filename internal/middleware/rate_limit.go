package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dukepan/multi-rooms-chat-back/internal/contextkey"
	"github.com/dukepan/multi-rooms-chat-back/internal/identity"
)

// RateLimiter implements a token bucket rate limiting mechanism using
// Redis, keyed by the caller's principal subject. It only guards the
// admin HTTP surface -- the upgraded socket is never subject to it.
type RateLimiter struct {
	redisClient *redis.Client
	capacity    int64
	rate        float64
	logger      *slog.Logger
}

// NewRateLimiter creates a new RateLimiter instance.
func NewRateLimiter(redisClient *redis.Client, capacity int, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		redisClient: redisClient,
		capacity:    int64(capacity),
		rate:        1.0,
		logger:      logger,
	}
}

// Middleware applies rate limiting to HTTP requests carrying a
// resolved Principal.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		principal, ok := req.Context().Value(contextkey.ContextKeyPrincipal).(identity.Principal)
		if !ok || principal.Subject == "" {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}

		if !rl.Allow(req.Context(), principal.Subject) {
			http.Error(w, `{"error":"too many requests"}`, http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, req)
	})
}

// Allow checks if a request is allowed for the given subject.
func (rl *RateLimiter) Allow(ctx context.Context, subject string) bool {
	key := fmt.Sprintf("rate_limit:%s", subject)

	val, err := rl.redisClient.HMGet(ctx, key, "tokens", "last_refill").Result()
	if err != nil {
		rl.logger.Warn("rate limiter redis read failed, allowing request", "err", err)
		return true
	}

	currentTokens := rl.capacity
	lastRefillTime := time.Now()

	if val[0] != nil && val[1] != nil {
		if t, err := strconv.ParseFloat(val[0].(string), 64); err == nil {
			currentTokens = int64(t)
		}
		if t, err := time.Parse(time.RFC3339Nano, val[1].(string)); err == nil {
			lastRefillTime = t
		}
	}

	now := time.Now()
	diff := now.Sub(lastRefillTime).Seconds()
	tokensToAdd := int64(diff * rl.rate)
	currentTokens = int64(math.Min(float64(rl.capacity), float64(currentTokens+tokensToAdd)))
	lastRefillTime = now

	if currentTokens >= 1 {
		currentTokens--
		if _, err := rl.redisClient.HMSet(ctx, key, "tokens", currentTokens, "last_refill", lastRefillTime.Format(time.RFC3339Nano)).Result(); err != nil {
			rl.logger.Warn("rate limiter redis write failed, allowing request", "err", err)
		}
		return true
	}

	return false
}
