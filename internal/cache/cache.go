// Package cache constructs the shared Redis client the rate limiter
// runs its token buckets against. It carries no presence-tracking
// methods -- session presence lives in the registry and mailbox
// fabric, not Redis.
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// New parses redisURL, connects, and confirms connectivity with a
// traced ping.
func New(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, span := otel.Tracer("redis-client").Start(ctx, "redis.ping")
	defer span.End()
	if err := client.Ping(ctx).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to ping redis")
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	span.SetStatus(codes.Ok, "redis connected")

	return client, nil
}
