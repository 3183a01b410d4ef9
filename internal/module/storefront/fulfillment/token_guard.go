package fulfillment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/joshcrispo/dissonant-pulse/pkg/errors"
	"github.com/joshcrispo/dissonant-pulse/pkg/status"
)

// TokenGuard serializes concurrent fulfillment attempts for the same
// idempotency token. It is a fast path in front of the durable fulfillment
// record, not a correctness guarantee: payment providers retry webhooks within
// seconds and the guard keeps those retries from racing into the persist loop.
type TokenGuard interface {
	Acquire(ctx context.Context, token string) (bool, error)
	Release(ctx context.Context, token string) error
}

type redisTokenGuard struct {
	logger *logrus.Logger
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTokenGuard(logger *logrus.Logger, client *redis.Client, ttl time.Duration) TokenGuard {
	return &redisTokenGuard{
		logger: logger,
		client: client,
		ttl:    ttl,
	}
}

func guardKey(token string) string {
	return fmt.Sprintf("fulfillment:token:%s", token)
}

// Acquire implements TokenGuard.
func (g *redisTokenGuard) Acquire(ctx context.Context, token string) (bool, error) {
	ok, err := g.client.SetNX(ctx, guardKey(token), 1, g.ttl).Result()
	if err != nil {
		g.logger.WithContext(ctx).WithError(err).Error()
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while acquiring the fulfillment token guard")
	}

	return ok, nil
}

// Release implements TokenGuard.
func (g *redisTokenGuard) Release(ctx context.Context, token string) error {
	if err := g.client.Del(ctx, guardKey(token)).Err(); err != nil {
		g.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while releasing the fulfillment token guard")
	}

	return nil
}
