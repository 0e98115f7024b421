package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenConsumed = errors.New("token already consumed")
)

// TokenConsumer marks single-use tokens as spent. A token id can be
// consumed exactly once within its lifetime; later attempts fail.
type TokenConsumer interface {
	Consume(ctx context.Context, tokenID string, ttl time.Duration) error
}

type redisTokenConsumer struct {
	client *redis.Client
}

func NewRedisTokenConsumer(client *redis.Client) TokenConsumer {
	return &redisTokenConsumer{client: client}
}

func (c *redisTokenConsumer) Consume(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Minute
	}
	key := fmt.Sprintf("consumed:token:%s", tokenID)

	ok, err := c.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return fmt.Errorf("consume token %s: %w", tokenID, err)
	}
	if !ok {
		return ErrTokenConsumed
	}
	return nil
}
