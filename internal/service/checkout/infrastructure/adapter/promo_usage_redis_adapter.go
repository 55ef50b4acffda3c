package adapter

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"vigor/internal/pkg/redis"
)

// PromoUsageRedisAdapter implements domain.PromoUsageStore on Redis counters
// so every instance of the service enforces caps against the same numbers.
//
// Layout:
//
//	promo:uses:{<codeID>}          counter of total redemptions
//	promo:uses:by_customer:{<codeID>}  hash of email -> redemptions
//
// Hash tags keep both keys in one cluster slot.
type PromoUsageRedisAdapter struct {
	redisClient *redis.Client
}

func NewPromoUsageRedisAdapter(redisClient *redis.Client) *PromoUsageRedisAdapter {
	return &PromoUsageRedisAdapter{redisClient: redisClient}
}

func totalKey(codeID string) string {
	return fmt.Sprintf("promo:uses:{%s}", codeID)
}

func customerKey(codeID string) string {
	return fmt.Sprintf("promo:uses:by_customer:{%s}", codeID)
}

func (a *PromoUsageRedisAdapter) TotalUses(ctx context.Context, codeID string) (int, error) {
	n, err := a.redisClient.GetClient().Get(ctx, totalKey(codeID)).Int()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("promo usage adapter: %w", err)
	}
	return n, nil
}

func (a *PromoUsageRedisAdapter) CustomerUses(ctx context.Context, codeID, customerEmail string) (int, error) {
	n, err := a.redisClient.GetClient().HGet(ctx, customerKey(codeID), customerEmail).Int()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("promo usage adapter: %w", err)
	}
	return n, nil
}

// RecordUse bumps both counters in one pipeline. The counters only ever go
// up; refunds do not release promo uses.
func (a *PromoUsageRedisAdapter) RecordUse(ctx context.Context, codeID, customerEmail string) error {
	pipe := a.redisClient.GetClient().Pipeline()
	pipe.Incr(ctx, totalKey(codeID))
	if customerEmail != "" {
		pipe.HIncrBy(ctx, customerKey(codeID), customerEmail, 1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("promo usage adapter failed to record use: %w", err)
	}
	return nil
}
