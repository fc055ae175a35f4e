package subscriber

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/illegalcall/storefront-mailer/internal/models"
)

const subscribersIndexKey = "subscribers"

func subscriberKey(email string) string {
	return fmt.Sprintf("subscriber:%s", email)
}

// Redis stores each subscriber as a hash and keeps a sorted set of emails
// scored by subscription time.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Upsert(ctx context.Context, sub models.Subscriber) error {
	email := NormalizeEmail(sub.Email)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, subscriberKey(email),
			"email", email,
			"is_active", sub.IsActive,
			"discount_code", sub.DiscountCode,
			"subscribed_at", sub.SubscribedAt.UTC().Format(time.RFC3339Nano),
		)
		pipe.ZAdd(ctx, subscribersIndexKey, redis.Z{
			Score:  float64(sub.SubscribedAt.UnixMilli()),
			Member: email,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert subscriber: %w", err)
	}
	return nil
}

func (r *Redis) Deactivate(ctx context.Context, email string) error {
	key := subscriberKey(NormalizeEmail(email))
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to deactivate subscriber: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	if err := r.client.HSet(ctx, key, "is_active", false).Err(); err != nil {
		return fmt.Errorf("failed to deactivate subscriber: %w", err)
	}
	return nil
}

func (r *Redis) List(ctx context.Context) ([]models.Subscriber, error) {
	emails, err := r.client.ZRevRange(ctx, subscribersIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	cmds := make([]*redis.MapStringStringCmd, len(emails))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, email := range emails {
			cmds[i] = pipe.HGetAll(ctx, subscriberKey(email))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	subs := make([]models.Subscriber, 0, len(emails))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		subscribedAt, _ := time.Parse(time.RFC3339Nano, fields["subscribed_at"])
		subs = append(subs, models.Subscriber{
			Email:        fields["email"],
			IsActive:     fields["is_active"] == "1",
			DiscountCode: fields["discount_code"],
			SubscribedAt: subscribedAt,
		})
	}
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].SubscribedAt.After(subs[j].SubscribedAt) })
	return subs, nil
}
