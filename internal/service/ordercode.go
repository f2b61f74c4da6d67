package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/apparel_shop/internal/repo"
)

const orderCodeDayLayout = "20060102"

// CodeSequence hands out a monotonic counter per calendar day.
type CodeSequence interface {
	Next(ctx context.Context, day string) (int64, error)
}

type RedisSequence struct {
	Client *redis.Client
	TTL    time.Duration
}

func (s *RedisSequence) Next(ctx context.Context, day string) (int64, error) {
	key := "ordercode:" + day
	pipe := s.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("order code sequence: %w", err)
	}
	return incr.Val(), nil
}

type SQLSequence struct {
	Repo *repo.GormRepo
}

func (s *SQLSequence) Next(ctx context.Context, day string) (int64, error) {
	return s.Repo.NextOrderSeq(ctx, day)
}

type OrderCoder struct {
	Seq CodeSequence
}

// Next returns ORD-YYYYMMDD-NNNNNN for the UTC day of now.
func (c *OrderCoder) Next(ctx context.Context, now time.Time) (string, error) {
	day := now.UTC().Format(orderCodeDayLayout)
	n, err := c.Seq.Next(ctx, day)
	if err != nil {
		return "", err
	}
	return FormatOrderCode(day, n), nil
}

func FormatOrderCode(day string, n int64) string {
	return fmt.Sprintf("ORD-%s-%06d", day, n)
}
