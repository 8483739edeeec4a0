package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oakmart/storefront/internal/core/domain"
)

const couponKeyPrefix = "session:coupon:"

// RedisCouponSession keeps the applied coupon in Redis, keyed by customer,
// with the session TTL. The coupon therefore outlives a request but not the
// session, and is never written to the cart row.
type RedisCouponSession struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCouponSession(client *redis.Client, ttl time.Duration) *RedisCouponSession {
	return &RedisCouponSession{client: client, ttl: ttl}
}

func (r *RedisCouponSession) key(customerID int64) string {
	return fmt.Sprintf("%s%d", couponKeyPrefix, customerID)
}

func (r *RedisCouponSession) Get(ctx context.Context, customerID int64) (*domain.AppliedCoupon, error) {
	data, err := r.client.Get(ctx, r.key(customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get applied coupon: %w", err)
	}

	var applied domain.AppliedCoupon
	if err := json.Unmarshal(data, &applied); err != nil {
		return nil, fmt.Errorf("decode applied coupon: %w", err)
	}
	return &applied, nil
}

func (r *RedisCouponSession) Set(ctx context.Context, customerID int64, applied domain.AppliedCoupon) error {
	data, err := json.Marshal(applied)
	if err != nil {
		return fmt.Errorf("encode applied coupon: %w", err)
	}
	if err := r.client.Set(ctx, r.key(customerID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set applied coupon: %w", err)
	}
	return nil
}

func (r *RedisCouponSession) Clear(ctx context.Context, customerID int64) error {
	if err := r.client.Del(ctx, r.key(customerID)).Err(); err != nil {
		return fmt.Errorf("clear applied coupon: %w", err)
	}
	return nil
}
