package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/oakmart/storefront/internal/core/domain"
)

// MySQLCouponRepository looks up coupon rules. Eligibility (active, unexpired
// or no expiry, under the usage limit) is part of the query, so callers only
// ever see usable coupons.
type MySQLCouponRepository struct {
	db *sql.DB
}

func NewMySQLCouponRepository(db *sql.DB) *MySQLCouponRepository {
	return &MySQLCouponRepository{db: db}
}

func (m *MySQLCouponRepository) FindEligibleByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var (
		c      domain.Coupon
		expiry sql.NullTime
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT coupon_id, code, discount_type, discount_value, max_discount,
		       min_purchase_amount, expiry_date, times_used, usage_limit, is_active
		FROM coupon
		WHERE code = ?
		  AND is_active = 1
		  AND (expiry_date IS NULL OR expiry_date >= CURDATE())
		  AND times_used < usage_limit`, code,
	).Scan(&c.ID, &c.Code, &c.DiscountType, &c.Value, &c.MaxDiscount,
		&c.MinPurchase, &expiry, &c.TimesUsed, &c.UsageLimit, &c.IsActive)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query coupon: %w", err)
	}

	if expiry.Valid {
		c.ExpiryDate = &expiry.Time
	}
	return &c, nil
}
