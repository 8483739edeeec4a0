package port

import (
	"context"

	"github.com/oakmart/storefront/internal/core/domain"
)

// CouponRepository looks up coupon rules.
type CouponRepository interface {
	// FindEligibleByCode returns the coupon for the code if it is active,
	// unexpired (or has no expiry) and under its usage limit; nil otherwise.
	FindEligibleByCode(ctx context.Context, code string) (*domain.Coupon, error)
}

// CouponSessionStore holds the session-scoped applied coupon, keyed by
// customer. Entries expire with the session; checkout and explicit removal
// clear them early.
type CouponSessionStore interface {
	Get(ctx context.Context, customerID int64) (*domain.AppliedCoupon, error)
	Set(ctx context.Context, customerID int64, applied domain.AppliedCoupon) error
	Clear(ctx context.Context, customerID int64) error
}
