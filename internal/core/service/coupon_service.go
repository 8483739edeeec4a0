package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/core/domain"
	"github.com/oakmart/storefront/internal/port"
)

var (
	ErrCouponInvalid     = errors.New("invalid or expired coupon")
	ErrMinPurchaseNotMet = errors.New("minimum purchase not met")
)

// CouponService validates coupon codes against the cart and keeps the applied
// coupon in session-scoped state, separate from the persisted cart.
type CouponService struct {
	coupons  port.CouponRepository
	sessions port.CouponSessionStore
	cart     *CartService
}

func NewCouponService(coupons port.CouponRepository, sessions port.CouponSessionStore, cart *CartService) *CouponService {
	return &CouponService{coupons: coupons, sessions: sessions, cart: cart}
}

// ApplyResult reports the computed discount and the cart total after it.
type ApplyResult struct {
	Discount decimal.Decimal
	NewTotal decimal.Decimal
}

// Apply looks up an eligible coupon, checks the minimum-purchase threshold
// against the cart's current subtotal, computes the discount and stores the
// applied coupon for the session.
func (s *CouponService) Apply(ctx context.Context, customerID int64, code string) (*ApplyResult, error) {
	coupon, err := s.coupons.FindEligibleByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("lookup coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponInvalid
	}

	view, err := s.cart.GetCart(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if view.Summary.Subtotal.LessThan(coupon.MinPurchase) {
		return nil, fmt.Errorf("%w: minimum purchase of $%s required",
			ErrMinPurchaseNotMet, coupon.MinPurchase.StringFixed(2))
	}

	discount := coupon.Discount(view.Summary.Subtotal)

	applied := domain.AppliedCoupon{
		Code:     coupon.Code,
		CouponID: coupon.ID,
		Discount: discount,
	}
	if err := s.sessions.Set(ctx, customerID, applied); err != nil {
		return nil, fmt.Errorf("store applied coupon: %w", err)
	}

	return &ApplyResult{
		Discount: discount,
		NewTotal: view.Summary.Total.Sub(discount),
	}, nil
}

// Remove clears the applied coupon. Always succeeds, applied or not.
func (s *CouponService) Remove(ctx context.Context, customerID int64) error {
	if err := s.sessions.Clear(ctx, customerID); err != nil {
		return fmt.Errorf("clear applied coupon: %w", err)
	}
	return nil
}

// Applied returns the session's applied coupon, or nil when none is set.
func (s *CouponService) Applied(ctx context.Context, customerID int64) (*domain.AppliedCoupon, error) {
	return s.sessions.Get(ctx, customerID)
}
