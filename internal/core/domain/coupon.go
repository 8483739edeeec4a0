package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is a discount rule identified by a code. A coupon is usable only
// while it is active, unexpired (or has no expiry) and under its usage limit;
// the repository query enforces that filter.
type Coupon struct {
	ID           int64
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	MaxDiscount  decimal.NullDecimal // percentage type only
	MinPurchase  decimal.Decimal
	ExpiryDate   *time.Time
	TimesUsed    int
	UsageLimit   int
	IsActive     bool
}

// Discount computes the discount this coupon grants on the given subtotal.
// Percentage discounts are capped at MaxDiscount when one is set; fixed
// discounts are the flat value. Minimum-purchase eligibility is checked by
// the caller, not here.
func (c Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if c.DiscountType == DiscountPercentage {
		d := subtotal.Mul(c.Value).Div(decimal.NewFromInt(100))
		if c.MaxDiscount.Valid && d.GreaterThan(c.MaxDiscount.Decimal) {
			d = c.MaxDiscount.Decimal
		}
		return d
	}
	return c.Value
}

// AppliedCoupon is the session-scoped record of a coupon applied to the
// current checkout. It lives in the session store, never on the cart row,
// and is cleared on checkout, explicit removal or session expiry.
type AppliedCoupon struct {
	Code     string          `json:"code"`
	CouponID int64           `json:"coupon_id"`
	Discount decimal.Decimal `json:"discount"`
}
