package domain

import "github.com/shopspring/decimal"

// Rates carries the configured pricing constants.
type Rates struct {
	TaxRate      decimal.Decimal
	ShippingCost decimal.Decimal
}

// Summary is the derived pricing of a cart. Discounts are not part of the
// summary: tax and shipping are computed on the pre-discount subtotal, and the
// caller subtracts any coupon discount from Total at presentation or checkout
// time. That matches the storefront's observed behaviour and must not be
// "fixed".
type Summary struct {
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Shipping  decimal.Decimal
	Total     decimal.Decimal
	ItemCount int
}

// Summarize derives the pricing summary from cart lines. Shipping is charged
// only on non-empty carts.
func Summarize(lines []CartLine, rates Rates) Summary {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal())
	}

	tax := subtotal.Mul(rates.TaxRate)
	shipping := decimal.Zero
	if subtotal.IsPositive() {
		shipping = rates.ShippingCost
	}

	return Summary{
		Subtotal:  subtotal,
		Tax:       tax,
		Shipping:  shipping,
		Total:     subtotal.Add(tax).Add(shipping),
		ItemCount: len(lines),
	}
}
