package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the per-customer pending-purchase container. One cart per customer,
// created lazily on first access and never deleted; checkout clears its lines.
type Cart struct {
	ID         int64
	CustomerID int64
}

// CartLine is one product entry in a cart. UnitPrice is captured when the line
// is first added and never refreshed; CurrentPrice and Stock are joined in
// from the catalog at read time so callers can detect drift.
type CartLine struct {
	CartID      int64
	ProductID   int64
	ProductName string
	SKU         string
	Quantity    int
	UnitPrice   decimal.Decimal
	AddedAt     time.Time

	CurrentPrice decimal.Decimal
	Stock        int
	InStock      bool
}

// Subtotal is quantity times the frozen unit price.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartView is what getCart returns: the lines plus the computed summary.
type CartView struct {
	Lines   []CartLine
	Summary Summary
}
