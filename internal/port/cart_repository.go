package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/core/domain"
)

// CartRepository owns the persisted cart and its lines. All mutations are
// individually atomic against the backing store.
type CartRepository interface {
	// GetOrCreateCart returns the customer's cart id, creating the cart row
	// if the customer does not have one yet. Idempotent.
	GetOrCreateCart(ctx context.Context, customerID int64) (int64, error)

	// GetLines returns the cart's lines joined with the catalog's current
	// price and stock, newest first.
	GetLines(ctx context.Context, cartID int64) ([]domain.CartLine, error)

	// FindLine returns the line for the product, or nil if absent.
	FindLine(ctx context.Context, cartID, productID int64) (*domain.CartLine, error)

	// UpsertLine adds a new line at the given frozen unit price, or
	// atomically adds quantity to an existing line for the product. The
	// existing line's frozen price is never touched.
	UpsertLine(ctx context.Context, cartID, productID int64, quantity int, unitPrice decimal.Decimal) error

	// UpdateLineQuantity overwrites the line's quantity, leaving the frozen
	// price untouched. Returns false when no such line exists.
	UpdateLineQuantity(ctx context.Context, cartID, productID int64, quantity int) (bool, error)

	// DeleteLine removes the line. Returns false when no such line exists.
	DeleteLine(ctx context.Context, cartID, productID int64) (bool, error)

	// ClearLines deletes all lines for the cart.
	ClearLines(ctx context.Context, cartID int64) error

	// CountLines returns the number of distinct lines in the cart.
	CountLines(ctx context.Context, cartID int64) (int, error)
}
