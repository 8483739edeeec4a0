package port

import (
	"context"

	"github.com/oakmart/storefront/internal/core/domain"
)

// CatalogReader is the read-only view of the product catalog. The engine
// consults it for validation only and never mutates it; inventory adjustment
// happens in the database layer (triggers), outside this process.
type CatalogReader interface {
	// GetByID returns the product with its current price, active flag and
	// summed stock, or nil when no such product exists.
	GetByID(ctx context.Context, productID int64) (*domain.Product, error)

	// CheckStock reports whether summed inventory covers the quantity.
	CheckStock(ctx context.Context, productID int64, quantity int) (bool, error)
}
