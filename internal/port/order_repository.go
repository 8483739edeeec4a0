package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/core/domain"
)

// OrderRepository persists orders and refund requests. CreateOrder is the one
// multi-statement operation in the engine and must be transactional.
type OrderRepository interface {
	// CreateOrder runs the atomic checkout block in a single transaction:
	// insert the order row, insert its lines, record the tax line when tax is
	// positive, consume one use of the referenced coupon, and clear the
	// cart's lines. On any failure the whole transaction rolls back and no
	// partial state remains. Returns the new order's row id.
	CreateOrder(ctx context.Context, order *domain.Order, taxRate decimal.Decimal, cartID int64) (int64, error)

	// GetByID returns the order with its lines, or nil when absent. A
	// non-zero customerID additionally scopes the lookup to that customer.
	GetByID(ctx context.Context, orderID, customerID int64) (*domain.Order, error)

	// UpdateStatus sets the order's status. A non-nil notes value replaces
	// the notes column (callers append to the log before writing). Returns
	// false when no row changed, which includes an unknown order id.
	UpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus, notes *string) (bool, error)

	// ListByCustomer returns the customer's orders, newest first.
	ListByCustomer(ctx context.Context, customerID int64, limit, offset int) ([]domain.Order, error)

	// Stats aggregates order counts and revenue; customerID 0 means all
	// customers.
	Stats(ctx context.Context, customerID int64) (domain.OrderStats, error)

	// HasRefundRequest reports whether a refund request exists for the order.
	HasRefundRequest(ctx context.Context, orderID int64) (bool, error)

	// CreateRefundRequest inserts a refund request.
	CreateRefundRequest(ctx context.Context, req domain.RefundRequest) error

	// ListRefundRequests returns refund requests, newest first, optionally
	// filtered by customer (non-zero) and status (non-empty).
	ListRefundRequests(ctx context.Context, customerID int64, status domain.RefundStatus) ([]domain.RefundRequest, error)
}
