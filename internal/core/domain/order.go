package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// ValidStatus reports whether s is a recognized order status.
func ValidStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// Terminal statuses admit no further transition.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

// Cancellable reports whether an order in this status may still be cancelled
// by the customer. Delivered orders go through the refund flow instead;
// shipped orders can still be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s != OrderStatusDelivered && !s.Terminal()
}

// Order is the immutable record of a completed checkout. Only Status and
// Notes change after creation; everything else is frozen at checkout time.
type Order struct {
	ID             int64
	Number         string
	CustomerID     int64
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	ShippingCost   decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	ShippingAddr   string
	BillingAddr    string
	CouponID       *int64
	Status         OrderStatus
	OrderDate      time.Time
	Notes          string

	Lines []OrderLine
}

// OrderLine is the frozen snapshot of one purchased product: quantity, the
// unit price at order time and the line subtotal. Never mutated.
type OrderLine struct {
	OrderID   int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// NewOrderNumber generates a customer-facing order number.
func NewOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

// AppendNote returns the notes log with a timestamped entry appended. The log
// is append-only; callers never overwrite it.
func AppendNote(notes, entry string, at time.Time) string {
	line := fmt.Sprintf("%s: %s", at.Format("2006-01-02 15:04:05"), entry)
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}

type RefundStatus string

const (
	RefundStatusPending  RefundStatus = "pending"
	RefundStatusApproved RefundStatus = "approved"
	RefundStatusRejected RefundStatus = "rejected"
)

// RefundRequest is a customer-initiated post-delivery refund claim. At most
// one exists per order; the amount is always the full order total.
type RefundRequest struct {
	ID          string
	OrderID     int64
	CustomerID  int64
	Reason      string
	Amount      decimal.Decimal
	Status      RefundStatus
	RequestedAt time.Time
}

// OrderStats aggregates a customer's (or, with customer id 0, the whole
// store's) order history for dashboards.
type OrderStats struct {
	TotalOrders      int
	PendingOrders    int
	ProcessingOrders int
	ShippedOrders    int
	DeliveredOrders  int
	CancelledOrders  int
	TotalRevenue     decimal.Decimal
	AvgOrderValue    decimal.Decimal
}
