package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/core/domain"
	"github.com/oakmart/storefront/internal/port"
)

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrInvalidStatus          = errors.New("invalid order status")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrRefundNotEligible      = errors.New("only delivered orders can be refunded")
	ErrRefundAlreadyRequested = errors.New("refund already requested")
	ErrOrderCreationFailed    = errors.New("failed to create order")
	ErrCartNotValid           = errors.New("cart validation failed")
)

// ValidationError carries the itemized cart problems that blocked checkout.
// It matches ErrCartNotValid under errors.Is.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "cart validation failed: " + strings.Join(e.Errors, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrCartNotValid }

// OrderService materializes validated carts into immutable orders and drives
// the order status lifecycle afterwards. Inventory is never touched here; the
// database triggers react to order-line inserts and cancellations.
type OrderService struct {
	orders   port.OrderRepository
	cart     *CartService
	sessions port.CouponSessionStore
	rates    domain.Rates
	now      func() time.Time
}

func NewOrderService(orders port.OrderRepository, cart *CartService, sessions port.CouponSessionStore, rates domain.Rates) *OrderService {
	return &OrderService{
		orders:   orders,
		cart:     cart,
		sessions: sessions,
		rates:    rates,
		now:      time.Now,
	}
}

// CheckoutResult identifies the order created from a cart.
type CheckoutResult struct {
	OrderID int64
	Number  string
	Total   decimal.Decimal
}

// CreateFromCart validates the cart and atomically converts it into an order.
// The order row, its lines, the tax record, the coupon usage bump and the
// cart clear all commit together or not at all; on failure the cart and the
// applied coupon are left untouched and the caller gets a generic failure.
func (s *OrderService) CreateFromCart(ctx context.Context, customerID int64, shippingAddr, billingAddr string) (*CheckoutResult, error) {
	validation, err := s.cart.Validate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !validation.Valid {
		return nil, &ValidationError{Errors: validation.Errors}
	}

	applied, err := s.sessions.Get(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("read applied coupon: %w", err)
	}

	discount := decimal.Zero
	var couponID *int64
	if applied != nil {
		discount = applied.Discount
		id := applied.CouponID
		couponID = &id
	}

	if billingAddr == "" {
		billingAddr = shippingAddr
	}

	summary := validation.Cart.Summary
	order := &domain.Order{
		Number:         domain.NewOrderNumber(),
		CustomerID:     customerID,
		Subtotal:       summary.Subtotal,
		TaxAmount:      summary.Tax,
		ShippingCost:   summary.Shipping,
		DiscountAmount: discount,
		TotalAmount:    summary.Total.Sub(discount),
		ShippingAddr:   shippingAddr,
		BillingAddr:    billingAddr,
		CouponID:       couponID,
		Status:         domain.OrderStatusPending,
		OrderDate:      s.now(),
	}
	for _, line := range validation.Cart.Lines {
		order.Lines = append(order.Lines, domain.OrderLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal(),
		})
	}

	cartID, err := s.cart.CartID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	orderID, err := s.orders.CreateOrder(ctx, order, s.rates.TaxRate, cartID)
	if err != nil {
		// The technical cause stays in the log; clients get a generic failure.
		log.Printf("order creation failed for customer %d: %v", customerID, err)
		return nil, ErrOrderCreationFailed
	}

	// Best effort: the coupon entry expires with the session anyway.
	if applied != nil {
		if err := s.sessions.Clear(ctx, customerID); err != nil {
			log.Printf("failed to clear applied coupon for customer %d: %v", customerID, err)
		}
	}

	return &CheckoutResult{
		OrderID: orderID,
		Number:  order.Number,
		Total:   order.TotalAmount,
	}, nil
}

// UpdateStatus sets an order's status (admin path). Unknown statuses are
// rejected; notes, when given, are appended to the timestamped notes log.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus, notes string) error {
	if !domain.ValidStatus(status) {
		return ErrInvalidStatus
	}

	var notesPtr *string
	if notes != "" {
		order, err := s.orders.GetByID(ctx, orderID, 0)
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}
		if order == nil {
			return ErrOrderNotFound
		}
		appended := domain.AppendNote(order.Notes, notes, s.now())
		notesPtr = &appended
	}

	updated, err := s.orders.UpdateStatus(ctx, orderID, status, notesPtr)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if !updated {
		return ErrOrderNotFound
	}
	return nil
}

// Cancel transitions a customer's order to cancelled, recording the reason in
// the notes log. Delivered, cancelled and refunded orders cannot be
// cancelled. Inventory restoration is the database trigger's job.
func (s *OrderService) Cancel(ctx context.Context, orderID, customerID int64, reason string) error {
	order, err := s.orders.GetByID(ctx, orderID, customerID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return ErrOrderNotFound
	}

	if !order.Status.Cancellable() {
		return fmt.Errorf("%w: cannot cancel order with status %s", ErrInvalidTransition, order.Status)
	}

	notes := domain.AppendNote(order.Notes, "Cancelled by customer: "+reason, s.now())
	if _, err := s.orders.UpdateStatus(ctx, orderID, domain.OrderStatusCancelled, &notes); err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	return nil
}

// RequestRefund files a refund claim for the full order total. Only delivered
// orders are eligible, and only one request may exist per order.
func (s *OrderService) RequestRefund(ctx context.Context, orderID, customerID int64, reason string) error {
	order, err := s.orders.GetByID(ctx, orderID, customerID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return ErrOrderNotFound
	}

	if order.Status != domain.OrderStatusDelivered {
		return ErrRefundNotEligible
	}

	exists, err := s.orders.HasRefundRequest(ctx, orderID)
	if err != nil {
		return fmt.Errorf("check refund request: %w", err)
	}
	if exists {
		return ErrRefundAlreadyRequested
	}

	req := domain.RefundRequest{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		CustomerID:  customerID,
		Reason:      reason,
		Amount:      order.TotalAmount,
		Status:      domain.RefundStatusPending,
		RequestedAt: s.now(),
	}
	if err := s.orders.CreateRefundRequest(ctx, req); err != nil {
		return fmt.Errorf("create refund request: %w", err)
	}
	return nil
}

// GetOrder returns the order with its lines. A non-zero customerID scopes the
// lookup to that customer.
func (s *OrderService) GetOrder(ctx context.Context, orderID, customerID int64) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID, customerID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders returns the customer's order history, newest first.
func (s *OrderService) ListOrders(ctx context.Context, customerID int64, limit, offset int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.orders.ListByCustomer(ctx, customerID, limit, offset)
}

// Statistics aggregates order counts and revenue for a customer, or for the
// whole store with customerID 0.
func (s *OrderService) Statistics(ctx context.Context, customerID int64) (domain.OrderStats, error) {
	return s.orders.Stats(ctx, customerID)
}

// ListRefundRequests returns refund requests filtered by customer and status.
func (s *OrderService) ListRefundRequests(ctx context.Context, customerID int64, status domain.RefundStatus) ([]domain.RefundRequest, error) {
	return s.orders.ListRefundRequests(ctx, customerID, status)
}
