package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/core/domain"
)

// ErrCouponExhausted aborts a checkout whose coupon ran out of uses between
// apply and commit.
var ErrCouponExhausted = errors.New("coupon usage limit reached")

// MySQLOrderRepository persists orders, order lines and refund requests.
// CreateOrder is the single transactional write path; inventory itself is
// adjusted by database triggers on order_item inserts and on cancellation,
// never by this adapter.
type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

func (m *MySQLOrderRepository) CreateOrder(ctx context.Context, order *domain.Order, taxRate decimal.Decimal, cartID int64) (int64, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO `+"`order`"+` (order_number, customer_id, subtotal, tax_amount,
			shipping_cost, discount_amount, total_amount, shipping_address,
			billing_address, coupon_id, status, order_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.Number, order.CustomerID, order.Subtotal, order.TaxAmount,
		order.ShippingCost, order.DiscountAmount, order.TotalAmount,
		order.ShippingAddr, order.BillingAddr, order.CouponID, order.Status,
		order.OrderDate)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	orderID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("order id: %w", err)
	}

	for _, line := range order.Lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_item (order_id, product_id, quantity, price, subtotal)
			VALUES (?, ?, ?, ?, ?)`,
			orderID, line.ProductID, line.Quantity, line.UnitPrice, line.Subtotal)
		if err != nil {
			return 0, fmt.Errorf("insert order line: %w", err)
		}
	}

	if order.TaxAmount.IsPositive() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tax_record (order_id, tax_type, tax_rate, tax_amount)
			VALUES (?, 'sales_tax', ?, ?)`,
			orderID, taxRate.Mul(decimal.NewFromInt(100)), order.TaxAmount)
		if err != nil {
			return 0, fmt.Errorf("insert tax record: %w", err)
		}
	}

	if order.CouponID != nil {
		result, err := tx.ExecContext(ctx, `
			UPDATE coupon SET times_used = times_used + 1
			WHERE coupon_id = ? AND times_used < usage_limit`, *order.CouponID)
		if err != nil {
			return 0, fmt.Errorf("consume coupon: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return 0, ErrCouponExhausted
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cart_item WHERE cart_id = ?`, cartID); err != nil {
		return 0, fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return orderID, nil
}

func (m *MySQLOrderRepository) GetByID(ctx context.Context, orderID, customerID int64) (*domain.Order, error) {
	query := `
		SELECT order_id, order_number, customer_id, subtotal, tax_amount,
		       shipping_cost, discount_amount, total_amount, shipping_address,
		       billing_address, coupon_id, status, order_date, COALESCE(notes, '')
		FROM ` + "`order`" + ` WHERE order_id = ?`
	args := []any{orderID}
	if customerID != 0 {
		query += ` AND customer_id = ?`
		args = append(args, customerID)
	}

	var (
		o        domain.Order
		couponID sql.NullInt64
	)
	err := m.db.QueryRowContext(ctx, query, args...).Scan(
		&o.ID, &o.Number, &o.CustomerID, &o.Subtotal, &o.TaxAmount,
		&o.ShippingCost, &o.DiscountAmount, &o.TotalAmount, &o.ShippingAddr,
		&o.BillingAddr, &couponID, &o.Status, &o.OrderDate, &o.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	if couponID.Valid {
		o.CouponID = &couponID.Int64
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT order_id, product_id, quantity, price, subtotal
		FROM order_item WHERE order_id = ?`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Subtotal); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}

	return &o, nil
}

func (m *MySQLOrderRepository) UpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus, notes *string) (bool, error) {
	var (
		result sql.Result
		err    error
	)
	if notes != nil {
		result, err = m.db.ExecContext(ctx,
			"UPDATE `order` SET status = ?, notes = ? WHERE order_id = ?",
			status, *notes, orderID)
	} else {
		result, err = m.db.ExecContext(ctx,
			"UPDATE `order` SET status = ? WHERE order_id = ?",
			status, orderID)
	}
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (m *MySQLOrderRepository) ListByCustomer(ctx context.Context, customerID int64, limit, offset int) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT order_id, order_number, customer_id, subtotal, tax_amount,
		       shipping_cost, discount_amount, total_amount, shipping_address,
		       billing_address, coupon_id, status, order_date, COALESCE(notes, '')
		FROM `+"`order`"+`
		WHERE customer_id = ?
		ORDER BY order_date DESC
		LIMIT ? OFFSET ?`, customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var (
			o        domain.Order
			couponID sql.NullInt64
		)
		if err := rows.Scan(&o.ID, &o.Number, &o.CustomerID, &o.Subtotal,
			&o.TaxAmount, &o.ShippingCost, &o.DiscountAmount, &o.TotalAmount,
			&o.ShippingAddr, &o.BillingAddr, &couponID, &o.Status, &o.OrderDate,
			&o.Notes); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if couponID.Valid {
			o.CouponID = &couponID.Int64
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, nil
}

func (m *MySQLOrderRepository) Stats(ctx context.Context, customerID int64) (domain.OrderStats, error) {
	query := `
		SELECT COUNT(order_id),
		       COUNT(CASE WHEN status = 'pending' THEN 1 END),
		       COUNT(CASE WHEN status = 'processing' THEN 1 END),
		       COUNT(CASE WHEN status = 'shipped' THEN 1 END),
		       COUNT(CASE WHEN status = 'delivered' THEN 1 END),
		       COUNT(CASE WHEN status = 'cancelled' THEN 1 END),
		       COALESCE(SUM(CASE WHEN status NOT IN ('cancelled', 'refunded') THEN total_amount ELSE 0 END), 0),
		       COALESCE(AVG(CASE WHEN status NOT IN ('cancelled', 'refunded') THEN total_amount END), 0)
		FROM ` + "`order`"
	var args []any
	if customerID != 0 {
		query += ` WHERE customer_id = ?`
		args = append(args, customerID)
	}

	var s domain.OrderStats
	err := m.db.QueryRowContext(ctx, query, args...).Scan(
		&s.TotalOrders, &s.PendingOrders, &s.ProcessingOrders, &s.ShippedOrders,
		&s.DeliveredOrders, &s.CancelledOrders, &s.TotalRevenue, &s.AvgOrderValue)
	if err != nil {
		return domain.OrderStats{}, fmt.Errorf("query order stats: %w", err)
	}
	return s, nil
}

func (m *MySQLOrderRepository) HasRefundRequest(ctx context.Context, orderID int64) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM refund_request WHERE order_id = ?)`, orderID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query refund request: %w", err)
	}
	return exists, nil
}

func (m *MySQLOrderRepository) CreateRefundRequest(ctx context.Context, req domain.RefundRequest) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO refund_request (request_id, order_id, customer_id, reason,
			refund_amount, status, request_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.OrderID, req.CustomerID, req.Reason, req.Amount, req.Status,
		req.RequestedAt)
	if err != nil {
		return fmt.Errorf("insert refund request: %w", err)
	}
	return nil
}

func (m *MySQLOrderRepository) ListRefundRequests(ctx context.Context, customerID int64, status domain.RefundStatus) ([]domain.RefundRequest, error) {
	query := `
		SELECT request_id, order_id, customer_id, reason, refund_amount, status, request_date
		FROM refund_request`
	var (
		conds []string
		args  []any
	)
	if customerID != 0 {
		conds = append(conds, "customer_id = ?")
		args = append(args, customerID)
	}
	if status != "" {
		conds = append(conds, "status = ?")
		args = append(args, status)
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY request_date DESC"

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query refund requests: %w", err)
	}
	defer rows.Close()

	var reqs []domain.RefundRequest
	for rows.Next() {
		var r domain.RefundRequest
		if err := rows.Scan(&r.ID, &r.OrderID, &r.CustomerID, &r.Reason,
			&r.Amount, &r.Status, &r.RequestedAt); err != nil {
			return nil, fmt.Errorf("scan refund request: %w", err)
		}
		reqs = append(reqs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate refund requests: %w", err)
	}

	return reqs, nil
}
