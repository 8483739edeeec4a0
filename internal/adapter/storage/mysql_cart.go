package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/core/domain"
)

// MySQLCartRepository stores carts and their lines. One cart per customer;
// the (cart_id, product_id) pair is unique, so a product is always a single
// line.
type MySQLCartRepository struct {
	db *sql.DB
}

func NewMySQLCartRepository(db *sql.DB) *MySQLCartRepository {
	return &MySQLCartRepository{db: db}
}

func (m *MySQLCartRepository) GetOrCreateCart(ctx context.Context, customerID int64) (int64, error) {
	var cartID int64
	err := m.db.QueryRowContext(ctx,
		`SELECT cart_id FROM cart WHERE customer_id = ?`, customerID,
	).Scan(&cartID)
	if err == nil {
		return cartID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("query cart: %w", err)
	}

	result, err := m.db.ExecContext(ctx,
		`INSERT INTO cart (customer_id) VALUES (?)`, customerID)
	if err != nil {
		return 0, fmt.Errorf("insert cart: %w", err)
	}

	cartID, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("cart id: %w", err)
	}
	return cartID, nil
}

func (m *MySQLCartRepository) GetLines(ctx context.Context, cartID int64) ([]domain.CartLine, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT ci.cart_id, ci.product_id, p.name, p.sku, ci.quantity, ci.price,
		       ci.added_at, p.price AS current_price,
		       COALESCE(SUM(i.quantity), 0) AS stock
		FROM cart_item ci
		JOIN product p ON ci.product_id = p.product_id
		LEFT JOIN inventory i ON p.product_id = i.product_id
		WHERE ci.cart_id = ?
		GROUP BY ci.cart_id, ci.product_id
		ORDER BY ci.added_at DESC`, cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.CartID, &l.ProductID, &l.ProductName, &l.SKU,
			&l.Quantity, &l.UnitPrice, &l.AddedAt, &l.CurrentPrice, &l.Stock); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		l.InStock = l.Stock >= l.Quantity
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}

	return lines, nil
}

func (m *MySQLCartRepository) FindLine(ctx context.Context, cartID, productID int64) (*domain.CartLine, error) {
	var l domain.CartLine
	err := m.db.QueryRowContext(ctx, `
		SELECT cart_id, product_id, quantity, price, added_at
		FROM cart_item
		WHERE cart_id = ? AND product_id = ?`, cartID, productID,
	).Scan(&l.CartID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.AddedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query cart line: %w", err)
	}

	return &l, nil
}

func (m *MySQLCartRepository) UpsertLine(ctx context.Context, cartID, productID int64, quantity int, unitPrice decimal.Decimal) error {
	// The uniq_cart_product key turns a repeated add into an atomic
	// quantity increment; the frozen price column is left alone.
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO cart_item (cart_id, product_id, quantity, price)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`,
		cartID, productID, quantity, unitPrice)
	if err != nil {
		return fmt.Errorf("upsert cart line: %w", err)
	}
	return nil
}

func (m *MySQLCartRepository) UpdateLineQuantity(ctx context.Context, cartID, productID int64, quantity int) (bool, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE cart_item SET quantity = ?
		WHERE cart_id = ? AND product_id = ?`,
		quantity, cartID, productID)
	if err != nil {
		return false, fmt.Errorf("update cart line: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (m *MySQLCartRepository) DeleteLine(ctx context.Context, cartID, productID int64) (bool, error) {
	result, err := m.db.ExecContext(ctx, `
		DELETE FROM cart_item WHERE cart_id = ? AND product_id = ?`,
		cartID, productID)
	if err != nil {
		return false, fmt.Errorf("delete cart line: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (m *MySQLCartRepository) ClearLines(ctx context.Context, cartID int64) error {
	_, err := m.db.ExecContext(ctx,
		`DELETE FROM cart_item WHERE cart_id = ?`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart lines: %w", err)
	}
	return nil
}

func (m *MySQLCartRepository) CountLines(ctx context.Context, cartID int64) (int, error) {
	var count int
	err := m.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cart_item WHERE cart_id = ?`, cartID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count cart lines: %w", err)
	}
	return count, nil
}
