package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/oakmart/storefront/internal/core/domain"
)

// MySQLCatalog is the read-only catalog adapter. Stock is the sum over the
// product's inventory rows, matching what the storefront shows shoppers.
type MySQLCatalog struct {
	db *sql.DB
}

func NewMySQLCatalog(db *sql.DB) *MySQLCatalog {
	return &MySQLCatalog{db: db}
}

func (m *MySQLCatalog) GetByID(ctx context.Context, productID int64) (*domain.Product, error) {
	var p domain.Product
	err := m.db.QueryRowContext(ctx, `
		SELECT p.product_id, p.name, p.sku, p.price, p.is_active,
		       COALESCE(SUM(i.quantity), 0) AS stock
		FROM product p
		LEFT JOIN inventory i ON p.product_id = i.product_id
		WHERE p.product_id = ?
		GROUP BY p.product_id`, productID,
	).Scan(&p.ID, &p.Name, &p.SKU, &p.Price, &p.IsActive, &p.Stock)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}

	return &p, nil
}

func (m *MySQLCatalog) CheckStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	var stock int
	err := m.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM inventory
		WHERE product_id = ?`, productID,
	).Scan(&stock)
	if err != nil {
		return false, fmt.Errorf("query stock: %w", err)
	}

	return stock >= quantity, nil
}
