package domain

import "github.com/shopspring/decimal"

// Product is the catalog view this engine needs: current price, active flag
// and summed inventory. The catalog itself is owned elsewhere and never
// mutated here.
type Product struct {
	ID       int64
	Name     string
	SKU      string
	Price    decimal.Decimal
	IsActive bool
	Stock    int
}
