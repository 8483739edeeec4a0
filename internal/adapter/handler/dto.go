package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/core/domain"
)

type cartLineDTO struct {
	ProductID    int64           `json:"product_id"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Stock        int             `json:"stock"`
	InStock      bool            `json:"in_stock"`
	AddedAt      time.Time       `json:"added_at"`
}

type summaryDTO struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Shipping  decimal.Decimal `json:"shipping"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

type cartDTO struct {
	Items   []cartLineDTO `json:"items"`
	Summary summaryDTO    `json:"summary"`
}

func toCartDTO(view *domain.CartView) cartDTO {
	items := make([]cartLineDTO, 0, len(view.Lines))
	for _, l := range view.Lines {
		items = append(items, cartLineDTO{
			ProductID:    l.ProductID,
			Name:         l.ProductName,
			SKU:          l.SKU,
			Quantity:     l.Quantity,
			Price:        l.UnitPrice,
			CurrentPrice: l.CurrentPrice,
			Subtotal:     l.Subtotal(),
			Stock:        l.Stock,
			InStock:      l.InStock,
			AddedAt:      l.AddedAt,
		})
	}
	return cartDTO{
		Items: items,
		Summary: summaryDTO{
			Subtotal:  view.Summary.Subtotal,
			Tax:       view.Summary.Tax,
			Shipping:  view.Summary.Shipping,
			Total:     view.Summary.Total,
			ItemCount: view.Summary.ItemCount,
		},
	}
}

type orderLineDTO struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type orderDTO struct {
	OrderID        int64           `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Status         string          `json:"status"`
	OrderDate      time.Time       `json:"order_date"`
	Items          []orderLineDTO  `json:"items,omitempty"`
}

func toOrderDTO(o *domain.Order) orderDTO {
	dto := orderDTO{
		OrderID:        o.ID,
		OrderNumber:    o.Number,
		Subtotal:       o.Subtotal,
		TaxAmount:      o.TaxAmount,
		ShippingCost:   o.ShippingCost,
		DiscountAmount: o.DiscountAmount,
		TotalAmount:    o.TotalAmount,
		Status:         string(o.Status),
		OrderDate:      o.OrderDate,
	}
	for _, l := range o.Lines {
		dto.Items = append(dto.Items, orderLineDTO{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return dto
}
