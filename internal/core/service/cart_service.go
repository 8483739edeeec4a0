package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/oakmart/storefront/internal/core/domain"
	"github.com/oakmart/storefront/internal/port"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrLineNotFound      = errors.New("item not in cart")
)

// CartService owns the mutable per-customer cart. Stock checks here are an
// optimistic pre-check for the user's benefit; the database-level inventory
// mechanism is the authoritative guard.
type CartService struct {
	carts   port.CartRepository
	catalog port.CatalogReader
	rates   domain.Rates
}

func NewCartService(carts port.CartRepository, catalog port.CatalogReader, rates domain.Rates) *CartService {
	return &CartService{carts: carts, catalog: catalog, rates: rates}
}

// CartID returns the customer's cart id, creating the cart on first access.
func (s *CartService) CartID(ctx context.Context, customerID int64) (int64, error) {
	return s.carts.GetOrCreateCart(ctx, customerID)
}

// GetCart returns the cart's lines joined with current catalog price and
// stock, plus the computed pricing summary. Side-effect-free apart from the
// lazy cart creation.
func (s *CartService) GetCart(ctx context.Context, customerID int64) (*domain.CartView, error) {
	cartID, err := s.carts.GetOrCreateCart(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	lines, err := s.carts.GetLines(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("get cart lines: %w", err)
	}

	return &domain.CartView{
		Lines:   lines,
		Summary: domain.Summarize(lines, s.rates),
	}, nil
}

// AddItem puts quantity units of the product in the cart at the product's
// current price, or bumps the quantity of an existing line without touching
// its frozen price. Returns the updated distinct-line count.
func (s *CartService) AddItem(ctx context.Context, customerID, productID int64, quantity int) (int, error) {
	if quantity < 1 {
		return 0, ErrInvalidQuantity
	}

	product, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("lookup product: %w", err)
	}
	if product == nil || !product.IsActive {
		return 0, ErrProductNotFound
	}

	cartID, err := s.carts.GetOrCreateCart(ctx, customerID)
	if err != nil {
		return 0, fmt.Errorf("get cart: %w", err)
	}

	existing, err := s.carts.FindLine(ctx, cartID, productID)
	if err != nil {
		return 0, fmt.Errorf("find cart line: %w", err)
	}

	// Stock must cover the cumulative quantity, not just the increment.
	cumulative := quantity
	if existing != nil {
		cumulative += existing.Quantity
	}
	ok, err := s.catalog.CheckStock(ctx, productID, cumulative)
	if err != nil {
		return 0, fmt.Errorf("check stock: %w", err)
	}
	if !ok {
		return 0, ErrInsufficientStock
	}

	if err := s.carts.UpsertLine(ctx, cartID, productID, quantity, product.Price); err != nil {
		return 0, fmt.Errorf("upsert cart line: %w", err)
	}

	count, err := s.carts.CountLines(ctx, cartID)
	if err != nil {
		return 0, fmt.Errorf("count cart lines: %w", err)
	}
	return count, nil
}

// UpdateQuantity overwrites the line's quantity after re-checking stock for
// the new absolute quantity. Quantities below one remove the line instead.
func (s *CartService) UpdateQuantity(ctx context.Context, customerID, productID int64, quantity int) (*domain.CartView, error) {
	if quantity < 1 {
		if _, err := s.RemoveItem(ctx, customerID, productID); err != nil {
			return nil, err
		}
		return s.GetCart(ctx, customerID)
	}

	ok, err := s.catalog.CheckStock(ctx, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("check stock: %w", err)
	}
	if !ok {
		return nil, ErrInsufficientStock
	}

	cartID, err := s.carts.GetOrCreateCart(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	updated, err := s.carts.UpdateLineQuantity(ctx, cartID, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("update cart line: %w", err)
	}
	if !updated {
		return nil, ErrLineNotFound
	}

	return s.GetCart(ctx, customerID)
}

// RemoveItem deletes the line and returns the updated line count.
func (s *CartService) RemoveItem(ctx context.Context, customerID, productID int64) (int, error) {
	cartID, err := s.carts.GetOrCreateCart(ctx, customerID)
	if err != nil {
		return 0, fmt.Errorf("get cart: %w", err)
	}

	deleted, err := s.carts.DeleteLine(ctx, cartID, productID)
	if err != nil {
		return 0, fmt.Errorf("delete cart line: %w", err)
	}
	if !deleted {
		return 0, ErrLineNotFound
	}

	count, err := s.carts.CountLines(ctx, cartID)
	if err != nil {
		return 0, fmt.Errorf("count cart lines: %w", err)
	}
	return count, nil
}

// ClearCart deletes all lines. Used by the order engine after checkout.
func (s *CartService) ClearCart(ctx context.Context, customerID int64) error {
	cartID, err := s.carts.GetOrCreateCart(ctx, customerID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}
	if err := s.carts.ClearLines(ctx, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// ItemCount returns the number of distinct lines in the cart.
func (s *CartService) ItemCount(ctx context.Context, customerID int64) (int, error) {
	cartID, err := s.carts.GetOrCreateCart(ctx, customerID)
	if err != nil {
		return 0, fmt.Errorf("get cart: %w", err)
	}
	return s.carts.CountLines(ctx, cartID)
}

// Validation is the advisory result of a pre-checkout cart check. Checkout
// blocks on !Valid; read-only cart views may still render with the messages
// as inline warnings.
type Validation struct {
	Valid  bool
	Errors []string
	Cart   *domain.CartView
}

// Validate re-fetches every product in the cart and reports, per line,
// whether it is still purchasable at the price the customer saw.
func (s *CartService) Validate(ctx context.Context, customerID int64) (*Validation, error) {
	view, err := s.GetCart(ctx, customerID)
	if err != nil {
		return nil, err
	}

	var msgs []string
	if len(view.Lines) == 0 {
		msgs = append(msgs, "Cart is empty")
		return &Validation{Valid: false, Errors: msgs, Cart: view}, nil
	}

	for _, line := range view.Lines {
		product, err := s.catalog.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("lookup product: %w", err)
		}
		if product == nil || !product.IsActive {
			msgs = append(msgs, fmt.Sprintf("Product '%s' is no longer available", line.ProductName))
			continue
		}
		if !line.InStock {
			msgs = append(msgs, fmt.Sprintf("Insufficient stock for '%s'", line.ProductName))
		}
		if !line.UnitPrice.Equal(product.Price) {
			msgs = append(msgs, fmt.Sprintf("Price for '%s' has changed", line.ProductName))
		}
	}

	return &Validation{Valid: len(msgs) == 0, Errors: msgs, Cart: view}, nil
}
