package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/core/domain"
)

func testRates() domain.Rates {
	return domain.Rates{
		TaxRate:      decimal.RequireFromString("0.10"),
		ShippingCost: decimal.RequireFromString("5.99"),
	}
}

func newTestCartService() (*CartService, *mockCatalog, *mockCartRepo) {
	catalog := newMockCatalog()
	carts := newMockCartRepo(catalog)
	return NewCartService(carts, catalog, testRates()), catalog, carts
}

func TestAddItem_NewLine(t *testing.T) {
	svc, catalog, _ := newTestCartService()
	catalog.put(domain.Product{ID: 42, Name: "Widget", Price: decimal.NewFromInt(25), IsActive: true, Stock: 5})

	count, err := svc.AddItem(context.Background(), 1, 42, 2)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected cart count 1, got %d", count)
	}

	view, err := svc.GetCart(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetCart failed: %v", err)
	}
	if len(view.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(view.Lines))
	}
	if view.Lines[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", view.Lines[0].Quantity)
	}
	if !view.Lines[0].UnitPrice.Equal(decimal.NewFromInt(25)) {
		t.Errorf("expected price 25, got %s", view.Lines[0].UnitPrice)
	}
}

func TestAddItem_SameProductMergesLines(t *testing.T) {
	svc, catalog, _ := newTestCartService()
	catalog.put(domain.Product{ID: 42, Name: "Widget", Price: decimal.NewFromInt(25), IsActive: true, Stock: 10})

	if _, err := svc.AddItem(context.Background(), 1, 42, 2); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	count, err := svc.AddItem(context.Background(), 1, 42, 3)
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected a single merged line, got count %d", count)
	}

	view, _ := svc.GetCart(context.Background(), 1)
	if view.Lines[0].Quantity != 5 {
		t.Errorf("expected merged quantity 5, got %d", view.Lines[0].Quantity)
	}
}

func TestAddItem_PriceFrozenAtAddTime(t *testing.T) {
	svc, catalog, _ := newTestCartService()
	catalog.put(domain.Product{ID: 7, Name: "Gadget", Price: decimal.NewFromInt(10), IsActive: true, Stock: 5})

	if _, err := svc.AddItem(context.Background(), 1, 7, 1); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	catalog.setPrice(7, decimal.NewFromInt(12))

	view, err := svc.GetCart(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetCart failed: %v", err)
	}
	line := view.Lines[0]
	if !line.UnitPrice.Equal(decimal.NewFromInt(10)) {
		t.Errorf("frozen price changed: got %s", line.UnitPrice)
	}
	if !line.CurrentPrice.Equal(decimal.NewFromInt(12)) {
		t.Errorf("expected current price 12, got %s", line.CurrentPrice)
	}
}

func TestAddItem_IncrementKeepsFrozenPrice(t *testing.T) {
	svc, catalog, _ := newTestCartService()
	catalog.put(domain.Product{ID: 7, Name: "Gadget", Price: decimal.NewFromInt(10), IsActive: true, Stock: 10})

	if _, err := svc.AddItem(context.Background(), 1, 7, 1); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	catalog.setPrice(7, decimal.NewFromInt(12))
	if _, err := svc.AddItem(context.Background(), 1, 7, 1); err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	view, _ := svc.GetCart(context.Background(), 1)
	if !view.Lines[0].UnitPrice.Equal(decimal.NewFromInt(10)) {
		t.Errorf("increment refreshed the frozen price: got %s", view.Lines[0].UnitPrice)
	}
}

func TestAddItem_ConcurrentAddsAllCounted(t *testing.T) {
	svc, catalog, _ := newTestCartService()
	catalog.put(domain.Product{ID: 42, Name: "Widget", Price: decimal.NewFromInt(25), IsActive: true, Stock: 100})

	adds := 20
	var wg sync.WaitGroup
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddItem(context.Background(), 1, 42, 1); err != nil {
				t.Errorf("AddItem failed: %v", err)
			}
		}()
	}
	wg.Wait()

	view, err := svc.GetCart(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetCart failed: %v", err)
	}
	if len(view.Lines) != 1 {
		t.Fatalf("expected 1 merged line, got %d", len(view.Lines))
	}
	if view.Lines[0].Quantity != adds {
		t.Errorf("lost increments: expected quantity %d, got %d", adds, view.Lines[0].Quantity)
	}
}

func TestAddItem_Errors(t *testing.T) {
	svc, catalog, _ := newTestCartService()
	catalog.put(domain.Product{ID: 1, Name: "Active", Price: decimal.NewFromInt(5), IsActive: true, Stock: 3})
	catalog.put(domain.Product{ID: 2, Name: "Inactive", Price: decimal.NewFromInt(5), IsActive: false, Stock: 3})

	if _, err := svc.AddItem(context.Background(), 1, 99, 1); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("missing product: expected ErrProductNotFound, got %v", err)
	}
	if _, err := svc.AddItem(context.Background(), 1, 2, 1); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("inactive product: expected ErrProductNotFound, got %v", err)
	}
	if _, err := svc.AddItem(context.Background(), 1, 1, 4); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("over stock: expected ErrInsufficientStock, got %v", err)
	}
	if _, err := svc.AddItem(context.Background(), 1, 1, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("zero quantity: expected ErrInvalidQuantity, got %v", err)
	}
}

func TestAddItem_CumulativeStockGate(t *testing.T) {
	svc, catalog, _ := newTestCartService()
	catalog.put(domain.Product{ID: 1, Name: "Scarce", Price: decimal.NewFromInt(5), IsActive: true, Stock: 5})

	if _, err := svc.AddItem(context.Background(), 1, 1, 3); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	// 3 already in the cart; another 3 exceeds the 5 in stock.
	if _, err := svc.AddItem(context.Background(), 1, 1, 3); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock on cumulative quantity, got %v", err)
	}

	view, _ := svc.GetCart(context.Background(), 1)
	if view.Lines[0].Quantity != 3 {
		t.Errorf("failed add mutated the line: quantity %d", view.Lines[0].Quantity)
	}
}

func TestUpdateQuantity(t *testing.T) {
	svc, catalog, _ := newTestCartService()
	catalog.put(domain.Product{ID: 1, Name: "Widget", Price: decimal.NewFromInt(5), IsActive: true, Stock: 5})

	if _, err := svc.AddItem(context.Background(), 1, 1, 1); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	view, err := svc.UpdateQuantity(context.Background(), 1, 1, 4)
	if err != nil {
		t.Fatalf("UpdateQuantity failed: %v", err)
	}
	if view.Lines[0].Quantity != 4 {
		t.Errorf("expected quantity 4, got %d", view.Lines[0].Quantity)
	}

	if _, err := svc.UpdateQuantity(context.Background(), 1, 1, 6); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock on absolute quantity, got %v", err)
	}

	// Below one removes the line.
	view, err = svc.UpdateQuantity(context.Background(), 1, 1, 0)
	if err != nil {
		t.Fatalf("UpdateQuantity(0) failed: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Errorf("expected empty cart, got %d lines", len(view.Lines))
	}
}

func TestRemoveItem_NotInCart(t *testing.T) {
	svc, _, _ := newTestCartService()

	if _, err := svc.RemoveItem(context.Background(), 1, 99); !errors.Is(err, ErrLineNotFound) {
		t.Errorf("expected ErrLineNotFound, got %v", err)
	}
}

func TestGetCart_Summary(t *testing.T) {
	svc, catalog, _ := newTestCartService()
	catalog.put(domain.Product{ID: 42, Name: "Widget", Price: decimal.NewFromInt(25), IsActive: true, Stock: 5})

	if _, err := svc.AddItem(context.Background(), 1, 42, 2); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	view, err := svc.GetCart(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetCart failed: %v", err)
	}

	s := view.Summary
	if !s.Subtotal.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected subtotal 50, got %s", s.Subtotal)
	}
	if !s.Tax.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected tax 5, got %s", s.Tax)
	}
	if !s.Shipping.Equal(decimal.RequireFromString("5.99")) {
		t.Errorf("expected shipping 5.99, got %s", s.Shipping)
	}
	if !s.Total.Equal(decimal.RequireFromString("60.99")) {
		t.Errorf("expected total 60.99, got %s", s.Total)
	}
	if s.ItemCount != 1 {
		t.Errorf("expected item count 1, got %d", s.ItemCount)
	}
}

func TestValidate_EmptyCart(t *testing.T) {
	svc, _, _ := newTestCartService()

	v, err := svc.Validate(context.Background(), 1)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if v.Valid {
		t.Error("empty cart reported valid")
	}
	if len(v.Errors) != 1 || v.Errors[0] != "Cart is empty" {
		t.Errorf("unexpected errors: %v", v.Errors)
	}
}

func TestValidate_FlagsEveryProblem(t *testing.T) {
	svc, catalog, _ := newTestCartService()
	catalog.put(domain.Product{ID: 1, Name: "Gone", Price: decimal.NewFromInt(5), IsActive: true, Stock: 5})
	catalog.put(domain.Product{ID: 2, Name: "Scarce", Price: decimal.NewFromInt(5), IsActive: true, Stock: 5})
	catalog.put(domain.Product{ID: 3, Name: "Drifted", Price: decimal.NewFromInt(5), IsActive: true, Stock: 5})

	ctx := context.Background()
	for id := int64(1); id <= 3; id++ {
		if _, err := svc.AddItem(ctx, 1, id, 2); err != nil {
			t.Fatalf("AddItem(%d) failed: %v", id, err)
		}
	}

	catalog.put(domain.Product{ID: 1, Name: "Gone", Price: decimal.NewFromInt(5), IsActive: false, Stock: 5})
	catalog.put(domain.Product{ID: 2, Name: "Scarce", Price: decimal.NewFromInt(5), IsActive: true, Stock: 1})
	catalog.setPrice(3, decimal.NewFromInt(6))

	v, err := svc.Validate(ctx, 1)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if v.Valid {
		t.Error("broken cart reported valid")
	}
	if len(v.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(v.Errors), v.Errors)
	}

	want := map[string]bool{
		"Product 'Gone' is no longer available": false,
		"Insufficient stock for 'Scarce'":       false,
		"Price for 'Drifted' has changed":       false,
	}
	for _, msg := range v.Errors {
		if _, ok := want[msg]; !ok {
			t.Errorf("unexpected validation message %q", msg)
		}
		want[msg] = true
	}
	for msg, seen := range want {
		if !seen {
			t.Errorf("missing validation message %q", msg)
		}
	}
}

func TestValidate_HappyCart(t *testing.T) {
	svc, catalog, _ := newTestCartService()
	catalog.put(domain.Product{ID: 1, Name: "Fine", Price: decimal.NewFromInt(5), IsActive: true, Stock: 5})

	if _, err := svc.AddItem(context.Background(), 1, 1, 2); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	v, err := svc.Validate(context.Background(), 1)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !v.Valid {
		t.Errorf("expected valid cart, got errors: %v", v.Errors)
	}
}
