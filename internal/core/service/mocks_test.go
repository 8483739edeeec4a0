package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/core/domain"
)

// Mock CatalogReader
type mockCatalog struct {
	mu       sync.Mutex
	products map[int64]domain.Product
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{products: make(map[int64]domain.Product)}
}

func (m *mockCatalog) put(p domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *mockCatalog) setPrice(id int64, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.products[id]
	p.Price = price
	m.products[id] = p
}

func (m *mockCatalog) GetByID(ctx context.Context, productID int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockCatalog) CheckStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	return ok && p.Stock >= quantity, nil
}

// Mock CartRepository
type mockCartRepo struct {
	mu      sync.Mutex
	nextID  int64
	carts   map[int64]int64 // customer id -> cart id
	lines   map[int64][]domain.CartLine
	catalog *mockCatalog
}

func newMockCartRepo(catalog *mockCatalog) *mockCartRepo {
	return &mockCartRepo{
		carts:   make(map[int64]int64),
		lines:   make(map[int64][]domain.CartLine),
		catalog: catalog,
	}
}

func (m *mockCartRepo) GetOrCreateCart(ctx context.Context, customerID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.carts[customerID]; ok {
		return id, nil
	}
	m.nextID++
	m.carts[customerID] = m.nextID
	return m.nextID, nil
}

func (m *mockCartRepo) GetLines(ctx context.Context, cartID int64) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CartLine
	for _, l := range m.lines[cartID] {
		if p, ok := m.catalog.products[l.ProductID]; ok {
			l.ProductName = p.Name
			l.SKU = p.SKU
			l.CurrentPrice = p.Price
			l.Stock = p.Stock
			l.InStock = p.Stock >= l.Quantity
		}
		out = append(out, l)
	}
	return out, nil
}

func (m *mockCartRepo) FindLine(ctx context.Context, cartID, productID int64) (*domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lines[cartID] {
		if l.ProductID == productID {
			return &l, nil
		}
	}
	return nil, nil
}

func (m *mockCartRepo) UpsertLine(ctx context.Context, cartID, productID int64, quantity int, unitPrice decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.lines[cartID] {
		if l.ProductID == productID {
			m.lines[cartID][i].Quantity += quantity
			return nil
		}
	}
	m.lines[cartID] = append(m.lines[cartID], domain.CartLine{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		AddedAt:   time.Now(),
	})
	return nil
}

func (m *mockCartRepo) UpdateLineQuantity(ctx context.Context, cartID, productID int64, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.lines[cartID] {
		if l.ProductID == productID {
			m.lines[cartID][i].Quantity = quantity
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCartRepo) DeleteLine(ctx context.Context, cartID, productID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.lines[cartID] {
		if l.ProductID == productID {
			m.lines[cartID] = append(m.lines[cartID][:i], m.lines[cartID][i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCartRepo) ClearLines(ctx context.Context, cartID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lines, cartID)
	return nil
}

func (m *mockCartRepo) CountLines(ctx context.Context, cartID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lines[cartID]), nil
}

// Mock CouponRepository; eligibility filtering mirrors the SQL.
type mockCouponRepo struct {
	mu      sync.Mutex
	coupons map[string]domain.Coupon
}

func newMockCouponRepo() *mockCouponRepo {
	return &mockCouponRepo{coupons: make(map[string]domain.Coupon)}
}

func (m *mockCouponRepo) put(c domain.Coupon) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coupons[c.Code] = c
}

func (m *mockCouponRepo) FindEligibleByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[code]
	if !ok || !c.IsActive || c.TimesUsed >= c.UsageLimit {
		return nil, nil
	}
	if c.ExpiryDate != nil && c.ExpiryDate.Before(time.Now()) {
		return nil, nil
	}
	return &c, nil
}

// Mock CouponSessionStore
type mockSessionStore struct {
	mu      sync.Mutex
	entries map[int64]domain.AppliedCoupon
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{entries: make(map[int64]domain.AppliedCoupon)}
}

func (m *mockSessionStore) Get(ctx context.Context, customerID int64) (*domain.AppliedCoupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	applied, ok := m.entries[customerID]
	if !ok {
		return nil, nil
	}
	return &applied, nil
}

func (m *mockSessionStore) Set(ctx context.Context, customerID int64, applied domain.AppliedCoupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[customerID] = applied
	return nil
}

func (m *mockSessionStore) Clear(ctx context.Context, customerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, customerID)
	return nil
}

// Mock OrderRepository. CreateOrder mimics the transaction: with failCreate
// set it fails without touching anything, otherwise the order lands and the
// cart's lines are cleared in the same step.
type mockOrderRepo struct {
	mu         sync.Mutex
	nextID     int64
	orders     map[int64]*domain.Order
	refunds    map[int64]domain.RefundRequest
	cartRepo   *mockCartRepo
	failCreate bool
}

func newMockOrderRepo(cartRepo *mockCartRepo) *mockOrderRepo {
	return &mockOrderRepo{
		orders:   make(map[int64]*domain.Order),
		refunds:  make(map[int64]domain.RefundRequest),
		cartRepo: cartRepo,
	}
}

func (m *mockOrderRepo) CreateOrder(ctx context.Context, order *domain.Order, taxRate decimal.Decimal, cartID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate {
		return 0, errors.New("tx aborted")
	}
	m.nextID++
	stored := *order
	stored.ID = m.nextID
	stored.Lines = append([]domain.OrderLine(nil), order.Lines...)
	m.orders[m.nextID] = &stored
	if m.cartRepo != nil {
		m.cartRepo.ClearLines(ctx, cartID)
	}
	return m.nextID, nil
}

func (m *mockOrderRepo) GetByID(ctx context.Context, orderID, customerID int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || (customerID != 0 && o.CustomerID != customerID) {
		return nil, nil
	}
	copied := *o
	copied.Lines = append([]domain.OrderLine(nil), o.Lines...)
	return &copied, nil
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus, notes *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return false, nil
	}
	o.Status = status
	if notes != nil {
		o.Notes = *notes
	}
	return true, nil
}

func (m *mockOrderRepo) ListByCustomer(ctx context.Context, customerID int64, limit, offset int) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) Stats(ctx context.Context, customerID int64) (domain.OrderStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s domain.OrderStats
	for _, o := range m.orders {
		if customerID != 0 && o.CustomerID != customerID {
			continue
		}
		s.TotalOrders++
	}
	return s, nil
}

func (m *mockOrderRepo) HasRefundRequest(ctx context.Context, orderID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.refunds[orderID]
	return ok, nil
}

func (m *mockOrderRepo) CreateRefundRequest(ctx context.Context, req domain.RefundRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.refunds[req.OrderID]; ok {
		return errors.New("duplicate refund request")
	}
	m.refunds[req.OrderID] = req
	return nil
}

func (m *mockOrderRepo) ListRefundRequests(ctx context.Context, customerID int64, status domain.RefundStatus) ([]domain.RefundRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.RefundRequest
	for _, r := range m.refunds {
		if customerID != 0 && r.CustomerID != customerID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
