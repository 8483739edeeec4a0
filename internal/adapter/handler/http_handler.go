package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/core/domain"
	"github.com/oakmart/storefront/internal/core/service"
)

// HTTPHandler exposes the cart action endpoint and the order endpoints. The
// customer identity arrives as an opaque X-Customer-ID header set by the
// surrounding auth layer; it is trusted, not re-validated.
type HTTPHandler struct {
	cart    *service.CartService
	coupons *service.CouponService
	orders  *service.OrderService
}

func NewHTTPHandler(cart *service.CartService, coupons *service.CouponService, orders *service.OrderService) *HTTPHandler {
	return &HTTPHandler{cart: cart, coupons: coupons, orders: orders}
}

// Register mounts all routes on the mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/cart", h.CartAction)
	mux.HandleFunc("POST /api/checkout", h.Checkout)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	mux.HandleFunc("POST /api/orders/cancel", h.CancelOrder)
	mux.HandleFunc("POST /api/orders/refund", h.RequestRefund)
	mux.HandleFunc("POST /api/admin/orders/status", h.UpdateOrderStatus)
	mux.HandleFunc("GET /health", h.HealthCheck)
}

type cartActionRequest struct {
	Action     string `json:"action"`
	ProductID  int64  `json:"product_id"`
	Quantity   *int   `json:"quantity"`
	CouponCode string `json:"coupon_code"`
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// CartAction is the single dispatch endpoint for cart mutations:
// add, update, remove, apply_coupon, remove_coupon, get.
func (h *HTTPHandler) CartAction(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	var req cartActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid request body"})
		return
	}

	switch req.Action {
	case "add":
		h.addItem(w, r, customerID, req)
	case "update":
		h.updateItem(w, r, customerID, req)
	case "remove":
		h.removeItem(w, r, customerID, req)
	case "apply_coupon":
		h.applyCoupon(w, r, customerID, req)
	case "remove_coupon":
		h.removeCoupon(w, r, customerID)
	case "get":
		h.getCart(w, r, customerID)
	default:
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Invalid action"})
	}
}

func (h *HTTPHandler) addItem(w http.ResponseWriter, r *http.Request, customerID int64, req cartActionRequest) {
	if req.ProductID == 0 {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Invalid product"})
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	count, err := h.cart.AddItem(r.Context(), customerID, req.ProductID, quantity)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		apiResponse
		CartCount int `json:"cart_count"`
	}{apiResponse{Success: true, Message: "Item added to cart"}, count})
}

func (h *HTTPHandler) updateItem(w http.ResponseWriter, r *http.Request, customerID int64, req cartActionRequest) {
	if req.ProductID == 0 {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Invalid product"})
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	view, err := h.cart.UpdateQuantity(r.Context(), customerID, req.ProductID, quantity)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		apiResponse
		Cart cartDTO `json:"cart"`
	}{apiResponse{Success: true, Message: "Quantity updated"}, toCartDTO(view)})
}

func (h *HTTPHandler) removeItem(w http.ResponseWriter, r *http.Request, customerID int64, req cartActionRequest) {
	if req.ProductID == 0 {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Invalid product"})
		return
	}

	count, err := h.cart.RemoveItem(r.Context(), customerID, req.ProductID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		apiResponse
		CartCount int `json:"cart_count"`
	}{apiResponse{Success: true, Message: "Item removed from cart"}, count})
}

func (h *HTTPHandler) applyCoupon(w http.ResponseWriter, r *http.Request, customerID int64, req cartActionRequest) {
	if req.CouponCode == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Please enter a coupon code"})
		return
	}

	result, err := h.coupons.Apply(r.Context(), customerID, req.CouponCode)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		apiResponse
		Discount decimal.Decimal `json:"discount"`
		NewTotal decimal.Decimal `json:"new_total"`
	}{apiResponse{Success: true, Message: "Coupon applied successfully"}, result.Discount, result.NewTotal})
}

func (h *HTTPHandler) removeCoupon(w http.ResponseWriter, r *http.Request, customerID int64) {
	if err := h.coupons.Remove(r.Context(), customerID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Coupon removed"})
}

func (h *HTTPHandler) getCart(w http.ResponseWriter, r *http.Request, customerID int64) {
	view, err := h.cart.GetCart(r.Context(), customerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		apiResponse
		Cart cartDTO `json:"cart"`
	}{apiResponse{Success: true}, toCartDTO(view)})
}

type checkoutRequest struct {
	ShippingAddress string `json:"shipping_address"`
	BillingAddress  string `json:"billing_address"`
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid request body"})
		return
	}
	if req.ShippingAddress == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Shipping address is required"})
		return
	}

	result, err := h.orders.CreateFromCart(r.Context(), customerID, req.ShippingAddress, req.BillingAddress)
	if err != nil {
		var validation *service.ValidationError
		if errors.As(err, &validation) {
			writeJSON(w, http.StatusUnprocessableEntity, struct {
				apiResponse
				Errors []string `json:"errors"`
			}{apiResponse{Success: false, Message: "Cart validation failed"}, validation.Errors})
			return
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		apiResponse
		OrderID     int64           `json:"order_id"`
		OrderNumber string          `json:"order_number"`
		Total       decimal.Decimal `json:"total"`
	}{apiResponse{Success: true, Message: "Order created successfully"}, result.OrderID, result.Number, result.Total})
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.orders.ListOrders(r.Context(), customerID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]orderDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, toOrderDTO(&orders[i]))
	}
	writeJSON(w, http.StatusOK, struct {
		apiResponse
		Orders []orderDTO `json:"orders"`
	}{apiResponse{Success: true}, dtos})
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid order id"})
		return
	}

	order, err := h.orders.GetOrder(r.Context(), orderID, customerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		apiResponse
		Order orderDTO `json:"order"`
	}{apiResponse{Success: true}, toOrderDTO(order)})
}

type orderActionRequest struct {
	OrderID int64  `json:"order_id"`
	Reason  string `json:"reason"`
}

func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	var req orderActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == 0 {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid request body"})
		return
	}

	if err := h.orders.Cancel(r.Context(), req.OrderID, customerID, req.Reason); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Order cancelled successfully"})
}

func (h *HTTPHandler) RequestRefund(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	var req orderActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == 0 {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid request body"})
		return
	}

	if err := h.orders.RequestRefund(r.Context(), req.OrderID, customerID, req.Reason); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Refund request submitted"})
}

type statusUpdateRequest struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
	Notes   string `json:"notes"`
}

func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == 0 {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid request body"})
		return
	}

	err := h.orders.UpdateStatus(r.Context(), req.OrderID, domain.OrderStatus(req.Status), req.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Order status updated"})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) customerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.Header.Get("X-Customer-ID"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusUnauthorized, apiResponse{Success: false, Message: "Please login first"})
		return 0, false
	}
	return id, true
}

// writeServiceError maps the service error taxonomy onto HTTP statuses. The
// message is always safe to show; technical detail never leaves the server.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrLineNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrCouponInvalid),
		errors.Is(err, service.ErrMinPurchaseNotMet),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrRefundNotEligible):
		status = http.StatusUnprocessableEntity
		message = err.Error()
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrRefundAlreadyRequested):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, service.ErrOrderCreationFailed):
		message = "Failed to create order"
	}

	writeJSON(w, status, apiResponse{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
