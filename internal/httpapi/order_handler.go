package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/checkout"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/middleware"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/order"
)

type CheckoutService interface {
	PlaceOrder(ctx context.Context, who checkout.Identity, req checkout.PlaceOrderRequest) (*checkout.PlaceOrderResult, error)
}

type OrderReader interface {
	ListVisibleByUser(ctx context.Context, userID string) ([]order.Order, error)
}

type OrderHandler struct {
	checkout CheckoutService
	orders   OrderReader
}

func NewOrderHandler(checkout CheckoutService, orders OrderReader) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders}
}

func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req checkout.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	res, err := h.checkout.PlaceOrder(ctx, checkout.Identity{UserID: user.ID, IsMember: user.IsMember}, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.orders.ListVisibleByUser(ctx, user.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}

	writeJSON(w, http.StatusOK, orders)
}
