package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/coupon"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/middleware"
)

type CouponValidator interface {
	Validate(ctx context.Context, code string, req coupon.Requester) (*coupon.Coupon, error)
}

type OrderCounter interface {
	CountByUser(ctx context.Context, userID string) (int, error)
}

type CouponHandler struct {
	validator CouponValidator
	orders    OrderCounter
}

func NewCouponHandler(validator CouponValidator, orders OrderCounter) *CouponHandler {
	return &CouponHandler{validator: validator, orders: orders}
}

// VerifyCoupon applies the coupon rules without placing an order, so the
// storefront can show the discount before checkout.
func (h *CouponHandler) VerifyCoupon(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
		writeError(w, http.StatusBadRequest, "missing coupon code")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	count, err := h.orders.CountByUser(ctx, user.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	c, err := h.validator.Validate(ctx, body.Code, coupon.Requester{
		UserID:     user.ID,
		OrderCount: count,
		IsMember:   user.IsMember,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}
