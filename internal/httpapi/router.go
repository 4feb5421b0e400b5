package httpapi

import (
	"log"
	"net/http"

	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/middleware"
)

func NewRouter(
	orders *OrderHandler,
	carts *CartHandler,
	coupons *CouponHandler,
	products *ProductHandler,
	webhooks *WebhookHandler,
	logger *log.Logger,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("GET /api/products", products.ListProducts)

	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireUser(h)
	}

	mux.Handle("POST /api/orders", authed(orders.PlaceOrder))
	mux.Handle("GET /api/orders", authed(orders.ListOrders))
	mux.Handle("GET /api/cart", authed(carts.GetCart))
	mux.Handle("POST /api/cart", authed(carts.ReplaceCart))
	mux.Handle("POST /api/coupon", authed(coupons.VerifyCoupon))

	// The webhook authenticates itself by signature, not by user identity.
	mux.HandleFunc("POST /api/stripe", webhooks.HandleStripe)

	return middleware.Recover(logger)(mux)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "storefront",
	})
}
