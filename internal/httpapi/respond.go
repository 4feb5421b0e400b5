package httpapi

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/checkout"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/coupon"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/payment"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the error taxonomy onto HTTP statuses with
// user-safe messages.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, checkout.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "Missing order details.")
	case errors.Is(err, checkout.ErrNoValidItems):
		writeError(w, http.StatusBadRequest, "No valid items in order.")
	case errors.Is(err, checkout.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, coupon.ErrNotFound):
		writeError(w, http.StatusNotFound, "Coupon not found")
	case errors.Is(err, coupon.ErrNotEligible):
		writeError(w, http.StatusForbidden, "Coupon valid for new users.")
	case errors.Is(err, coupon.ErrMembershipRequired):
		writeError(w, http.StatusPaymentRequired, "Coupon valid for members only")
	case errors.Is(err, payment.ErrBadSignature):
		writeError(w, http.StatusBadRequest, "Invalid signature")
	case errors.Is(err, payment.ErrInvalidMetadata):
		writeError(w, http.StatusBadRequest, "Invalid app id")
	case isUnavailable(err):
		writeError(w, http.StatusServiceUnavailable, "Service Unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "Something went wrong")
	}
}

// isUnavailable classifies transient storage/network failures so clients get
// a 503 they can retry instead of a 500.
func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
