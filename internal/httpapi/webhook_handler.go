package httpapi

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/payment"
)

const stripeSignatureHeader = "Stripe-Signature"

// maxWebhookBody bounds the raw payload we buffer for signature verification.
const maxWebhookBody = 1 << 20

type Reconciler interface {
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) error
}

type WebhookHandler struct {
	reconciler Reconciler
	logger     *log.Logger
}

func NewWebhookHandler(reconciler Reconciler, logger *log.Logger) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, logger: logger}
}

// HandleStripe consumes one webhook delivery. The raw body is read before any
// parsing because the signature covers the exact bytes sent.
func (h *WebhookHandler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	sig := r.Header.Get(stripeSignatureHeader)
	if sig == "" {
		writeError(w, http.StatusBadRequest, "Missing Stripe signature")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.reconciler.HandleEvent(ctx, payload, sig); err != nil {
		// Metadata problems will not improve on redelivery; log and
		// acknowledge so the processor stops retrying. Everything else gets
		// an error status so the processor's retry can land on a healthy
		// instance.
		if errors.Is(err, payment.ErrInvalidMetadata) {
			h.logger.Printf("webhook dropped: %v", err)
			writeJSON(w, http.StatusOK, map[string]bool{"received": true})
			return
		}
		h.logger.Printf("webhook error: %v", err)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
