package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// AppID tags every session this application creates so the webhook can reject
// outcomes that belong to another tenant sharing the processor account.
const AppID = "e-commerce"

var (
	ErrBadSignature    = errors.New("invalid webhook signature")
	ErrInvalidMetadata = errors.New("invalid session metadata")
)

// Event types the reconciler understands. Everything else is acknowledged and
// ignored so the processor stops retrying.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentCanceled  = "payment_intent.canceled"
)

// SessionInput describes one checkout attempt. Amount is the sum of every
// vendor order's total; a session is created once and never reused.
type SessionInput struct {
	Amount   decimal.Decimal
	Currency string
	OrderIDs []string
	UserID   string
}

// Session is the processor-side handle correlated to the orders it pays for.
type Session struct {
	ID       string
	URL      string
	OrderIDs []string
	UserID   string
	AppID    string
}

// Event is a verified payment-outcome notification.
type Event struct {
	Type            string
	PaymentIntentID string
}

// Gateway wraps the external payment processor. Implementations must verify
// webhook authenticity before returning an Event.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, in SessionInput) (*Session, error)
	VerifyEvent(payload []byte, sigHeader string) (Event, error)
	SessionByPaymentIntent(ctx context.Context, paymentIntentID string) (*Session, error)
}
