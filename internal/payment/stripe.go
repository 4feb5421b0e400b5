package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeGateway implements Gateway on Stripe Checkout.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
}

func NewStripeGateway(secretKey, webhookSecret, successURL, cancelURL string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)

	return &StripeGateway{
		api:           api,
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, in SessionInput) (*Session, error) {
	currency := in.Currency
	if currency == "" {
		currency = "usd"
	}

	// Stripe wants the amount in the currency's smallest unit.
	amountCents := in.Amount.Shift(2).Round(0).IntPart()

	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Order"),
					},
					UnitAmount: stripe.Int64(amountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(g.successURL),
		CancelURL:  stripe.String(g.cancelURL),
		ExpiresAt:  stripe.Int64(time.Now().Add(time.Hour).Unix()),
	}
	params.AddMetadata("orderIds", strings.Join(in.OrderIDs, ","))
	params.AddMetadata("userId", in.UserID)
	params.AddMetadata("appId", AppID)

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return sessionFromStripe(s), nil
}

func (g *StripeGateway) VerifyEvent(payload []byte, sigHeader string) (Event, error) {
	ev, err := webhook.ConstructEvent(payload, sigHeader, g.webhookSecret)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	// Every object in an event body carries its own id; for payment_intent
	// events that is the payment intent id the session is correlated by.
	var obj struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(ev.Data.Raw, &obj)

	return Event{
		Type:            string(ev.Type),
		PaymentIntentID: obj.ID,
	}, nil
}

func (g *StripeGateway) SessionByPaymentIntent(ctx context.Context, paymentIntentID string) (*Session, error) {
	params := &stripe.CheckoutSessionListParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := g.api.CheckoutSessions.List(params)
	for iter.Next() {
		return sessionFromStripe(iter.CheckoutSession()), nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return nil, fmt.Errorf("no session for payment intent %s", paymentIntentID)
}

func sessionFromStripe(s *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:     s.ID,
		URL:    s.URL,
		UserID: s.Metadata["userId"],
		AppID:  s.Metadata["appId"],
	}
	if ids := s.Metadata["orderIds"]; ids != "" {
		out.OrderIDs = strings.Split(ids, ",")
	}
	return out
}
