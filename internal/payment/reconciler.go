package payment

import (
	"context"
	"fmt"
	"log"
)

// OrderStore is the slice of the order repository reconciliation needs. Both
// mutations are set-to-target-state operations, so replaying an event is
// harmless.
type OrderStore interface {
	MarkPaid(ctx context.Context, orderIDs []string) error
	DeleteUnpaid(ctx context.Context, orderIDs []string) error
}

type CartStore interface {
	ClearCart(ctx context.Context, userID string) error
}

type Publisher interface {
	PublishOrderPaid(ctx context.Context, orderIDs []string, userID string) error
	PublishOrderCanceled(ctx context.Context, orderIDs []string, userID string) error
}

// Reconciler applies asynchronous payment outcomes to the orders a checkout
// created speculatively.
type Reconciler struct {
	gateway Gateway
	orders  OrderStore
	carts   CartStore
	pub     Publisher
	logger  *log.Logger
}

func NewReconciler(gateway Gateway, orders OrderStore, carts CartStore, pub Publisher, logger *log.Logger) *Reconciler {
	return &Reconciler{gateway: gateway, orders: orders, carts: carts, pub: pub, logger: logger}
}

// HandleEvent verifies and applies one webhook delivery. Unknown event types
// are logged and dropped; returning an error would only make the processor
// retry something we will never handle.
func (r *Reconciler) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	ev, err := r.gateway.VerifyEvent(payload, sigHeader)
	if err != nil {
		return err
	}

	switch ev.Type {
	case EventPaymentSucceeded:
		return r.applyOutcome(ctx, ev.PaymentIntentID, true)
	case EventPaymentCanceled:
		return r.applyOutcome(ctx, ev.PaymentIntentID, false)
	default:
		r.logger.Printf("ignoring webhook event type %q", ev.Type)
		return nil
	}
}

func (r *Reconciler) applyOutcome(ctx context.Context, paymentIntentID string, paid bool) error {
	sess, err := r.gateway.SessionByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}

	if sess.AppID != AppID {
		return fmt.Errorf("%w: app id %q", ErrInvalidMetadata, sess.AppID)
	}
	if len(sess.OrderIDs) == 0 || sess.UserID == "" {
		return fmt.Errorf("%w: missing order ids or user id", ErrInvalidMetadata)
	}

	if paid {
		if err := r.orders.MarkPaid(ctx, sess.OrderIDs); err != nil {
			return fmt.Errorf("mark orders paid: %w", err)
		}
		if err := r.carts.ClearCart(ctx, sess.UserID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		if err := r.pub.PublishOrderPaid(ctx, sess.OrderIDs, sess.UserID); err != nil {
			r.logger.Printf("publish order.paid: %v", err)
		}
		r.logger.Printf("marked %d orders paid for user %s", len(sess.OrderIDs), sess.UserID)
		return nil
	}

	if err := r.orders.DeleteUnpaid(ctx, sess.OrderIDs); err != nil {
		return fmt.Errorf("delete unpaid orders: %w", err)
	}
	if err := r.pub.PublishOrderCanceled(ctx, sess.OrderIDs, sess.UserID); err != nil {
		r.logger.Printf("publish order.canceled: %v", err)
	}
	r.logger.Printf("deleted unpaid orders for canceled payment, user %s", sess.UserID)
	return nil
}
