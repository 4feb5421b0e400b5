package checkout

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/cart"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/catalog"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/coupon"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/order"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/payment"
)

// Identity is the authenticated shopper placing the order. Members (plus
// plan) have the shipping fee waived.
type Identity struct {
	UserID   string
	IsMember bool
}

// PlaceOrderItem accepts a product id at the top level or nested under a
// product reference, matching what the storefront clients send.
type PlaceOrderItem struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Product   *struct {
		ID string `json:"id"`
	} `json:"product,omitempty"`
	Quantity int `json:"quantity"`
}

type PlaceOrderRequest struct {
	Items         []PlaceOrderItem `json:"items"`
	AddressID     string           `json:"addressId"`
	PaymentMethod string           `json:"paymentMethod"`
	CouponCode    string           `json:"couponCode,omitempty"`
}

// PlaceOrderResult carries the created orders, and for gateway payments the
// redirect target of the payment session.
type PlaceOrderResult struct {
	Orders      []*order.Order `json:"orders"`
	RedirectURL string         `json:"url,omitempty"`
	SessionID   string         `json:"session,omitempty"`
}

// CouponValidator is what the orchestrator needs from the coupon rules.
type CouponValidator interface {
	Validate(ctx context.Context, code string, req coupon.Requester) (*coupon.Coupon, error)
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, o *order.Order) error
}

// SessionCreator is the slice of the payment gateway checkout uses.
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, in payment.SessionInput) (*payment.Session, error)
}

// Service is the checkout orchestrator: it validates the request, splits the
// cart per vendor, persists the orders, and either settles immediately
// (cash on delivery) or hands off to the payment gateway.
type Service struct {
	orders   order.Repository
	products catalog.Repository
	carts    cart.Repository
	coupons  CouponValidator
	gateway  SessionCreator
	pub      Publisher
	logger   *log.Logger

	shippingFee decimal.Decimal
	now         func() time.Time
}

func NewService(
	orders order.Repository,
	products catalog.Repository,
	carts cart.Repository,
	coupons CouponValidator,
	gateway SessionCreator,
	pub Publisher,
	shippingFee decimal.Decimal,
	logger *log.Logger,
) *Service {
	return &Service{
		orders:      orders,
		products:    products,
		carts:       carts,
		coupons:     coupons,
		gateway:     gateway,
		pub:         pub,
		logger:      logger,
		shippingFee: shippingFee,
		now:         time.Now,
	}
}

func (s *Service) PlaceOrder(ctx context.Context, who Identity, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if who.UserID == "" {
		return nil, ErrUnauthenticated
	}

	method := order.PaymentMethod(req.PaymentMethod)
	if len(req.Items) == 0 || req.AddressID == "" || !method.Valid() {
		return nil, ErrInvalidRequest
	}

	lines := normalizeItems(req.Items)
	if len(lines) == 0 {
		return nil, ErrNoValidItems
	}

	// A coupon failure aborts the whole checkout before anything is written.
	var cpn *coupon.Coupon
	if req.CouponCode != "" {
		count, err := s.orders.CountByUser(ctx, who.UserID)
		if err != nil {
			return nil, fmt.Errorf("count user orders: %w", err)
		}
		cpn, err = s.coupons.Validate(ctx, req.CouponCode, coupon.Requester{
			UserID:     who.UserID,
			OrderCount: count,
			IsMember:   who.IsMember,
		})
		if err != nil {
			return nil, err
		}
	}

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.products.ResolveMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}

	drafts, err := splitByStore(lines, products, cpn, s.shippingFee, who.IsMember)
	if err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(drafts))
	for _, d := range drafts {
		o := &order.Order{
			UserID:        who.UserID,
			StoreID:       d.StoreID,
			AddressID:     req.AddressID,
			Total:         d.Total,
			PaymentMethod: method,
			Status:        order.StatusPlaced,
			CreatedAt:     s.now().UTC(),
		}
		if cpn != nil {
			o.CouponCode = cpn.Code
			o.CouponDiscount = decimal.NewNullDecimal(cpn.Discount)
		}
		for _, dl := range d.Lines {
			o.Items = append(o.Items, order.Item{
				ProductID: dl.ProductID,
				Quantity:  dl.Quantity,
				Price:     dl.Price,
			})
		}
		orders = append(orders, o)
	}

	// One transaction across all vendors: a failing later write rolls back
	// the earlier ones.
	if err := s.orders.CreateBatch(ctx, orders); err != nil {
		return nil, fmt.Errorf("create orders: %w", err)
	}

	for _, o := range orders {
		if err := s.pub.PublishOrderPlaced(ctx, o); err != nil {
			s.logger.Printf("publish order.placed for %s: %v", o.ID, err)
		}
	}

	if method == order.PaymentStripe {
		total := decimal.Zero
		orderIDs := make([]string, 0, len(orders))
		for _, o := range orders {
			total = total.Add(o.Total)
			orderIDs = append(orderIDs, o.ID)
		}

		sess, err := s.gateway.CreateCheckoutSession(ctx, payment.SessionInput{
			Amount:   total,
			OrderIDs: orderIDs,
			UserID:   who.UserID,
		})
		if err != nil {
			return nil, fmt.Errorf("create payment session: %w", err)
		}

		// The cart survives until the payment outcome is reconciled; no
		// order is paid yet.
		s.logger.Printf("created payment session %s for %d orders, user %s", sess.ID, len(orders), who.UserID)
		return &PlaceOrderResult{Orders: orders, RedirectURL: sess.URL, SessionID: sess.ID}, nil
	}

	// Cash on delivery settles immediately.
	if err := s.carts.ClearCart(ctx, who.UserID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	s.logger.Printf("placed %d cash-on-delivery orders for user %s", len(orders), who.UserID)
	return &PlaceOrderResult{Orders: orders}, nil
}

// normalizeItems extracts a product id from any of the accepted shapes and
// drops lines with a non-positive quantity.
func normalizeItems(items []PlaceOrderItem) []Line {
	var out []Line
	for _, it := range items {
		id := it.ID
		if id == "" {
			id = it.ProductID
		}
		if id == "" && it.Product != nil {
			id = it.Product.ID
		}
		if id == "" || it.Quantity <= 0 {
			continue
		}
		out = append(out, Line{ProductID: id, Quantity: it.Quantity})
	}
	return out
}
