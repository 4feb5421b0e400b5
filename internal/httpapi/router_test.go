package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/cart"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/catalog"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/checkout"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/coupon"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/middleware"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/order"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/payment"
)

type fakeCheckout struct {
	gotWho checkout.Identity
	gotReq checkout.PlaceOrderRequest
	res    *checkout.PlaceOrderResult
	err    error
}

func (f *fakeCheckout) PlaceOrder(_ context.Context, who checkout.Identity, req checkout.PlaceOrderRequest) (*checkout.PlaceOrderResult, error) {
	f.gotWho = who
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

type fakeOrderReader struct {
	orders []order.Order
	err    error
}

func (f *fakeOrderReader) ListVisibleByUser(context.Context, string) ([]order.Order, error) {
	return f.orders, f.err
}

type fakeCartRepo struct {
	cart     *cart.Cart
	replaced []cart.Item
}

func (f *fakeCartRepo) GetCart(context.Context, string) (*cart.Cart, error) {
	return f.cart, nil
}

func (f *fakeCartRepo) ReplaceCart(_ context.Context, userID string, items []cart.Item) (*cart.Cart, error) {
	f.replaced = items
	return &cart.Cart{UserID: userID, Items: items}, nil
}

func (f *fakeCartRepo) ClearCart(context.Context, string) error { return nil }

type fakeCouponValidator struct {
	coupon *coupon.Coupon
	err    error
}

func (f *fakeCouponValidator) Validate(context.Context, string, coupon.Requester) (*coupon.Coupon, error) {
	return f.coupon, f.err
}

type fakeOrderCounter struct{ count int }

func (f *fakeOrderCounter) CountByUser(context.Context, string) (int, error) {
	return f.count, nil
}

type fakeProductLister struct {
	products []catalog.Product
	err      error
}

func (f *fakeProductLister) ListInStock(context.Context) ([]catalog.Product, error) {
	return f.products, f.err
}

type fakeReconciler struct {
	err     error
	gotSig  string
	gotBody []byte
}

func (f *fakeReconciler) HandleEvent(_ context.Context, payload []byte, sigHeader string) error {
	f.gotBody = payload
	f.gotSig = sigHeader
	return f.err
}

type routerFixture struct {
	handler    http.Handler
	checkout   *fakeCheckout
	orders     *fakeOrderReader
	carts      *fakeCartRepo
	validator  *fakeCouponValidator
	products   *fakeProductLister
	reconciler *fakeReconciler
}

func newRouterFixture() *routerFixture {
	f := &routerFixture{
		checkout:   &fakeCheckout{},
		orders:     &fakeOrderReader{},
		carts:      &fakeCartRepo{},
		validator:  &fakeCouponValidator{},
		products:   &fakeProductLister{},
		reconciler: &fakeReconciler{},
	}
	logger := log.New(io.Discard, "", 0)
	f.handler = NewRouter(
		NewOrderHandler(f.checkout, f.orders),
		NewCartHandler(f.carts),
		NewCouponHandler(f.validator, &fakeOrderCounter{}),
		NewProductHandler(f.products),
		NewWebhookHandler(f.reconciler, logger),
		logger,
	)
	return f
}

func asUser(r *http.Request, userID string, member bool) *http.Request {
	r.Header.Set(middleware.HeaderUserID, userID)
	if member {
		r.Header.Set(middleware.HeaderUserPlan, "plus")
	}
	return r
}

func TestRouterRejectsAnonymousOrderAccess(t *testing.T) {
	f := newRouterFixture()

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouterPlaceOrderPassesIdentity(t *testing.T) {
	f := newRouterFixture()
	f.checkout.res = &checkout.PlaceOrderResult{}

	body := bytes.NewBufferString(`{"addressId":"addr-1","paymentMethod":"COD","items":[{"id":"p1","quantity":1}]}`)
	r := asUser(httptest.NewRequest(http.MethodPost, "/api/orders", body), "user-1", true)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, checkout.Identity{UserID: "user-1", IsMember: true}, f.checkout.gotWho)
	assert.Equal(t, "addr-1", f.checkout.gotReq.AddressID)
}

func TestRouterPlaceOrderErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid request", checkout.ErrInvalidRequest, http.StatusBadRequest},
		{"no valid items", checkout.ErrNoValidItems, http.StatusBadRequest},
		{"product missing", checkout.ErrProductNotFound, http.StatusNotFound},
		{"coupon unknown", coupon.ErrNotFound, http.StatusNotFound},
		{"coupon new users only", coupon.ErrNotEligible, http.StatusForbidden},
		{"coupon members only", coupon.ErrMembershipRequired, http.StatusPaymentRequired},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRouterFixture()
			f.checkout.err = tc.err

			body := bytes.NewBufferString(`{"addressId":"a","paymentMethod":"COD","items":[]}`)
			r := asUser(httptest.NewRequest(http.MethodPost, "/api/orders", body), "user-1", false)
			w := httptest.NewRecorder()
			f.handler.ServeHTTP(w, r)

			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestRouterGetCartReturnsEmptyCartWhenNoneStored(t *testing.T) {
	f := newRouterFixture()

	r := asUser(httptest.NewRequest(http.MethodGet, "/api/cart", nil), "user-1", false)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp cart.Cart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
}

func TestRouterReplaceCart(t *testing.T) {
	f := newRouterFixture()

	body := bytes.NewBufferString(`{"items":[{"productId":"p1","quantity":2,"price":10}]}`)
	r := asUser(httptest.NewRequest(http.MethodPost, "/api/cart", body), "user-1", false)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.carts.replaced, 1)
	assert.Equal(t, "p1", f.carts.replaced[0].ProductID)
}

func TestRouterVerifyCoupon(t *testing.T) {
	f := newRouterFixture()
	f.validator.coupon = &coupon.Coupon{Code: "SAVE10"}

	body := bytes.NewBufferString(`{"code":"SAVE10"}`)
	r := asUser(httptest.NewRequest(http.MethodPost, "/api/coupon", body), "user-1", false)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SAVE10")
}

func TestRouterListProductsIsPublic(t *testing.T) {
	f := newRouterFixture()

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String())
}

func TestRouterWebhookRequiresSignature(t *testing.T) {
	f := newRouterFixture()

	r := httptest.NewRequest(http.MethodPost, "/api/stripe", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouterWebhookForwardsPayloadAndSignature(t *testing.T) {
	f := newRouterFixture()

	r := httptest.NewRequest(http.MethodPost, "/api/stripe", bytes.NewBufferString(`{"id":"evt_1"}`))
	r.Header.Set(stripeSignatureHeader, "t=1,v1=abc")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t=1,v1=abc", f.reconciler.gotSig)
	assert.JSONEq(t, `{"id":"evt_1"}`, string(f.reconciler.gotBody))
}

func TestRouterWebhookAcknowledgesBadMetadata(t *testing.T) {
	f := newRouterFixture()
	f.reconciler.err = payment.ErrInvalidMetadata

	r := httptest.NewRequest(http.MethodPost, "/api/stripe", bytes.NewBufferString("{}"))
	r.Header.Set(stripeSignatureHeader, "t=1,v1=abc")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)

	// redelivery cannot fix foreign or broken metadata, so the event is acked
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterWebhookRejectsBadSignature(t *testing.T) {
	f := newRouterFixture()
	f.reconciler.err = payment.ErrBadSignature

	r := httptest.NewRequest(http.MethodPost, "/api/stripe", bytes.NewBufferString("{}"))
	r.Header.Set(stripeSignatureHeader, "bogus")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
