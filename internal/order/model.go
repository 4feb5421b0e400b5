package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "COD"
	PaymentStripe         PaymentMethod = "STRIPE"
)

// Valid reports whether the payment method is one the checkout accepts.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentStripe
}

type Status string

const (
	StatusPlaced Status = "PLACED"
	// Fulfillment transitions (processing, shipped, delivered) are owned by
	// the vendor dashboard and never touched by checkout or reconciliation.
)

type Item struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type Address struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
}

type Order struct {
	ID            string          `json:"orderId"`
	UserID        string          `json:"userId"`
	StoreID       string          `json:"storeId"`
	AddressID     string          `json:"addressId"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	IsPaid        bool            `json:"isPaid"`
	Status        Status          `json:"status"`
	// Coupon snapshot taken at checkout; the coupon record itself is never
	// mutated.
	CouponCode     string              `json:"couponCode,omitempty"`
	CouponDiscount decimal.NullDecimal `json:"couponDiscount"`
	CreatedAt      time.Time        `json:"createdAt"`
	Items          []Item           `json:"items"`
	Address        *Address         `json:"address,omitempty"`
}
