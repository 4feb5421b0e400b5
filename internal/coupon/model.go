package coupon

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coupon is a named discount policy. Codes are stored upper-cased and looked
// up case-insensitively. Coupons are not single-use; checkout never mutates
// them.
type Coupon struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Discount    decimal.Decimal `json:"discount"` // percent, 0-100
	ForNewUser  bool            `json:"forNewUser"`
	ForMember   bool            `json:"forMember"`
	ExpiresAt   time.Time       `json:"expiresAt"`
}
