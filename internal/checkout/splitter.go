package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/catalog"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/coupon"
)

// Line is a normalized cart line: identity and quantity only. Prices come
// from the catalog at split time, never from the cart.
type Line struct {
	ProductID string
	Quantity  int
}

type DraftLine struct {
	ProductID string
	Quantity  int
	Price     decimal.Decimal
}

// Draft is one vendor's portion of a checkout before persistence.
type Draft struct {
	StoreID     string
	Lines       []DraftLine
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
}

// splitByStore groups the lines by owning vendor, preserving first-encounter
// order, and prices each group:
//
//   - every line's price is resolved from the catalog
//   - a coupon's percentage applies to each vendor subtotal independently
//   - the flat shipping fee lands on the first group only, unless waived
//   - each total is rounded to 2 decimal places
//
// The same input order always yields the same drafts, shipping allocation
// included.
func splitByStore(lines []Line, products map[string]catalog.Product, cpn *coupon.Coupon, shippingFee decimal.Decimal, waiveShipping bool) ([]Draft, error) {
	grouped := make(map[string][]DraftLine)
	var storeOrder []string

	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, l.ProductID)
		}
		if _, seen := grouped[p.StoreID]; !seen {
			storeOrder = append(storeOrder, p.StoreID)
		}
		grouped[p.StoreID] = append(grouped[p.StoreID], DraftLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     p.Price,
		})
	}

	hundred := decimal.NewFromInt(100)

	drafts := make([]Draft, 0, len(storeOrder))
	shippingAdded := false
	for _, storeID := range storeOrder {
		d := Draft{StoreID: storeID, Lines: grouped[storeID]}

		for _, dl := range d.Lines {
			d.Subtotal = d.Subtotal.Add(dl.Price.Mul(decimal.NewFromInt(int64(dl.Quantity))))
		}

		if cpn != nil {
			d.Discount = d.Subtotal.Mul(cpn.Discount).Div(hundred)
		}

		if !waiveShipping && !shippingAdded {
			d.ShippingFee = shippingFee
			shippingAdded = true
		}

		d.Total = d.Subtotal.Sub(d.Discount).Add(d.ShippingFee).Round(2)
		drafts = append(drafts, d)
	}

	return drafts, nil
}
