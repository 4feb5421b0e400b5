package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog's view of a sellable item. Price here is the
// authoritative price used at checkout; prices cached in carts are snapshots
// for display only.
type Product struct {
	ID        string          `json:"id"`
	StoreID   string          `json:"storeId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	InStock   bool            `json:"inStock"`
	CreatedAt time.Time       `json:"createdAt"`
}
