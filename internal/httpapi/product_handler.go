package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/catalog"
)

type ProductLister interface {
	ListInStock(ctx context.Context) ([]catalog.Product, error)
}

type ProductHandler struct {
	products ProductLister
}

func NewProductHandler(products ProductLister) *ProductHandler {
	return &ProductHandler{products: products}
}

// ListProducts serves the storefront catalog. Public; browsing needs no login.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.products.ListInStock(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if list == nil {
		list = []catalog.Product{}
	}

	writeJSON(w, http.StatusOK, list)
}
