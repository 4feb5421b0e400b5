package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/cart"
	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/middleware"
)

type CartHandler struct {
	repo cart.Repository
}

func NewCartHandler(repo cart.Repository) *CartHandler {
	return &CartHandler{repo: repo}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.GetCart(ctx, user.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if c == nil {
		// no stored cart yet; an empty cart, not an error
		c = &cart.Cart{UserID: user.ID, Items: []cart.Item{}}
	}
	if c.Items == nil {
		c.Items = []cart.Item{}
	}

	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) ReplaceCart(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var body struct {
		Items []cart.Item `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.ReplaceCart(ctx, user.ID, body.Items)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if c.Items == nil {
		c.Items = []cart.Item{}
	}

	writeJSON(w, http.StatusOK, c)
}
