package handlers

import (
	"crypto/rand"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/averybrooks/fonezone/internal/models"
	"github.com/averybrooks/fonezone/internal/remote"
	"github.com/averybrooks/fonezone/internal/store"
)

// ShopHandler serves the cart, wishlist, search and checkout surface. When a
// remote API is configured it is canonical for these collections: local
// writes are optimistic and are rolled back when the remote call fails.
type ShopHandler struct {
	Store    *store.Store
	Remote   *remote.Client
	Searcher *remote.Searcher
}

// Products lists the catalog: remote when configured, the admin-authored
// local catalog otherwise.
func (h *ShopHandler) Products(w http.ResponseWriter, r *http.Request) {
	if h.Remote.Enabled() {
		products, err := h.Remote.ListProducts(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
		return
	}
	products, err := h.Store.ListProducts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

// Search runs a ranked catalog search. The storefront sends a per-tab sid so
// retyping supersedes only that tab's own in-flight search; a superseded
// result answers 409 so the client drops it instead of rendering stale
// results. Requests without a sid are never superseded.
func (h *ShopHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	products, err := h.Searcher.Search(r.Context(), r.URL.Query().Get("sid"), query, limit)
	if err != nil {
		if errors.Is(err, remote.ErrSuperseded) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "superseded"})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *ShopHandler) Cart(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	items, err := h.Store.Cart(r.Context(), actor.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// AddToCart applies the local update first, then confirms with the remote
// API. On remote failure the local cart is restored to its pre-update state.
func (h *ShopHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	var item models.CartItem
	if err := decodeJSON(r, &item); err != nil {
		writeError(w, err)
		return
	}

	before, err := h.Store.Cart(r.Context(), actor.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := h.Store.AddToCart(r.Context(), actor.Email, item)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Remote.Enabled() {
		if err := h.Remote.AddToCart(r.Context(), actor.Email, item); err != nil {
			if rbErr := h.Store.ReplaceCart(r.Context(), actor.Email, before); rbErr != nil {
				slog.Error("Failed to roll back cart", "email", actor.Email, "error", rbErr)
			}
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type cartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *ShopHandler) SetCartQuantity(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	var req cartQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	items, err := h.Store.SetCartQuantity(r.Context(), actor.Email, r.PathValue("productID"), req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *ShopHandler) Wishlist(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	items, err := h.Store.Wishlist(r.Context(), actor.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ToggleWishlist flips a product's wishlist membership optimistically. If
// the remote confirmation fails the membership is restored exactly to its
// pre-toggle state.
func (h *ShopHandler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	var item models.WishlistItem
	if err := decodeJSON(r, &item); err != nil {
		writeError(w, err)
		return
	}

	before, err := h.Store.Wishlist(r.Context(), actor.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	present := false
	for _, it := range before {
		if it.ProductID == item.ProductID {
			present = true
			break
		}
	}

	var items []models.WishlistItem
	if present {
		items, err = h.Store.RemoveFromWishlist(r.Context(), actor.Email, item.ProductID)
	} else {
		items, err = h.Store.AddToWishlist(r.Context(), actor.Email, item)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if h.Remote.Enabled() {
		if present {
			err = h.Remote.RemoveFromWishlist(r.Context(), actor.Email, item.ProductID)
		} else {
			err = h.Remote.AddToWishlist(r.Context(), actor.Email, item)
		}
		if err != nil {
			if rbErr := h.Store.ReplaceWishlist(r.Context(), actor.Email, before); rbErr != nil {
				slog.Error("Failed to roll back wishlist", "email", actor.Email, "error", rbErr)
			}
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "in_wishlist": !present})
}

type checkoutRequest struct {
	Address string `json:"address"`
}

// generateOrderRef makes the short public reference printed on the
// confirmation. Ambiguous characters are excluded.
func generateOrderRef() string {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "ORD" + strconv.FormatInt(time.Now().Unix(), 10)
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// Checkout places the order through the remote API from the current cart
// snapshot, then clears the cart. The cart survives untouched when order
// placement fails.
func (h *ShopHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	items, err := h.Store.Cart(r.Context(), actor.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cart is empty"})
		return
	}

	var subtotal float64
	for _, it := range items {
		subtotal += it.Price * float64(it.Quantity)
	}

	orderRef := generateOrderRef()
	conf := &remote.OrderConfirmation{OrderID: orderRef, InvoiceRef: orderRef}
	if h.Remote.Enabled() {
		conf, err = h.Remote.PlaceOrder(r.Context(), remote.OrderRequest{
			CustomerEmail: actor.Email,
			Items:         items,
			Subtotal:      subtotal,
			Total:         subtotal,
			Address:       req.Address,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		if err := h.Remote.ClearCart(r.Context(), actor.Email); err != nil {
			slog.Warn("Order placed but remote cart clear failed", "email", actor.Email, "error", err)
		}
	}
	if err := h.Store.ClearCart(r.Context(), actor.Email); err != nil {
		writeError(w, err)
		return
	}

	slog.Info("Order placed", "email", actor.Email, "order_ref", orderRef, "total", subtotal)
	writeJSON(w, http.StatusCreated, map[string]any{
		"order_id":    conf.OrderID,
		"invoice_ref": conf.InvoiceRef,
		"order_ref":   orderRef,
		"total":       subtotal,
	})
}
