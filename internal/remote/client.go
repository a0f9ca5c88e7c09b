// Package remote is the thin client for the external storefront API
// (catalog search, cart, wishlist, order placement). The service treats the
// remote API as canonical for these collections; local copies are optimistic
// projections the handlers reconcile on failure.
//
// Every call returns errs.ErrRemote for both transport failure and a
// non-success response envelope: the caller's recovery (roll back, surface a
// retryable message) is identical either way.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/averybrooks/fonezone/internal/errs"
	"github.com/averybrooks/fonezone/internal/models"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client. If baseURL is empty every call fails with
// ErrRemote and callers stay on the local path.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (c *Client) Enabled() bool { return c.baseURL != "" }

// envelope is the API's uniform response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("%w: no remote API configured", errs.ErrRemote)
	}
	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", errs.ErrRemote, err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrRemote, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrRemote, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: decode response: %v", errs.ErrRemote, err)
	}
	if !env.Success || resp.StatusCode >= 400 {
		msg := env.Error
		if msg == "" {
			msg = "status " + strconv.Itoa(resp.StatusCode)
		}
		return fmt.Errorf("%w: %s", errs.ErrRemote, msg)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: decode payload: %v", errs.ErrRemote, err)
		}
	}
	return nil
}

// SearchProducts runs a ranked catalog search.
func (c *Client) SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var products []models.Product
	if err := c.do(ctx, http.MethodGet, "/products/search?"+q.Encode(), nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) AddToCart(ctx context.Context, actorEmail string, item models.CartItem) error {
	return c.do(ctx, http.MethodPost, "/cart/"+url.PathEscape(actorEmail), item, nil)
}

func (c *Client) ClearCart(ctx context.Context, actorEmail string) error {
	return c.do(ctx, http.MethodDelete, "/cart/"+url.PathEscape(actorEmail), nil, nil)
}

func (c *Client) Wishlist(ctx context.Context, actorEmail string) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	if err := c.do(ctx, http.MethodGet, "/wishlist/"+url.PathEscape(actorEmail), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) AddToWishlist(ctx context.Context, actorEmail string, item models.WishlistItem) error {
	return c.do(ctx, http.MethodPost, "/wishlist/"+url.PathEscape(actorEmail), item, nil)
}

func (c *Client) RemoveFromWishlist(ctx context.Context, actorEmail, productID string) error {
	return c.do(ctx, http.MethodDelete, "/wishlist/"+url.PathEscape(actorEmail)+"/"+url.PathEscape(productID), nil, nil)
}

// OrderRequest is the checkout payload: the cart snapshot plus the totals
// computed client-side, which the API re-validates.
type OrderRequest struct {
	CustomerEmail string            `json:"customer_email"`
	Items         []models.CartItem `json:"items"`
	Subtotal      float64           `json:"subtotal"`
	Total         float64           `json:"total"`
	Address       string            `json:"address"`
}

type OrderConfirmation struct {
	OrderID    string `json:"order_id"`
	InvoiceRef string `json:"invoice_ref"`
}

func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (*OrderConfirmation, error) {
	var conf OrderConfirmation
	if err := c.do(ctx, http.MethodPost, "/orders", req, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}
