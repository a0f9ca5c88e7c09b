package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averybrooks/fonezone/internal/errs"
	"github.com/averybrooks/fonezone/internal/models"
)

func envelopeOK(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	json.NewEncoder(w).Encode(map[string]any{"success": true, "data": json.RawMessage(raw)})
}

func TestSearchProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/search", r.URL.Path)
		assert.Equal(t, "iphone", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		envelopeOK(t, w, []models.Product{{ID: "p1", Name: "iPhone 15"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	products, err := c.SearchProducts(context.Background(), "iphone", 5)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "iPhone 15", products[0].Name)
}

func TestNonSuccessEnvelopeIsRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "out of stock"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.AddToCart(context.Background(), "cust@x.com", models.CartItem{ProductID: "p1"})
	require.ErrorIs(t, err, errs.ErrRemote)
	assert.Contains(t, err.Error(), "out of stock")
}

func TestNetworkFailureIsRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL)
	_, err := c.Wishlist(context.Background(), "cust@x.com")
	assert.ErrorIs(t, err, errs.ErrRemote)
}

func TestUnconfiguredClientFailsFast(t *testing.T) {
	c := NewClient("")
	assert.False(t, c.Enabled())
	err := c.ClearCart(context.Background(), "cust@x.com")
	assert.ErrorIs(t, err, errs.ErrRemote)
}

func TestPlaceOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var req OrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cust@x.com", req.CustomerEmail)
		assert.Equal(t, 120.0, req.Total)
		envelopeOK(t, w, OrderConfirmation{OrderID: "ord-1", InvoiceRef: "inv-1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	conf, err := c.PlaceOrder(context.Background(), OrderRequest{
		CustomerEmail: "cust@x.com",
		Items:         []models.CartItem{{ProductID: "p1", Price: 60, Quantity: 2}},
		Subtotal:      120,
		Total:         120,
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", conf.OrderID)
	assert.Equal(t, "inv-1", conf.InvoiceRef)
}

// slowFirstSearch parks the first request until release closes (or its
// context is cancelled) and answers every request with its own query string.
func slowFirstSearch(t *testing.T, calls *atomic.Int64, release chan struct{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n == 1 {
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
		}
		envelopeOK(t, w, []models.Product{{ID: "p", Name: r.URL.Query().Get("q")}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// A slow search superseded by a second one in the same scope must be
// discarded, and the second must win.
func TestSearcherSupersedesInFlightSearch(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	srv := slowFirstSearch(t, &calls, release)

	s := NewSearcher(NewClient(srv.URL))

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.Search(context.Background(), "tab-1", "iph", 0)
		firstDone <- err
	}()

	// Wait until the first request is parked in the handler.
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	products, err := s.Search(context.Background(), "tab-1", "iphone 15", 0)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "iphone 15", products[0].Name)

	close(release)
	err = <-firstDone
	require.Error(t, err, "the superseded search must not deliver results")
}

// Scopes are independent: one visitor searching must not cancel another
// visitor's in-flight search.
func TestSearcherScopesDoNotInterfere(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	srv := slowFirstSearch(t, &calls, release)

	s := NewSearcher(NewClient(srv.URL))

	firstDone := make(chan []models.Product, 1)
	go func() {
		products, err := s.Search(context.Background(), "visitor-a", "iphone", 0)
		assert.NoError(t, err, "another visitor's search must not supersede this one")
		firstDone <- products
	}()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	products, err := s.Search(context.Background(), "visitor-b", "pixel", 0)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "pixel", products[0].Name)

	close(release)
	got := <-firstDone
	require.Len(t, got, 1)
	assert.Equal(t, "iphone", got[0].Name)
}

// Without a scope there is no supersession at all.
func TestSearcherEmptyScopeNeverSupersedes(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	srv := slowFirstSearch(t, &calls, release)

	s := NewSearcher(NewClient(srv.URL))

	firstDone := make(chan []models.Product, 1)
	go func() {
		products, err := s.Search(context.Background(), "", "iphone", 0)
		assert.NoError(t, err)
		firstDone <- products
	}()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	_, err := s.Search(context.Background(), "", "pixel", 0)
	require.NoError(t, err)

	close(release)
	got := <-firstDone
	require.Len(t, got, 1)
	assert.Equal(t, "iphone", got[0].Name)
}
