package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/averybrooks/fonezone/internal/errs"
	"github.com/averybrooks/fonezone/internal/models"
)

// Searcher serializes the "retype and search again" pattern per client: a new
// search within one scope cancels that scope's previous in-flight request, and
// a request superseded while waiting on the network reports ErrSuperseded
// instead of delivering stale results. Scopes are independent, so one
// visitor's typing never cancels another visitor's search. An empty scope
// opts out of supersession entirely.
type Searcher struct {
	client *Client

	mu    sync.Mutex
	slots map[string]*searchSlot
}

type searchSlot struct {
	gen    uint64
	cancel context.CancelFunc
}

// ErrSuperseded marks a search result that arrived after a newer search
// started in the same scope. Callers must drop it, not render it.
var ErrSuperseded = fmt.Errorf("%w: superseded by a newer search", errs.ErrRemote)

func NewSearcher(client *Client) *Searcher {
	return &Searcher{client: client, slots: make(map[string]*searchSlot)}
}

// Search cancels any in-flight search in the same scope and runs a new one.
// Results belonging to a superseded call are never returned to their caller.
func (s *Searcher) Search(ctx context.Context, scope, query string, limit int) ([]models.Product, error) {
	if scope == "" {
		return s.client.SearchProducts(ctx, query, limit)
	}

	s.mu.Lock()
	slot, ok := s.slots[scope]
	if !ok {
		slot = &searchSlot{}
		s.slots[scope] = slot
	}
	if slot.cancel != nil {
		slot.cancel()
	}
	slot.gen++
	myGen := slot.gen
	callCtx, cancel := context.WithCancel(ctx)
	slot.cancel = cancel
	s.mu.Unlock()

	products, err := s.client.SearchProducts(callCtx, query, limit)

	s.mu.Lock()
	stale := slot.gen != myGen
	if !stale {
		cancel()
		delete(s.slots, scope)
	}
	s.mu.Unlock()

	if stale {
		return nil, ErrSuperseded
	}
	return products, err
}
