package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/averybrooks/fonezone/internal/errs"
	"github.com/averybrooks/fonezone/internal/kv"
	"github.com/averybrooks/fonezone/internal/models"
)

func cartKey(actorEmail string) string {
	return kv.CartKeyPrefix + strings.ToLower(actorEmail)
}

// Cart returns the actor's local cart. This is the legacy local path; when a
// remote API is configured the canonical cart lives there and this copy is a
// projection reconciled by the handlers.
func (s *Store) Cart(ctx context.Context, actorEmail string) ([]models.CartItem, error) {
	return readList[models.CartItem](ctx, s.db, cartKey(actorEmail))
}

// AddToCart inserts the product or bumps its quantity when already present.
func (s *Store) AddToCart(ctx context.Context, actorEmail string, item models.CartItem) ([]models.CartItem, error) {
	if item.ProductID == "" {
		return nil, fmt.Errorf("%w: product id is required", errs.ErrValidation)
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	key := cartKey(actorEmail)
	mu := s.lock(key)
	mu.Lock()
	defer mu.Unlock()

	items, err := readList[models.CartItem](ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i].Quantity += item.Quantity
			if err := writeList(ctx, s.db, key, items); err != nil {
				return nil, err
			}
			return items, nil
		}
	}
	items = append(items, item)
	if err := writeList(ctx, s.db, key, items); err != nil {
		return nil, err
	}
	return items, nil
}

// SetCartQuantity updates one line's quantity; zero removes the line.
func (s *Store) SetCartQuantity(ctx context.Context, actorEmail, productID string, quantity int) ([]models.CartItem, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", errs.ErrValidation)
	}

	key := cartKey(actorEmail)
	mu := s.lock(key)
	mu.Lock()
	defer mu.Unlock()

	items, err := readList[models.CartItem](ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ProductID != productID {
			continue
		}
		if quantity == 0 {
			items = append(items[:i], items[i+1:]...)
		} else {
			items[i].Quantity = quantity
		}
		if err := writeList(ctx, s.db, key, items); err != nil {
			return nil, err
		}
		return items, nil
	}
	return nil, fmt.Errorf("%w: product %s is not in the cart", errs.ErrNotFound, productID)
}

// ReplaceCart overwrites the whole cart, used to reconcile with the remote
// API's confirmed state after a failed optimistic update.
func (s *Store) ReplaceCart(ctx context.Context, actorEmail string, items []models.CartItem) error {
	key := cartKey(actorEmail)
	mu := s.lock(key)
	mu.Lock()
	defer mu.Unlock()
	return writeList(ctx, s.db, key, items)
}

func (s *Store) ClearCart(ctx context.Context, actorEmail string) error {
	key := cartKey(actorEmail)
	mu := s.lock(key)
	mu.Lock()
	defer mu.Unlock()
	if err := s.db.Delete(ctx, key); err != nil {
		return fmt.Errorf("clear %s: %w", key, err)
	}
	return nil
}
