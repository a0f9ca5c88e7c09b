package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/averybrooks/fonezone/internal/errs"
	"github.com/averybrooks/fonezone/internal/kv"
	"github.com/averybrooks/fonezone/internal/models"
)

func wishlistKey(actorEmail string) string {
	return kv.WishlistKeyPrefix + strings.ToLower(actorEmail)
}

func (s *Store) Wishlist(ctx context.Context, actorEmail string) ([]models.WishlistItem, error) {
	return readList[models.WishlistItem](ctx, s.db, wishlistKey(actorEmail))
}

// AddToWishlist is idempotent: adding a product already present is a no-op.
func (s *Store) AddToWishlist(ctx context.Context, actorEmail string, item models.WishlistItem) ([]models.WishlistItem, error) {
	if item.ProductID == "" {
		return nil, fmt.Errorf("%w: product id is required", errs.ErrValidation)
	}

	key := wishlistKey(actorEmail)
	mu := s.lock(key)
	mu.Lock()
	defer mu.Unlock()

	items, err := readList[models.WishlistItem](ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.ProductID == item.ProductID {
			return items, nil
		}
	}
	items = append(items, item)
	if err := writeList(ctx, s.db, key, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) RemoveFromWishlist(ctx context.Context, actorEmail, productID string) ([]models.WishlistItem, error) {
	key := wishlistKey(actorEmail)
	mu := s.lock(key)
	mu.Lock()
	defer mu.Unlock()

	items, err := readList[models.WishlistItem](ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ProductID == productID {
			items = append(items[:i], items[i+1:]...)
			if err := writeList(ctx, s.db, key, items); err != nil {
				return nil, err
			}
			return items, nil
		}
	}
	return nil, fmt.Errorf("%w: product %s is not in the wishlist", errs.ErrNotFound, productID)
}

// ReplaceWishlist overwrites the whole wishlist with the remote API's
// confirmed state, the rollback primitive for failed optimistic toggles.
func (s *Store) ReplaceWishlist(ctx context.Context, actorEmail string, items []models.WishlistItem) error {
	key := wishlistKey(actorEmail)
	mu := s.lock(key)
	mu.Lock()
	defer mu.Unlock()
	return writeList(ctx, s.db, key, items)
}
