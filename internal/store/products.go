package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/averybrooks/fonezone/internal/errs"
	"github.com/averybrooks/fonezone/internal/kv"
	"github.com/averybrooks/fonezone/internal/models"
)

// ProductPatch is a partial product mutation. Nil fields are left untouched.
type ProductPatch struct {
	Name     *string
	Price    *float64
	ImageURL *string
	Category *string
}

func (s *Store) CreateProduct(ctx context.Context, name string, price float64, imageURL, category string) (*models.Product, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", errs.ErrValidation)
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", errs.ErrValidation)
	}

	mu := s.lock(kv.KeyProducts)
	mu.Lock()
	defer mu.Unlock()

	products, err := readList[models.Product](ctx, s.db, kv.KeyProducts)
	if err != nil {
		return nil, err
	}
	p := models.Product{
		ID:        uuid.New().String(),
		Name:      name,
		Price:     price,
		ImageURL:  imageURL,
		Category:  category,
		CreatedAt: time.Now().UTC(),
	}
	products = append(products, p)
	if err := writeList(ctx, s.db, kv.KeyProducts, products); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := readList[models.Product](ctx, s.db, kv.KeyProducts)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(products, func(p models.Product) time.Time { return p.CreatedAt })
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	products, err := readList[models.Product](ctx, s.db, kv.KeyProducts)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, fmt.Errorf("%w: product %s", errs.ErrNotFound, id)
}

func (s *Store) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*models.Product, error) {
	if patch.Price != nil && *patch.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", errs.ErrValidation)
	}
	if patch.Name != nil && *patch.Name == "" {
		return nil, fmt.Errorf("%w: product name is required", errs.ErrValidation)
	}

	mu := s.lock(kv.KeyProducts)
	mu.Lock()
	defer mu.Unlock()

	products, err := readList[models.Product](ctx, s.db, kv.KeyProducts)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID != id {
			continue
		}
		if patch.Name != nil {
			products[i].Name = *patch.Name
		}
		if patch.Price != nil {
			products[i].Price = *patch.Price
		}
		if patch.ImageURL != nil {
			products[i].ImageURL = *patch.ImageURL
		}
		if patch.Category != nil {
			products[i].Category = *patch.Category
		}
		if err := writeList(ctx, s.db, kv.KeyProducts, products); err != nil {
			return nil, err
		}
		updated := products[i]
		return &updated, nil
	}
	return nil, fmt.Errorf("%w: product %s", errs.ErrNotFound, id)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	mu := s.lock(kv.KeyProducts)
	mu.Lock()
	defer mu.Unlock()

	products, err := readList[models.Product](ctx, s.db, kv.KeyProducts)
	if err != nil {
		return err
	}
	for i := range products {
		if products[i].ID == id {
			products = append(products[:i], products[i+1:]...)
			return writeList(ctx, s.db, kv.KeyProducts, products)
		}
	}
	return fmt.Errorf("%w: product %s", errs.ErrNotFound, id)
}
