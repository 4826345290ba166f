// internal/store/memory/product.go
package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/store"
	"github.com/keyward/keyward/internal/utils"
)

type productStore struct {
	s *Store
}

func (ps *productStore) Create(ctx context.Context, product *models.Product) error {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	for _, existing := range ps.s.products {
		if existing.BrandID == product.BrandID && existing.Slug == product.Slug {
			return store.ErrDuplicate
		}
	}

	ps.s.prepare(&product.BaseModel)
	ps.s.products[product.ID] = *product
	return nil
}

func (ps *productStore) Update(ctx context.Context, product *models.Product) error {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	if _, ok := ps.s.products[product.ID]; !ok {
		return store.ErrNotFound
	}
	for id, existing := range ps.s.products {
		if id == product.ID {
			continue
		}
		if existing.BrandID == product.BrandID && existing.Slug == product.Slug {
			return store.ErrDuplicate
		}
	}

	ps.s.prepare(&product.BaseModel)
	ps.s.products[product.ID] = *product
	return nil
}

func (ps *productStore) Delete(ctx context.Context, id uuid.UUID) error {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	if _, ok := ps.s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(ps.s.products, id)
	return nil
}

func (ps *productStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	ps.s.mu.RLock()
	defer ps.s.mu.RUnlock()

	product, ok := ps.s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &product, nil
}

func (ps *productStore) GetBySlug(ctx context.Context, brandID uuid.UUID, slug string) (*models.Product, error) {
	ps.s.mu.RLock()
	defer ps.s.mu.RUnlock()

	for _, product := range ps.s.products {
		if product.BrandID == brandID && product.Slug == slug {
			p := product
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (ps *productStore) GetActiveBySlug(ctx context.Context, brandID uuid.UUID, slug string) (*models.Product, error) {
	ps.s.mu.RLock()
	defer ps.s.mu.RUnlock()

	for _, product := range ps.s.products {
		if product.BrandID == brandID && product.Slug == slug && product.IsActive {
			p := product
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (ps *productStore) ListByBrand(ctx context.Context, brandID uuid.UUID, activeOnly bool) ([]models.Product, error) {
	ps.s.mu.RLock()
	defer ps.s.mu.RUnlock()

	var products []models.Product
	for _, product := range ps.s.products {
		if product.BrandID != brandID {
			continue
		}
		if activeOnly && !product.IsActive {
			continue
		}
		products = append(products, product)
	}

	sort.Slice(products, func(i, j int) bool {
		return products[i].Name < products[j].Name
	})
	return products, nil
}

func (ps *productStore) List(ctx context.Context, brandID *uuid.UUID, params utils.PaginationParams) ([]models.Product, int64, error) {
	ps.s.mu.RLock()
	defer ps.s.mu.RUnlock()

	var products []models.Product
	search := strings.ToLower(params.Search)
	for _, product := range ps.s.products {
		if brandID != nil && product.BrandID != *brandID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(product.Name), search) &&
			!strings.Contains(strings.ToLower(product.Slug), search) {
			continue
		}
		products = append(products, product)
	}

	sort.Slice(products, func(i, j int) bool {
		before := createdBefore(products[i].CreatedAt, products[i].ID, products[j].CreatedAt, products[j].ID)
		if params.Order == "asc" {
			return before
		}
		return !before
	})

	total := int64(len(products))
	start, end := pageBounds(len(products), params)
	return products[start:end], total, nil
}
