// internal/store/memory/brand.go
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

type brandStore struct {
	s *Store
}

func (bs *brandStore) Create(ctx context.Context, brand *models.Brand) error {
	bs.s.mu.Lock()
	defer bs.s.mu.Unlock()

	for _, existing := range bs.s.brands {
		if existing.Name == brand.Name || existing.Slug == brand.Slug || existing.APIKey == brand.APIKey {
			return store.ErrDuplicate
		}
	}

	bs.s.prepare(&brand.BaseModel)
	bs.s.brands[brand.ID] = *brand
	return nil
}

func (bs *brandStore) Update(ctx context.Context, brand *models.Brand) error {
	bs.s.mu.Lock()
	defer bs.s.mu.Unlock()

	if _, ok := bs.s.brands[brand.ID]; !ok {
		return store.ErrNotFound
	}
	for id, existing := range bs.s.brands {
		if id == brand.ID {
			continue
		}
		if existing.Name == brand.Name || existing.Slug == brand.Slug || existing.APIKey == brand.APIKey {
			return store.ErrDuplicate
		}
	}

	bs.s.prepare(&brand.BaseModel)
	bs.s.brands[brand.ID] = *brand
	return nil
}

func (bs *brandStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	bs.s.mu.RLock()
	defer bs.s.mu.RUnlock()

	brand, ok := bs.s.brands[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &brand, nil
}

func (bs *brandStore) GetByAPIKey(ctx context.Context, apiKey string) (*models.Brand, error) {
	bs.s.mu.RLock()
	defer bs.s.mu.RUnlock()

	for _, brand := range bs.s.brands {
		if brand.APIKey == apiKey {
			b := brand
			return &b, nil
		}
	}
	return nil, store.ErrNotFound
}

func (bs *brandStore) GetByNameOrSlug(ctx context.Context, name, slug string) (*models.Brand, error) {
	bs.s.mu.RLock()
	defer bs.s.mu.RUnlock()

	for _, brand := range bs.s.brands {
		if brand.Name == name || brand.Slug == slug {
			b := brand
			return &b, nil
		}
	}
	return nil, store.ErrNotFound
}

func (bs *brandStore) List(ctx context.Context, params utils.PaginationParams) ([]models.Brand, int64, error) {
	bs.s.mu.RLock()
	defer bs.s.mu.RUnlock()

	var brands []models.Brand
	search := strings.ToLower(params.Search)
	for _, brand := range bs.s.brands {
		if search != "" &&
			!strings.Contains(strings.ToLower(brand.Name), search) &&
			!strings.Contains(strings.ToLower(brand.Slug), search) {
			continue
		}
		brands = append(brands, brand)
	}

	sort.Slice(brands, func(i, j int) bool {
		before := createdBefore(brands[i].CreatedAt, brands[i].ID, brands[j].CreatedAt, brands[j].ID)
		if params.Order == "asc" {
			return before
		}
		return !before
	})

	total := int64(len(brands))
	start, end := pageBounds(len(brands), params)
	return brands[start:end], total, nil
}
