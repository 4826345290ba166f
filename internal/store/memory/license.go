// internal/store/memory/license.go
package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/store"
)

type licenseStore struct {
	s *Store
}

func (ls *licenseStore) Create(ctx context.Context, license *models.License) error {
	ls.s.mu.Lock()
	defer ls.s.mu.Unlock()

	for _, existing := range ls.s.licenses {
		if existing.LicenseKeyID == license.LicenseKeyID && existing.ProductID == license.ProductID {
			return store.ErrDuplicate
		}
	}

	ls.s.prepare(&license.BaseModel)
	ls.s.licenses[license.ID] = *license
	return nil
}

func (ls *licenseStore) Update(ctx context.Context, license *models.License) error {
	ls.s.mu.Lock()
	defer ls.s.mu.Unlock()

	if _, ok := ls.s.licenses[license.ID]; !ok {
		return store.ErrNotFound
	}

	ls.s.prepare(&license.BaseModel)
	ls.s.licenses[license.ID] = *license
	return nil
}

func (ls *licenseStore) GetByID(ctx context.Context, id uuid.UUID) (*models.License, error) {
	ls.s.mu.RLock()
	defer ls.s.mu.RUnlock()

	license, ok := ls.s.licenses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &license, nil
}

func (ls *licenseStore) GetByKeyAndProduct(ctx context.Context, licenseKeyID, productID uuid.UUID) (*models.License, error) {
	ls.s.mu.RLock()
	defer ls.s.mu.RUnlock()

	for _, license := range ls.s.licenses {
		if license.LicenseKeyID == licenseKeyID && license.ProductID == productID {
			l := license
			return &l, nil
		}
	}
	return nil, store.ErrNotFound
}

func (ls *licenseStore) ListByKey(ctx context.Context, licenseKeyID uuid.UUID) ([]models.License, error) {
	ls.s.mu.RLock()
	defer ls.s.mu.RUnlock()

	var licenses []models.License
	for _, license := range ls.s.licenses {
		if license.LicenseKeyID == licenseKeyID {
			licenses = append(licenses, license)
		}
	}

	sort.Slice(licenses, func(i, j int) bool {
		return createdBefore(licenses[i].CreatedAt, licenses[i].ID, licenses[j].CreatedAt, licenses[j].ID)
	})
	return licenses, nil
}

func (ls *licenseStore) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	ls.s.mu.RLock()
	defer ls.s.mu.RUnlock()

	var count int64
	for _, license := range ls.s.licenses {
		if license.ProductID == productID {
			count++
		}
	}
	return count, nil
}
