// internal/store/memory/license_key.go
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

type licenseKeyStore struct {
	s *Store
}

func (ks *licenseKeyStore) Create(ctx context.Context, key *models.LicenseKey) error {
	ks.s.mu.Lock()
	defer ks.s.mu.Unlock()

	for _, existing := range ks.s.licenseKeys {
		if existing.Key == key.Key {
			return store.ErrDuplicate
		}
	}

	ks.s.prepare(&key.BaseModel)
	ks.s.licenseKeys[key.ID] = *key
	return nil
}

func (ks *licenseKeyStore) GetByID(ctx context.Context, id uuid.UUID) (*models.LicenseKey, error) {
	ks.s.mu.RLock()
	defer ks.s.mu.RUnlock()

	key, ok := ks.s.licenseKeys[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &key, nil
}

func (ks *licenseKeyStore) GetActiveByKey(ctx context.Context, key string) (*models.LicenseKey, error) {
	ks.s.mu.RLock()
	defer ks.s.mu.RUnlock()

	for _, licenseKey := range ks.s.licenseKeys {
		if licenseKey.Key == key && licenseKey.IsActive {
			k := licenseKey
			return &k, nil
		}
	}
	return nil, store.ErrNotFound
}

func (ks *licenseKeyStore) GetByKeyForBrand(ctx context.Context, brandID uuid.UUID, key string) (*models.LicenseKey, error) {
	ks.s.mu.RLock()
	defer ks.s.mu.RUnlock()

	for _, licenseKey := range ks.s.licenseKeys {
		if licenseKey.BrandID == brandID && licenseKey.Key == key {
			k := licenseKey
			return &k, nil
		}
	}
	return nil, store.ErrNotFound
}

func (ks *licenseKeyStore) ListByBrand(ctx context.Context, brandID uuid.UUID, params utils.PaginationParams) ([]models.LicenseKey, int64, error) {
	ks.s.mu.RLock()
	defer ks.s.mu.RUnlock()

	var keys []models.LicenseKey
	search := strings.ToLower(params.Search)
	for _, key := range ks.s.licenseKeys {
		if key.BrandID != brandID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(key.CustomerEmail), search) &&
			!strings.Contains(strings.ToLower(key.CustomerName), search) {
			continue
		}
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		before := createdBefore(keys[i].CreatedAt, keys[i].ID, keys[j].CreatedAt, keys[j].ID)
		if params.Order == "asc" {
			return before
		}
		return !before
	})

	total := int64(len(keys))
	start, end := pageBounds(len(keys), params)
	return keys[start:end], total, nil
}

func (ks *licenseKeyStore) ListByCustomerEmail(ctx context.Context, email string) ([]models.LicenseKey, error) {
	ks.s.mu.RLock()
	defer ks.s.mu.RUnlock()

	var keys []models.LicenseKey
	for _, key := range ks.s.licenseKeys {
		if strings.EqualFold(key.CustomerEmail, email) {
			keys = append(keys, key)
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		return !createdBefore(keys[i].CreatedAt, keys[i].ID, keys[j].CreatedAt, keys[j].ID)
	})
	return keys, nil
}
