// internal/store/memory/activation.go
package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/store"
)

type activationStore struct {
	s *Store
}

func (as *activationStore) Create(ctx context.Context, activation *models.Activation) error {
	as.s.mu.Lock()
	defer as.s.mu.Unlock()

	for _, existing := range as.s.activations {
		if existing.LicenseID == activation.LicenseID && existing.InstanceID == activation.InstanceID {
			return store.ErrDuplicate
		}
	}

	as.s.prepare(&activation.BaseModel)
	if activation.ActivatedAt.IsZero() {
		activation.ActivatedAt = time.Now()
	}
	as.s.activations[activation.ID] = *activation
	return nil
}

func (as *activationStore) Update(ctx context.Context, activation *models.Activation) error {
	as.s.mu.Lock()
	defer as.s.mu.Unlock()

	if _, ok := as.s.activations[activation.ID]; !ok {
		return store.ErrNotFound
	}

	as.s.prepare(&activation.BaseModel)
	as.s.activations[activation.ID] = *activation
	return nil
}

func (as *activationStore) GetByLicenseAndInstance(ctx context.Context, licenseID uuid.UUID, instanceID string) (*models.Activation, error) {
	as.s.mu.RLock()
	defer as.s.mu.RUnlock()

	for _, activation := range as.s.activations {
		if activation.LicenseID == licenseID && activation.InstanceID == instanceID {
			a := activation
			return &a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (as *activationStore) CountActiveByLicense(ctx context.Context, licenseID uuid.UUID) (int64, error) {
	as.s.mu.RLock()
	defer as.s.mu.RUnlock()

	var count int64
	for _, activation := range as.s.activations {
		if activation.LicenseID == licenseID && activation.IsActive {
			count++
		}
	}
	return count, nil
}

func (as *activationStore) ListActiveByLicense(ctx context.Context, licenseID uuid.UUID) ([]models.Activation, error) {
	as.s.mu.RLock()
	defer as.s.mu.RUnlock()

	var activations []models.Activation
	for _, activation := range as.s.activations {
		if activation.LicenseID == licenseID && activation.IsActive {
			activations = append(activations, activation)
		}
	}

	sort.Slice(activations, func(i, j int) bool {
		return activations[i].ActivatedAt.Before(activations[j].ActivatedAt)
	})
	return activations, nil
}

func (as *activationStore) TouchActive(ctx context.Context, licenseIDs []uuid.UUID, instanceID string, at time.Time) error {
	if len(licenseIDs) == 0 {
		return nil
	}

	wanted := make(map[uuid.UUID]bool, len(licenseIDs))
	for _, id := range licenseIDs {
		wanted[id] = true
	}

	as.s.mu.Lock()
	defer as.s.mu.Unlock()

	for id, activation := range as.s.activations {
		if wanted[activation.LicenseID] && activation.InstanceID == instanceID && activation.IsActive {
			checked := at
			activation.LastCheckAt = &checked
			as.s.activations[id] = activation
		}
	}
	return nil
}
