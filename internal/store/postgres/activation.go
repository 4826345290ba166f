// internal/store/postgres/activation.go
package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/keyward/keyward/internal/models"
)

type activationStore struct {
	db *gorm.DB
}

func (s *activationStore) Create(ctx context.Context, activation *models.Activation) error {
	return translate(s.db.WithContext(ctx).Create(activation).Error)
}

func (s *activationStore) Update(ctx context.Context, activation *models.Activation) error {
	return translate(s.db.WithContext(ctx).Save(activation).Error)
}

func (s *activationStore) GetByLicenseAndInstance(ctx context.Context, licenseID uuid.UUID, instanceID string) (*models.Activation, error) {
	var activation models.Activation
	if err := s.db.WithContext(ctx).
		First(&activation, "license_id = ? AND instance_id = ?", licenseID, instanceID).Error; err != nil {
		return nil, translate(err)
	}
	return &activation, nil
}

func (s *activationStore) CountActiveByLicense(ctx context.Context, licenseID uuid.UUID) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Activation{}).
		Where("license_id = ? AND is_active = ?", licenseID, true).
		Count(&count).Error; err != nil {
		return 0, translate(err)
	}
	return count, nil
}

func (s *activationStore) ListActiveByLicense(ctx context.Context, licenseID uuid.UUID) ([]models.Activation, error) {
	var activations []models.Activation
	if err := s.db.WithContext(ctx).
		Where("license_id = ? AND is_active = ?", licenseID, true).
		Order("activated_at asc").
		Find(&activations).Error; err != nil {
		return nil, translate(err)
	}
	return activations, nil
}

func (s *activationStore) TouchActive(ctx context.Context, licenseIDs []uuid.UUID, instanceID string, at time.Time) error {
	if len(licenseIDs) == 0 {
		return nil
	}
	return translate(s.db.WithContext(ctx).
		Model(&models.Activation{}).
		Where("license_id IN ? AND instance_id = ? AND is_active = ?", licenseIDs, instanceID, true).
		Update("last_check_at", at).Error)
}
