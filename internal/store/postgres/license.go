// internal/store/postgres/license.go
package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/keyward/keyward/internal/models"
)

type licenseStore struct {
	db *gorm.DB
}

func (s *licenseStore) Create(ctx context.Context, license *models.License) error {
	return translate(s.db.WithContext(ctx).Create(license).Error)
}

func (s *licenseStore) Update(ctx context.Context, license *models.License) error {
	return translate(s.db.WithContext(ctx).Save(license).Error)
}

func (s *licenseStore) GetByID(ctx context.Context, id uuid.UUID) (*models.License, error) {
	var license models.License
	if err := s.db.WithContext(ctx).First(&license, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &license, nil
}

func (s *licenseStore) GetByKeyAndProduct(ctx context.Context, licenseKeyID, productID uuid.UUID) (*models.License, error) {
	var license models.License
	if err := s.db.WithContext(ctx).
		First(&license, "license_key_id = ? AND product_id = ?", licenseKeyID, productID).Error; err != nil {
		return nil, translate(err)
	}
	return &license, nil
}

func (s *licenseStore) ListByKey(ctx context.Context, licenseKeyID uuid.UUID) ([]models.License, error) {
	var licenses []models.License
	if err := s.db.WithContext(ctx).
		Where("license_key_id = ?", licenseKeyID).
		Order("created_at asc").
		Find(&licenses).Error; err != nil {
		return nil, translate(err)
	}
	return licenses, nil
}

func (s *licenseStore) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.License{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return 0, translate(err)
	}
	return count, nil
}
