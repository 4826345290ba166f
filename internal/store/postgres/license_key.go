// internal/store/postgres/license_key.go
package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/utils"
)

type licenseKeyStore struct {
	db *gorm.DB
}

func (s *licenseKeyStore) Create(ctx context.Context, key *models.LicenseKey) error {
	return translate(s.db.WithContext(ctx).Create(key).Error)
}

func (s *licenseKeyStore) GetByID(ctx context.Context, id uuid.UUID) (*models.LicenseKey, error) {
	var key models.LicenseKey
	if err := s.db.WithContext(ctx).First(&key, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &key, nil
}

func (s *licenseKeyStore) GetActiveByKey(ctx context.Context, key string) (*models.LicenseKey, error) {
	var licenseKey models.LicenseKey
	if err := s.db.WithContext(ctx).
		First(&licenseKey, "key = ? AND is_active = ?", key, true).Error; err != nil {
		return nil, translate(err)
	}
	return &licenseKey, nil
}

func (s *licenseKeyStore) GetByKeyForBrand(ctx context.Context, brandID uuid.UUID, key string) (*models.LicenseKey, error) {
	var licenseKey models.LicenseKey
	if err := s.db.WithContext(ctx).
		First(&licenseKey, "brand_id = ? AND key = ?", brandID, key).Error; err != nil {
		return nil, translate(err)
	}
	return &licenseKey, nil
}

func (s *licenseKeyStore) ListByBrand(ctx context.Context, brandID uuid.UUID, params utils.PaginationParams) ([]models.LicenseKey, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.LicenseKey{}).Where("brand_id = ?", brandID)
	if params.Search != "" {
		query = query.Where("customer_email ILIKE ? OR customer_name ILIKE ?", "%"+params.Search+"%", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var keys []models.LicenseKey
	query = utils.ApplySort(query, params, []string{"created_at", "customer_email"})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&keys).Error; err != nil {
		return nil, 0, translate(err)
	}
	return keys, total, nil
}

func (s *licenseKeyStore) ListByCustomerEmail(ctx context.Context, email string) ([]models.LicenseKey, error) {
	var keys []models.LicenseKey
	if err := s.db.WithContext(ctx).
		Where("LOWER(customer_email) = LOWER(?)", email).
		Order("created_at desc").
		Find(&keys).Error; err != nil {
		return nil, translate(err)
	}
	return keys, nil
}
