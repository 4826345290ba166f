// internal/store/postgres/brand.go
package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/utils"
)

type brandStore struct {
	db *gorm.DB
}

func (s *brandStore) Create(ctx context.Context, brand *models.Brand) error {
	return translate(s.db.WithContext(ctx).Create(brand).Error)
}

func (s *brandStore) Update(ctx context.Context, brand *models.Brand) error {
	return translate(s.db.WithContext(ctx).Save(brand).Error)
}

func (s *brandStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	var brand models.Brand
	if err := s.db.WithContext(ctx).First(&brand, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &brand, nil
}

func (s *brandStore) GetByAPIKey(ctx context.Context, apiKey string) (*models.Brand, error) {
	var brand models.Brand
	if err := s.db.WithContext(ctx).First(&brand, "api_key = ?", apiKey).Error; err != nil {
		return nil, translate(err)
	}
	return &brand, nil
}

func (s *brandStore) GetByNameOrSlug(ctx context.Context, name, slug string) (*models.Brand, error) {
	var brand models.Brand
	if err := s.db.WithContext(ctx).
		Where("name = ? OR slug = ?", name, slug).
		First(&brand).Error; err != nil {
		return nil, translate(err)
	}
	return &brand, nil
}

func (s *brandStore) List(ctx context.Context, params utils.PaginationParams) ([]models.Brand, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Brand{})
	if params.Search != "" {
		query = query.Where("name ILIKE ? OR slug ILIKE ?", "%"+params.Search+"%", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var brands []models.Brand
	query = utils.ApplySort(query, params, []string{"created_at", "name", "slug"})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&brands).Error; err != nil {
		return nil, 0, translate(err)
	}
	return brands, total, nil
}
