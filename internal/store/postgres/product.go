// internal/store/postgres/product.go
package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/store"
	"github.com/keyward/keyward/internal/utils"
)

type productStore struct {
	db *gorm.DB
}

func (s *productStore) Create(ctx context.Context, product *models.Product) error {
	return translate(s.db.WithContext(ctx).Create(product).Error)
}

func (s *productStore) Update(ctx context.Context, product *models.Product) error {
	return translate(s.db.WithContext(ctx).Save(product).Error)
}

func (s *productStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *productStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (s *productStore) GetBySlug(ctx context.Context, brandID uuid.UUID, slug string) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).
		First(&product, "brand_id = ? AND slug = ?", brandID, slug).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (s *productStore) GetActiveBySlug(ctx context.Context, brandID uuid.UUID, slug string) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).
		First(&product, "brand_id = ? AND slug = ? AND is_active = ?", brandID, slug, true).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (s *productStore) ListByBrand(ctx context.Context, brandID uuid.UUID, activeOnly bool) ([]models.Product, error) {
	query := s.db.WithContext(ctx).Where("brand_id = ?", brandID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var products []models.Product
	if err := query.Order("name asc").Find(&products).Error; err != nil {
		return nil, translate(err)
	}
	return products, nil
}

func (s *productStore) List(ctx context.Context, brandID *uuid.UUID, params utils.PaginationParams) ([]models.Product, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})
	if brandID != nil {
		query = query.Where("brand_id = ?", *brandID)
	}
	if params.Search != "" {
		query = query.Where("name ILIKE ? OR slug ILIKE ?", "%"+params.Search+"%", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var products []models.Product
	query = utils.ApplySort(query, params, []string{"created_at", "name", "slug"})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, translate(err)
	}
	return products, total, nil
}
