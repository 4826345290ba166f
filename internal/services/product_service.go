// internal/services/product_service.go
package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/keyward/keyward/internal/apperrors"
	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/store"
	"github.com/keyward/keyward/internal/utils"
)

// ProductService manages the per-brand entitlement catalog.
type ProductService struct {
	store store.Store
}

type CreateProductRequest struct {
	BrandID          string   `json:"brand_id" validate:"required,uuid"`
	Name             string   `json:"name" validate:"required,min=2,max=255"`
	Slug             string   `json:"slug" validate:"required,slug,max=100"`
	Description      string   `json:"description,omitempty"`
	Features         []string `json:"features,omitempty" validate:"omitempty,dive,min=1,max=100"`
	DefaultSeatLimit *int     `json:"default_seat_limit,omitempty" validate:"omitempty,gte=0"`
}

type UpdateProductRequest struct {
	Name             *string  `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Description      *string  `json:"description,omitempty"`
	Features         []string `json:"features,omitempty" validate:"omitempty,dive,min=1,max=100"`
	DefaultSeatLimit *int     `json:"default_seat_limit,omitempty" validate:"omitempty,gte=0"`
	IsActive         *bool    `json:"is_active,omitempty"`
}

func NewProductService(st store.Store) *ProductService {
	return &ProductService{store: st}
}

func (s *ProductService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("Validation failed", utils.GetValidationErrors(err))
	}

	brandID, err := uuid.Parse(req.BrandID)
	if err != nil {
		return nil, apperrors.Validation("brand_id must be a valid UUID", nil)
	}

	if _, err := s.store.Brands().GetByID(ctx, brandID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeBrandNotFound, "Brand not found")
		}
		return nil, apperrors.Internal(err)
	}

	seatLimit := 1
	if req.DefaultSeatLimit != nil {
		seatLimit = *req.DefaultSeatLimit
	}

	product := &models.Product{
		BrandID:          brandID,
		Name:             req.Name,
		Slug:             req.Slug,
		Description:      req.Description,
		Features:         pq.StringArray(req.Features),
		DefaultSeatLimit: seatLimit,
		IsActive:         true,
	}

	if err := s.store.Products().Create(ctx, product); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperrors.Conflict(apperrors.CodeProductExists, "Product with this slug already exists for this brand")
		}
		return nil, apperrors.Internal(err)
	}
	return product, nil
}

func (s *ProductService) ListProducts(ctx context.Context, brandID *uuid.UUID, params utils.PaginationParams) ([]models.Product, int64, error) {
	products, total, err := s.store.Products().List(ctx, brandID, params)
	if err != nil {
		return nil, 0, apperrors.Internal(err)
	}
	return products, total, nil
}

// ListBrandProducts returns the active catalog for the authenticated brand.
func (s *ProductService) ListBrandProducts(ctx context.Context, brandID uuid.UUID) ([]models.Product, error) {
	products, err := s.store.Products().ListByBrand(ctx, brandID, true)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return products, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.store.Products().GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.ProductNotFound("Product not found")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("Validation failed", utils.GetValidationErrors(err))
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Features != nil {
		product.Features = pq.StringArray(req.Features)
	}
	if req.DefaultSeatLimit != nil {
		product.DefaultSeatLimit = *req.DefaultSeatLimit
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.store.Products().Update(ctx, product); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperrors.Conflict(apperrors.CodeProductExists, "Product with this slug already exists for this brand")
		}
		return nil, apperrors.Internal(err)
	}
	return product, nil
}

// DeleteProduct rejects deletion while any license references the product;
// licenses treat their product as immutable history.
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}

	err := s.store.Atomic(ctx, func(tx store.Store) error {
		count, err := tx.Licenses().CountByProduct(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperrors.Conflict(apperrors.CodeProductInUse, "Product is referenced by existing licenses and cannot be deleted")
		}
		return tx.Products().Delete(ctx, id)
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperrors.Internal(err)
	}
	return nil
}
