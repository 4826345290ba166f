// internal/services/brand_service.go
package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/keyward/keyward/internal/apperrors"
	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/store"
	"github.com/keyward/keyward/internal/utils"
)

// BrandService manages tenant identities and their API credentials.
// Credentials are generated exactly once at issue time and only ever
// replaced wholesale by RotateCredentials; there is no partial update.
type BrandService struct {
	store store.Store
}

type CreateBrandRequest struct {
	Name string `json:"name" validate:"required,min=2,max=255"`
	Slug string `json:"slug" validate:"required,slug,max=100"`
}

type UpdateBrandStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type BrandCredentials struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}

// BrandWithCredentials is returned only from issue and rotate: the single
// occasions the secret crosses the wire. The brand fields are flattened into
// the payload with the credential pair alongside.
type BrandWithCredentials struct {
	*models.Brand
	Credentials BrandCredentials `json:"credentials"`
}

func NewBrandService(st store.Store) *BrandService {
	return &BrandService{store: st}
}

func (s *BrandService) CreateBrand(ctx context.Context, req *CreateBrandRequest) (*BrandWithCredentials, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("Validation failed", utils.GetValidationErrors(err))
	}

	if _, err := s.store.Brands().GetByNameOrSlug(ctx, req.Name, req.Slug); err == nil {
		return nil, apperrors.Conflict(apperrors.CodeBrandExists, "Brand with this name or slug already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	apiKey, apiSecret, err := utils.GenerateAPICredentials()
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	brand := &models.Brand{
		Name:      req.Name,
		Slug:      req.Slug,
		APIKey:    apiKey,
		APISecret: apiSecret,
		IsActive:  true,
	}

	if err := s.store.Brands().Create(ctx, brand); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperrors.Conflict(apperrors.CodeBrandExists, "Brand with this name or slug already exists")
		}
		return nil, apperrors.Internal(err)
	}

	return &BrandWithCredentials{
		Brand:       brand,
		Credentials: BrandCredentials{APIKey: apiKey, APISecret: apiSecret},
	}, nil
}

func (s *BrandService) ListBrands(ctx context.Context, params utils.PaginationParams) ([]models.Brand, int64, error) {
	brands, total, err := s.store.Brands().List(ctx, params)
	if err != nil {
		return nil, 0, apperrors.Internal(err)
	}
	return brands, total, nil
}

func (s *BrandService) GetBrand(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	brand, err := s.store.Brands().GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound(apperrors.CodeBrandNotFound, "Brand not found")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return brand, nil
}

// RotateCredentials replaces both credential fields atomically. The old
// pair stops working the moment the update commits; nothing that
// references the brand needs recomputation because credentials are only
// ever looked up by value at authentication time.
func (s *BrandService) RotateCredentials(ctx context.Context, id uuid.UUID) (*BrandWithCredentials, error) {
	brand, err := s.GetBrand(ctx, id)
	if err != nil {
		return nil, err
	}

	apiKey, apiSecret, err := utils.GenerateAPICredentials()
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	brand.APIKey = apiKey
	brand.APISecret = apiSecret
	if err := s.store.Brands().Update(ctx, brand); err != nil {
		return nil, apperrors.Internal(err)
	}

	return &BrandWithCredentials{
		Brand:       brand,
		Credentials: BrandCredentials{APIKey: apiKey, APISecret: apiSecret},
	}, nil
}

// UpdateBrandStatus soft-deactivates or reactivates a brand. Deactivation
// closes the API to the brand's credentials without deleting anything.
func (s *BrandService) UpdateBrandStatus(ctx context.Context, id uuid.UUID, req *UpdateBrandStatusRequest) (*models.Brand, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("Validation failed", utils.GetValidationErrors(err))
	}

	brand, err := s.GetBrand(ctx, id)
	if err != nil {
		return nil, err
	}

	brand.IsActive = *req.IsActive
	if err := s.store.Brands().Update(ctx, brand); err != nil {
		return nil, apperrors.Internal(err)
	}
	return brand, nil
}
