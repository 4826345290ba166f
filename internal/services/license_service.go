// internal/services/license_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/keyward/keyward/internal/apperrors"
	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/store"
	"github.com/keyward/keyward/internal/utils"
)

// LicenseService covers the tenant-scoped surface: issuing license keys,
// attaching licenses, lifecycle transitions, and the cross-tenant customer
// lookup.
type LicenseService struct {
	store store.Store
	cfg   *config.Config
}

type LicenseItemRequest struct {
	ProductID string     `json:"product_id" validate:"required,uuid"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	SeatLimit *int       `json:"seat_limit,omitempty" validate:"omitempty,gte=0"`
}

type CreateLicenseKeyRequest struct {
	CustomerEmail string               `json:"customer_email" validate:"required,email"`
	CustomerName  string               `json:"customer_name,omitempty" validate:"omitempty,max=255"`
	Licenses      []LicenseItemRequest `json:"licenses,omitempty" validate:"omitempty,dive"`
}

type RenewLicenseRequest struct {
	Days *int `json:"days,omitempty" validate:"omitempty,gte=1"`
}

type BrandSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

type ProductSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	Features []string  `json:"features,omitempty"`
}

// LicensePayload is a license with its product summary and current seat
// usage. seats_available is null for unlimited licenses.
type LicensePayload struct {
	models.License
	Product        *ProductSummary `json:"product,omitempty"`
	IsValid        bool            `json:"is_valid"`
	SeatsUsed      int64           `json:"seats_used"`
	SeatsAvailable *int64          `json:"seats_available"`
}

type LicenseKeyPayload struct {
	models.LicenseKey
	Brand    *BrandSummary    `json:"brand,omitempty"`
	Licenses []LicensePayload `json:"licenses"`
}

type CustomerLicensesResponse struct {
	LicenseKeys []LicenseKeyPayload `json:"license_keys"`
	Total       int                 `json:"total"`
}

func NewLicenseService(st store.Store, cfg *config.Config) *LicenseService {
	return &LicenseService{
		store: st,
		cfg:   cfg,
	}
}

// CreateLicenseKey issues a new key for a customer, optionally bundling
// initial licenses. All products are resolved before anything is written;
// the key and its licenses then commit in one transaction.
func (s *LicenseService) CreateLicenseKey(ctx context.Context, brand *models.Brand, req *CreateLicenseKeyRequest) (*LicenseKeyPayload, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("Validation failed", utils.GetValidationErrors(err))
	}

	products := make([]*models.Product, 0, len(req.Licenses))
	seen := make(map[string]bool, len(req.Licenses))
	for _, item := range req.Licenses {
		if seen[item.ProductID] {
			return nil, apperrors.Validation(
				fmt.Sprintf("Duplicate product in request: %s", item.ProductID), nil)
		}
		seen[item.ProductID] = true

		product, err := s.resolveBrandProduct(ctx, brand, item.ProductID)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	token, err := utils.GenerateLicenseKey()
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	key := &models.LicenseKey{
		Key:           token,
		BrandID:       brand.ID,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		IsActive:      true,
	}

	err = s.store.Atomic(ctx, func(tx store.Store) error {
		if err := tx.LicenseKeys().Create(ctx, key); err != nil {
			return err
		}
		for i, item := range req.Licenses {
			license := s.newLicense(key.ID, products[i], item)
			if err := tx.Licenses().Create(ctx, license); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperrors.Conflict(apperrors.CodeLicenseExists, "License for this product already exists on this license key")
		}
		return nil, apperrors.Internal(err)
	}

	return buildLicenseKeyPayload(ctx, s.store, key, nil, false)
}

func (s *LicenseService) ListLicenseKeys(ctx context.Context, brand *models.Brand, params utils.PaginationParams) ([]LicenseKeyPayload, int64, error) {
	keys, total, err := s.store.LicenseKeys().ListByBrand(ctx, brand.ID, params)
	if err != nil {
		return nil, 0, apperrors.Internal(err)
	}

	payloads := make([]LicenseKeyPayload, 0, len(keys))
	for i := range keys {
		payload, err := buildLicenseKeyPayload(ctx, s.store, &keys[i], nil, false)
		if err != nil {
			return nil, 0, err
		}
		payloads = append(payloads, *payload)
	}
	return payloads, total, nil
}

func (s *LicenseService) GetLicenseKey(ctx context.Context, brand *models.Brand, key string) (*LicenseKeyPayload, error) {
	licenseKey, err := s.store.LicenseKeys().GetByKeyForBrand(ctx, brand.ID, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.LicenseKeyNotFound()
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return buildLicenseKeyPayload(ctx, s.store, licenseKey, nil, true)
}

// AddLicense attaches one more product entitlement to an existing key.
func (s *LicenseService) AddLicense(ctx context.Context, brand *models.Brand, key string, req *LicenseItemRequest) (*LicensePayload, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("Validation failed", utils.GetValidationErrors(err))
	}

	licenseKey, err := s.store.LicenseKeys().GetByKeyForBrand(ctx, brand.ID, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.LicenseKeyNotFound()
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	product, err := s.resolveBrandProduct(ctx, brand, req.ProductID)
	if err != nil {
		return nil, err
	}

	license := s.newLicense(licenseKey.ID, product, *req)
	if err := s.store.Licenses().Create(ctx, license); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperrors.Conflict(apperrors.CodeLicenseExists, "License for this product already exists on this license key")
		}
		return nil, apperrors.Internal(err)
	}

	return buildLicensePayload(ctx, s.store, license, product, false)
}

func (s *LicenseService) GetLicense(ctx context.Context, brand *models.Brand, id uuid.UUID) (*LicensePayload, error) {
	license, err := s.getBrandLicense(ctx, brand, id)
	if err != nil {
		return nil, err
	}
	return buildLicensePayload(ctx, s.store, license, nil, true)
}

// RenewLicense extends the expiry: from now when already expired, from the
// current expiry otherwise, always forcing the license back to valid.
// Cancelled licenses are terminal and cannot be renewed.
func (s *LicenseService) RenewLicense(ctx context.Context, brand *models.Brand, id uuid.UUID, req *RenewLicenseRequest) (*LicensePayload, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("Validation failed", utils.GetValidationErrors(err))
	}

	days := s.cfg.License.DefaultExpiryDays
	if req.Days != nil {
		days = *req.Days
	}
	if days > s.cfg.License.MaxRenewDays {
		return nil, apperrors.Validation(
			fmt.Sprintf("days must be between 1 and %d", s.cfg.License.MaxRenewDays), nil)
	}

	license, err := s.getBrandLicense(ctx, brand, id)
	if err != nil {
		return nil, err
	}

	if err := license.Renew(days); err != nil {
		return nil, apperrors.LicenseInvalid(string(license.Status))
	}
	if err := s.store.Licenses().Update(ctx, license); err != nil {
		return nil, apperrors.Internal(err)
	}
	return buildLicensePayload(ctx, s.store, license, nil, false)
}

func (s *LicenseService) SuspendLicense(ctx context.Context, brand *models.Brand, id uuid.UUID) (*LicensePayload, error) {
	license, err := s.getBrandLicense(ctx, brand, id)
	if err != nil {
		return nil, err
	}

	if err := license.Suspend(); err != nil {
		return nil, apperrors.LicenseInvalid(string(license.Status))
	}
	if err := s.store.Licenses().Update(ctx, license); err != nil {
		return nil, apperrors.Internal(err)
	}
	return buildLicensePayload(ctx, s.store, license, nil, false)
}

// ResumeLicense returns a suspended license to valid. On any other state
// it leaves the license unchanged rather than failing: resuming a valid
// license is harmless, and a cancelled one stays cancelled.
func (s *LicenseService) ResumeLicense(ctx context.Context, brand *models.Brand, id uuid.UUID) (*LicensePayload, error) {
	license, err := s.getBrandLicense(ctx, brand, id)
	if err != nil {
		return nil, err
	}

	if license.Resume() {
		if err := s.store.Licenses().Update(ctx, license); err != nil {
			return nil, apperrors.Internal(err)
		}
	}
	return buildLicensePayload(ctx, s.store, license, nil, false)
}

func (s *LicenseService) CancelLicense(ctx context.Context, brand *models.Brand, id uuid.UUID) (*LicensePayload, error) {
	license, err := s.getBrandLicense(ctx, brand, id)
	if err != nil {
		return nil, err
	}

	license.Cancel()
	if err := s.store.Licenses().Update(ctx, license); err != nil {
		return nil, apperrors.Internal(err)
	}
	return buildLicensePayload(ctx, s.store, license, nil, false)
}

// FindByCustomerEmail aggregates a customer's license keys across all
// brands, case-insensitively. Customers hold keys from multiple brands and
// need one lookup surface; per-tenant isolation is deliberately bypassed
// for this read. Unknown emails yield an empty list, not an error.
func (s *LicenseService) FindByCustomerEmail(ctx context.Context, email string) (*CustomerLicensesResponse, error) {
	if email == "" {
		return nil, apperrors.MissingParameter("email")
	}

	keys, err := s.store.LicenseKeys().ListByCustomerEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	response := &CustomerLicensesResponse{LicenseKeys: []LicenseKeyPayload{}}
	for i := range keys {
		brand, err := s.store.Brands().GetByID(ctx, keys[i].BrandID)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		payload, err := buildLicenseKeyPayload(ctx, s.store, &keys[i], brand, true)
		if err != nil {
			return nil, err
		}
		response.LicenseKeys = append(response.LicenseKeys, *payload)
		response.Total += len(payload.Licenses)
	}
	return response, nil
}

// resolveBrandProduct looks up a product id within the brand's catalog.
// Products of other brands are reported as not found, never as forbidden.
func (s *LicenseService) resolveBrandProduct(ctx context.Context, brand *models.Brand, productID string) (*models.Product, error) {
	id, err := uuid.Parse(productID)
	if err != nil {
		return nil, apperrors.Validation("product_id must be a valid UUID", nil)
	}

	product, err := s.store.Products().GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.ProductNotFound(fmt.Sprintf("Product not found: %s", productID))
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if product.BrandID != brand.ID {
		return nil, apperrors.ProductNotFound(fmt.Sprintf("Product not found: %s", productID))
	}
	return product, nil
}

func (s *LicenseService) newLicense(keyID uuid.UUID, product *models.Product, item LicenseItemRequest) *models.License {
	expiresAt := time.Now().AddDate(0, 0, s.cfg.License.DefaultExpiryDays)
	if item.ExpiresAt != nil {
		expiresAt = *item.ExpiresAt
	}

	seatLimit := product.DefaultSeatLimit
	if item.SeatLimit != nil {
		seatLimit = *item.SeatLimit
	}

	return &models.License{
		LicenseKeyID: keyID,
		ProductID:    product.ID,
		Status:       models.LicenseStatusValid,
		ExpiresAt:    expiresAt,
		SeatLimit:    seatLimit,
	}
}

// getBrandLicense resolves a license id scoped to the brand. Licenses of
// other brands are indistinguishable from missing ones.
func (s *LicenseService) getBrandLicense(ctx context.Context, brand *models.Brand, id uuid.UUID) (*models.License, error) {
	license, err := s.store.Licenses().GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.LicenseNotFound("License not found")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	key, err := s.store.LicenseKeys().GetByID(ctx, license.LicenseKeyID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if key.BrandID != brand.ID {
		return nil, apperrors.LicenseNotFound("License not found")
	}
	return license, nil
}

func buildLicensePayload(ctx context.Context, st store.Store, license *models.License, product *models.Product, withActivations bool) (*LicensePayload, error) {
	if product == nil {
		resolved, err := st.Products().GetByID(ctx, license.ProductID)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		product = resolved
	}

	seatsUsed, err := st.Activations().CountActiveByLicense(ctx, license.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if withActivations {
		activations, err := st.Activations().ListActiveByLicense(ctx, license.ID)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		license.Activations = activations
	}

	return &LicensePayload{
		License:        *license,
		Product:        productSummary(product),
		IsValid:        license.IsValid(),
		SeatsUsed:      seatsUsed,
		SeatsAvailable: license.SeatsAvailable(seatsUsed),
	}, nil
}

func buildLicenseKeyPayload(ctx context.Context, st store.Store, key *models.LicenseKey, brand *models.Brand, withActivations bool) (*LicenseKeyPayload, error) {
	licenses, err := st.Licenses().ListByKey(ctx, key.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	payload := &LicenseKeyPayload{
		LicenseKey: *key,
		Licenses:   make([]LicensePayload, 0, len(licenses)),
	}
	if brand != nil {
		payload.Brand = &BrandSummary{ID: brand.ID, Name: brand.Name, Slug: brand.Slug}
	}

	for i := range licenses {
		licensePayload, err := buildLicensePayload(ctx, st, &licenses[i], nil, withActivations)
		if err != nil {
			return nil, err
		}
		payload.Licenses = append(payload.Licenses, *licensePayload)
	}
	return payload, nil
}

func productSummary(product *models.Product) *ProductSummary {
	return &ProductSummary{
		ID:       product.ID,
		Name:     product.Name,
		Slug:     product.Slug,
		Features: product.Features,
	}
}
