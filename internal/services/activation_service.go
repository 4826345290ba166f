// internal/services/activation_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/keyward/keyward/internal/apperrors"
	"github.com/keyward/keyward/internal/metrics"
	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/store"
	"github.com/keyward/keyward/internal/utils"
)

// ActivationService is the customer-facing seat allocator. Activate and
// deactivate run their check-then-write against a per-license lock; the
// license token in the payload, plus a matching product slug and instance
// id, stands in as the capability proof for these operations.
type ActivationService struct {
	store store.Store
}

type ActivateRequest struct {
	LicenseKey       string                 `json:"license_key" validate:"required"`
	ProductSlug      string                 `json:"product_slug" validate:"required"`
	InstanceID       string                 `json:"instance_id" validate:"required,instance_id"`
	InstanceName     string                 `json:"instance_name,omitempty" validate:"omitempty,max=255"`
	InstanceMetadata map[string]interface{} `json:"instance_metadata,omitempty"`
}

type ValidateRequest struct {
	LicenseKey  string `json:"license_key" validate:"required"`
	ProductSlug string `json:"product_slug,omitempty"`
	InstanceID  string `json:"instance_id,omitempty" validate:"omitempty,max=255"`
}

type DeactivateRequest struct {
	LicenseKey  string `json:"license_key" validate:"required"`
	ProductSlug string `json:"product_slug" validate:"required"`
	InstanceID  string `json:"instance_id" validate:"required,instance_id"`
}

type ActivationResponse struct {
	ActivationID   uuid.UUID       `json:"activation_id"`
	LicenseID      uuid.UUID       `json:"license_id"`
	Product        *ProductSummary `json:"product"`
	InstanceID     string          `json:"instance_id"`
	IsValid        bool            `json:"is_valid"`
	ExpiresAt      time.Time       `json:"expires_at"`
	SeatsUsed      int64           `json:"seats_used"`
	SeatsAvailable *int64          `json:"seats_available"`
}

type ValidationResponse struct {
	IsValid    bool             `json:"is_valid"`
	LicenseKey string           `json:"license_key"`
	Licenses   []LicensePayload `json:"licenses"`
}

type DeactivationResponse struct {
	Message        string `json:"message"`
	InstanceID     string `json:"instance_id"`
	SeatsUsed      int64  `json:"seats_used"`
	SeatsAvailable *int64 `json:"seats_available"`
}

type ActivationStatusPayload struct {
	ActivationID uuid.UUID  `json:"activation_id"`
	LicenseID    uuid.UUID  `json:"license_id"`
	ProductSlug  string     `json:"product_slug"`
	InstanceID   string     `json:"instance_id"`
	InstanceName string     `json:"instance_name"`
	IsActive     bool       `json:"is_active"`
	ActivatedAt  time.Time  `json:"activated_at"`
	LastCheckAt  *time.Time `json:"last_check_at"`
}

type LicenseStatusResponse struct {
	LicenseKey    string                    `json:"license_key"`
	CustomerEmail string                    `json:"customer_email"`
	CustomerName  string                    `json:"customer_name"`
	Brand         *BrandSummary             `json:"brand"`
	Licenses      []LicensePayload          `json:"licenses"`
	Activations   []ActivationStatusPayload `json:"activations"`
}

func NewActivationService(st store.Store) *ActivationService {
	return &ActivationService{store: st}
}

// Activate claims a seat for an instance. Re-activating an instance that
// already holds a seat is idempotent and does not consume capacity;
// everything else goes through the capacity check inside the per-license
// lock, which wraps exactly the check-and-write and nothing wider.
func (s *ActivationService) Activate(ctx context.Context, req *ActivateRequest) (*ActivationResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("Validation failed", utils.GetValidationErrors(err))
	}

	licenseKey, err := s.store.LicenseKeys().GetActiveByKey(ctx, req.LicenseKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, s.rejected(apperrors.LicenseKeyNotFound())
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	product, err := s.store.Products().GetActiveBySlug(ctx, licenseKey.BrandID, req.ProductSlug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, s.rejected(apperrors.LicenseNotFound(fmt.Sprintf("No license found for product '%s'", req.ProductSlug)))
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	license, err := s.store.Licenses().GetByKeyAndProduct(ctx, licenseKey.ID, product.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, s.rejected(apperrors.LicenseNotFound(fmt.Sprintf("No license found for product '%s'", req.ProductSlug)))
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if license.Status != models.LicenseStatusValid {
		return nil, s.rejected(apperrors.LicenseInvalid(string(license.Status)))
	}
	if license.IsExpired() {
		return nil, s.rejected(apperrors.LicenseExpired(license.ExpiresAt))
	}

	var (
		response *ActivationResponse
		outcome  = metrics.OutcomeActivated
	)
	err = s.store.WithLicenseLock(ctx, license.ID, func(tx store.Store) error {
		existing, err := tx.Activations().GetByLicenseAndInstance(ctx, license.ID, req.InstanceID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		var activation *models.Activation
		switch {
		case existing != nil && existing.IsActive:
			// Already holds a seat; just refresh the check stamp.
			existing.RecordCheck()
			if err := tx.Activations().Update(ctx, existing); err != nil {
				return err
			}
			activation = existing
			outcome = metrics.OutcomeRefreshed
		case existing != nil:
			if err := checkCapacity(ctx, tx, license); err != nil {
				return err
			}
			existing.Reactivate()
			if err := tx.Activations().Update(ctx, existing); err != nil {
				return err
			}
			activation = existing
			outcome = metrics.OutcomeReactivated
		default:
			if err := checkCapacity(ctx, tx, license); err != nil {
				return err
			}
			activation = &models.Activation{
				LicenseID:    license.ID,
				InstanceID:   req.InstanceID,
				InstanceName: req.InstanceName,
				Metadata:     models.JSONB(req.InstanceMetadata),
				IsActive:     true,
				ActivatedAt:  time.Now(),
			}
			if err := tx.Activations().Create(ctx, activation); err != nil {
				return err
			}
		}

		seatsUsed, err := tx.Activations().CountActiveByLicense(ctx, license.ID)
		if err != nil {
			return err
		}
		response = &ActivationResponse{
			ActivationID:   activation.ID,
			LicenseID:      license.ID,
			Product:        productSummary(product),
			InstanceID:     activation.InstanceID,
			IsValid:        license.IsValid(),
			ExpiresAt:      license.ExpiresAt,
			SeatsUsed:      seatsUsed,
			SeatsAvailable: license.SeatsAvailable(seatsUsed),
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			if appErr.Kind == apperrors.KindCapacityExceeded {
				metrics.SeatDenialsTotal.Inc()
				return nil, s.denied(appErr)
			}
			return nil, s.rejected(appErr)
		}
		return nil, apperrors.Internal(err)
	}

	metrics.ActivationsTotal.WithLabelValues(outcome).Inc()
	logrus.WithFields(logrus.Fields{
		"license_id":  license.ID,
		"instance_id": req.InstanceID,
		"outcome":     outcome,
	}).Info("License activated")

	return response, nil
}

// Deactivate frees exactly one seat. Only an existing active activation
// can be deactivated; the row is kept and flipped, never deleted.
func (s *ActivationService) Deactivate(ctx context.Context, req *DeactivateRequest) (*DeactivationResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("Validation failed", utils.GetValidationErrors(err))
	}

	licenseKey, err := s.store.LicenseKeys().GetActiveByKey(ctx, req.LicenseKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.LicenseKeyNotFound()
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	// Deactivation works even when the product has been retired; only
	// activation insists on an active product.
	product, err := s.store.Products().GetBySlug(ctx, licenseKey.BrandID, req.ProductSlug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.LicenseNotFound("License not found")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	license, err := s.store.Licenses().GetByKeyAndProduct(ctx, licenseKey.ID, product.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.LicenseNotFound("License not found")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	var response *DeactivationResponse
	err = s.store.WithLicenseLock(ctx, license.ID, func(tx store.Store) error {
		activation, err := tx.Activations().GetByLicenseAndInstance(ctx, license.ID, req.InstanceID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !activation.IsActive) {
			return apperrors.ActivationNotFound(fmt.Sprintf("No active activation found for instance '%s'", req.InstanceID))
		}
		if err != nil {
			return err
		}

		activation.Deactivate()
		if err := tx.Activations().Update(ctx, activation); err != nil {
			return err
		}

		seatsUsed, err := tx.Activations().CountActiveByLicense(ctx, license.ID)
		if err != nil {
			return err
		}
		response = &DeactivationResponse{
			Message:        "License deactivated successfully",
			InstanceID:     req.InstanceID,
			SeatsUsed:      seatsUsed,
			SeatsAvailable: license.SeatsAvailable(seatsUsed),
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Internal(err)
	}

	logrus.WithFields(logrus.Fields{
		"license_id":  license.ID,
		"instance_id": req.InstanceID,
	}).Info("License deactivated")

	return response, nil
}

// Validate reports per-license validity without consuming capacity. With
// an instance id, a license only counts as valid for that instance when
// the instance holds an active seat; the aggregate is_valid ignores the
// instance and answers whether any license in the considered set is
// usable at all.
func (s *ActivationService) Validate(ctx context.Context, req *ValidateRequest) (*ValidationResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("Validation failed", utils.GetValidationErrors(err))
	}

	licenseKey, err := s.store.LicenseKeys().GetActiveByKey(ctx, req.LicenseKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.LicenseKeyNotFound()
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	licenses, err := s.store.Licenses().ListByKey(ctx, licenseKey.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	allLicenseIDs := make([]uuid.UUID, 0, len(licenses))
	for _, license := range licenses {
		allLicenseIDs = append(allLicenseIDs, license.ID)
	}

	// An unknown product slug simply matches nothing; validate never
	// fails on a lookup miss beyond the key itself.
	if req.ProductSlug != "" {
		filtered := licenses[:0]
		product, err := s.store.Products().GetBySlug(ctx, licenseKey.BrandID, req.ProductSlug)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.Internal(err)
		}
		if product != nil {
			for _, license := range licenses {
				if license.ProductID == product.ID {
					filtered = append(filtered, license)
				}
			}
		}
		licenses = filtered
	}

	response := &ValidationResponse{
		LicenseKey: licenseKey.Key,
		Licenses:   make([]LicensePayload, 0, len(licenses)),
	}
	for i := range licenses {
		payload, err := buildLicensePayload(ctx, s.store, &licenses[i], nil, false)
		if err != nil {
			return nil, err
		}

		if licenses[i].IsValid() {
			response.IsValid = true
		}

		// Downgrade the per-license answer when the asking instance
		// never activated it; the aggregate above is unaffected.
		if req.InstanceID != "" && payload.IsValid {
			activation, err := s.store.Activations().GetByLicenseAndInstance(ctx, licenses[i].ID, req.InstanceID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return nil, apperrors.Internal(err)
			}
			if activation == nil || !activation.IsActive {
				payload.IsValid = false
			}
		}

		response.Licenses = append(response.Licenses, *payload)
	}

	if req.InstanceID != "" {
		if err := s.store.Activations().TouchActive(ctx, allLicenseIDs, req.InstanceID, time.Now()); err != nil {
			return nil, apperrors.Internal(err)
		}
	}

	result := "invalid"
	if response.IsValid {
		result = "valid"
	}
	metrics.ValidationsTotal.WithLabelValues(result).Inc()
	logrus.WithFields(logrus.Fields{
		"license_key": truncateKey(licenseKey.Key),
		"valid":       response.IsValid,
	}).Info("License validated")

	return response, nil
}

// Status returns the full picture of a license key: customer, brand,
// licenses, and currently active activations. The caller was already
// authenticated by token; the resolved key arrives as the principal.
func (s *ActivationService) Status(ctx context.Context, licenseKey *models.LicenseKey) (*LicenseStatusResponse, error) {
	brand, err := s.store.Brands().GetByID(ctx, licenseKey.BrandID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	licenses, err := s.store.Licenses().ListByKey(ctx, licenseKey.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	response := &LicenseStatusResponse{
		LicenseKey:    licenseKey.Key,
		CustomerEmail: licenseKey.CustomerEmail,
		CustomerName:  licenseKey.CustomerName,
		Brand:         &BrandSummary{ID: brand.ID, Name: brand.Name, Slug: brand.Slug},
		Licenses:      make([]LicensePayload, 0, len(licenses)),
		Activations:   []ActivationStatusPayload{},
	}

	for i := range licenses {
		payload, err := buildLicensePayload(ctx, s.store, &licenses[i], nil, false)
		if err != nil {
			return nil, err
		}
		response.Licenses = append(response.Licenses, *payload)

		activations, err := s.store.Activations().ListActiveByLicense(ctx, licenses[i].ID)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		for _, activation := range activations {
			response.Activations = append(response.Activations, ActivationStatusPayload{
				ActivationID: activation.ID,
				LicenseID:    activation.LicenseID,
				ProductSlug:  payload.Product.Slug,
				InstanceID:   activation.InstanceID,
				InstanceName: activation.InstanceName,
				IsActive:     activation.IsActive,
				ActivatedAt:  activation.ActivatedAt,
				LastCheckAt:  activation.LastCheckAt,
			})
		}
	}

	return response, nil
}

// checkCapacity enforces the seat limit. It must only run while the
// per-license lock is held; the count it reads is otherwise free to race
// with concurrent activations.
func checkCapacity(ctx context.Context, tx store.Store, license *models.License) error {
	if license.SeatLimit == 0 {
		return nil
	}

	seatsUsed, err := tx.Activations().CountActiveByLicense(ctx, license.ID)
	if err != nil {
		return err
	}
	if seatsUsed >= int64(license.SeatLimit) {
		return apperrors.SeatLimitExceeded(seatsUsed, license.SeatLimit)
	}
	return nil
}

func (s *ActivationService) rejected(err *apperrors.Error) *apperrors.Error {
	metrics.ActivationsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
	return err
}

func (s *ActivationService) denied(err *apperrors.Error) *apperrors.Error {
	metrics.ActivationsTotal.WithLabelValues(metrics.OutcomeDenied).Inc()
	return err
}

func truncateKey(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8] + "..."
}
