// internal/services/activation_service_test.go
package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"github.com/keyward/keyward/internal/apperrors"
	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/store/memory"
)

type ActivationServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	service *ActivationService

	brand   *models.Brand
	product *models.Product
	key     *models.LicenseKey
	license *models.License
}

func (s *ActivationServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.service = NewActivationService(s.store)

	s.brand = &models.Brand{
		Name: "Acme", Slug: "acme",
		APIKey: "key-acme", APISecret: "secret-acme", IsActive: true,
	}
	require.NoError(s.T(), s.store.Brands().Create(s.ctx, s.brand))

	s.product = &models.Product{
		BrandID: s.brand.ID, Name: "Editor", Slug: "editor",
		DefaultSeatLimit: 1, IsActive: true,
	}
	require.NoError(s.T(), s.store.Products().Create(s.ctx, s.product))

	s.key = &models.LicenseKey{
		Key: "test-key-editor", BrandID: s.brand.ID,
		CustomerEmail: "customer@example.com", CustomerName: "Customer",
		IsActive: true,
	}
	require.NoError(s.T(), s.store.LicenseKeys().Create(s.ctx, s.key))

	s.license = &models.License{
		LicenseKeyID: s.key.ID, ProductID: s.product.ID,
		Status:    models.LicenseStatusValid,
		ExpiresAt: time.Now().AddDate(1, 0, 0),
		SeatLimit: 3,
	}
	require.NoError(s.T(), s.store.Licenses().Create(s.ctx, s.license))
}

func (s *ActivationServiceTestSuite) setSeatLimit(limit int) {
	s.license.SeatLimit = limit
	require.NoError(s.T(), s.store.Licenses().Update(s.ctx, s.license))
}

func (s *ActivationServiceTestSuite) setStatus(status models.LicenseStatus) {
	s.license.Status = status
	require.NoError(s.T(), s.store.Licenses().Update(s.ctx, s.license))
}

func (s *ActivationServiceTestSuite) activate(instanceID string) (*ActivationResponse, error) {
	return s.service.Activate(s.ctx, &ActivateRequest{
		LicenseKey:  s.key.Key,
		ProductSlug: s.product.Slug,
		InstanceID:  instanceID,
	})
}

func (s *ActivationServiceTestSuite) requireAppError(err error, code string) *apperrors.Error {
	require.Error(s.T(), err)
	var appErr *apperrors.Error
	require.True(s.T(), errors.As(err, &appErr), "expected *apperrors.Error, got %T", err)
	assert.Equal(s.T(), code, appErr.Code)
	return appErr
}

func (s *ActivationServiceTestSuite) TestActivateClaimsSeat() {
	response, err := s.activate("machine-1")
	require.NoError(s.T(), err)

	assert.Equal(s.T(), s.license.ID, response.LicenseID)
	assert.Equal(s.T(), "machine-1", response.InstanceID)
	assert.Equal(s.T(), "editor", response.Product.Slug)
	assert.True(s.T(), response.IsValid)
	assert.Equal(s.T(), int64(1), response.SeatsUsed)
	require.NotNil(s.T(), response.SeatsAvailable)
	assert.Equal(s.T(), int64(2), *response.SeatsAvailable)
}

func (s *ActivationServiceTestSuite) TestActivateStoresInstanceDetails() {
	_, err := s.service.Activate(s.ctx, &ActivateRequest{
		LicenseKey:   s.key.Key,
		ProductSlug:  s.product.Slug,
		InstanceID:   "machine-1",
		InstanceName: "Build server",
		InstanceMetadata: map[string]interface{}{
			"os": "linux",
		},
	})
	require.NoError(s.T(), err)

	activation, err := s.store.Activations().GetByLicenseAndInstance(s.ctx, s.license.ID, "machine-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Build server", activation.InstanceName)
	assert.Equal(s.T(), "linux", activation.Metadata["os"])
}

func (s *ActivationServiceTestSuite) TestActivateUnknownKey() {
	_, err := s.service.Activate(s.ctx, &ActivateRequest{
		LicenseKey: "nonexistent", ProductSlug: "editor", InstanceID: "machine-1",
	})
	appErr := s.requireAppError(err, apperrors.CodeLicenseKeyNotFound)
	assert.Equal(s.T(), "License key not found", appErr.Message)
}

func (s *ActivationServiceTestSuite) TestActivateDeactivatedKey() {
	s.key.IsActive = false
	require.NoError(s.T(), s.store.LicenseKeys().Update(s.ctx, s.key))

	_, err := s.activate("machine-1")
	s.requireAppError(err, apperrors.CodeLicenseKeyNotFound)
}

func (s *ActivationServiceTestSuite) TestActivateUnknownProduct() {
	_, err := s.service.Activate(s.ctx, &ActivateRequest{
		LicenseKey: s.key.Key, ProductSlug: "no-such-product", InstanceID: "machine-1",
	})
	appErr := s.requireAppError(err, apperrors.CodeLicenseNotFound)
	assert.Equal(s.T(), "No license found for product 'no-such-product'", appErr.Message)
}

func (s *ActivationServiceTestSuite) TestActivateRetiredProduct() {
	s.product.IsActive = false
	require.NoError(s.T(), s.store.Products().Update(s.ctx, s.product))

	_, err := s.activate("machine-1")
	s.requireAppError(err, apperrors.CodeLicenseNotFound)
}

func (s *ActivationServiceTestSuite) TestActivateSuspendedLicense() {
	s.setStatus(models.LicenseStatusSuspended)

	_, err := s.activate("machine-1")
	appErr := s.requireAppError(err, apperrors.CodeLicenseInvalid)
	assert.Equal(s.T(), "License is suspended", appErr.Message)
}

func (s *ActivationServiceTestSuite) TestActivateCancelledLicense() {
	s.setStatus(models.LicenseStatusCancelled)

	_, err := s.activate("machine-1")
	appErr := s.requireAppError(err, apperrors.CodeLicenseInvalid)
	assert.Equal(s.T(), "License is cancelled", appErr.Message)
}

func (s *ActivationServiceTestSuite) TestActivateExpiredLicense() {
	s.license.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(s.T(), s.store.Licenses().Update(s.ctx, s.license))

	_, err := s.activate("machine-1")
	appErr := s.requireAppError(err, apperrors.CodeLicenseExpired)
	assert.Contains(s.T(), appErr.Message, "License expired on")
}

func (s *ActivationServiceTestSuite) TestActivateSeatLimitExceeded() {
	s.setSeatLimit(2)

	_, err := s.activate("machine-1")
	require.NoError(s.T(), err)
	_, err = s.activate("machine-2")
	require.NoError(s.T(), err)

	_, err = s.activate("machine-3")
	appErr := s.requireAppError(err, apperrors.CodeSeatLimitExceeded)
	assert.Equal(s.T(), "Seat limit (2) exceeded. 2/2 seats used.", appErr.Message)
}

func (s *ActivationServiceTestSuite) TestActivateIsIdempotentPerInstance() {
	s.setSeatLimit(1)

	first, err := s.activate("machine-1")
	require.NoError(s.T(), err)

	// The seat is full, but re-activating the same instance succeeds
	// without consuming anything.
	second, err := s.activate("machine-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), first.ActivationID, second.ActivationID)
	assert.Equal(s.T(), int64(1), second.SeatsUsed)

	count, err := s.store.Activations().CountActiveByLicense(s.ctx, s.license.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), count)
}

func (s *ActivationServiceTestSuite) TestReactivationReusesRow() {
	first, err := s.activate("machine-1")
	require.NoError(s.T(), err)

	before, err := s.store.Activations().GetByLicenseAndInstance(s.ctx, s.license.ID, "machine-1")
	require.NoError(s.T(), err)

	_, err = s.service.Deactivate(s.ctx, &DeactivateRequest{
		LicenseKey: s.key.Key, ProductSlug: s.product.Slug, InstanceID: "machine-1",
	})
	require.NoError(s.T(), err)

	again, err := s.activate("machine-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), first.ActivationID, again.ActivationID)

	after, err := s.store.Activations().GetByLicenseAndInstance(s.ctx, s.license.ID, "machine-1")
	require.NoError(s.T(), err)
	assert.True(s.T(), after.IsActive)
	assert.Nil(s.T(), after.DeactivatedAt)
	// The row keeps its first activation timestamp across the round trip.
	assert.Equal(s.T(), before.ActivatedAt.Unix(), after.ActivatedAt.Unix())
}

func (s *ActivationServiceTestSuite) TestReactivationRequiresCapacity() {
	s.setSeatLimit(1)

	_, err := s.activate("machine-1")
	require.NoError(s.T(), err)
	_, err = s.service.Deactivate(s.ctx, &DeactivateRequest{
		LicenseKey: s.key.Key, ProductSlug: s.product.Slug, InstanceID: "machine-1",
	})
	require.NoError(s.T(), err)

	// Another instance takes the freed seat.
	_, err = s.activate("machine-2")
	require.NoError(s.T(), err)

	// The parked row exists, but reactivating it must still respect the
	// limit.
	_, err = s.activate("machine-1")
	s.requireAppError(err, apperrors.CodeSeatLimitExceeded)
}

func (s *ActivationServiceTestSuite) TestUnlimitedSeats() {
	s.setSeatLimit(0)

	for i := 0; i < 20; i++ {
		response, err := s.activate(fmt.Sprintf("machine-%d", i))
		require.NoError(s.T(), err)
		assert.Nil(s.T(), response.SeatsAvailable)
	}

	count, err := s.store.Activations().CountActiveByLicense(s.ctx, s.license.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(20), count)
}

func (s *ActivationServiceTestSuite) TestConcurrentActivationsNeverOversellSeats() {
	s.setSeatLimit(3)

	const attempts = 16
	var g errgroup.Group
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		i := i
		g.Go(func() error {
			_, err := s.activate(fmt.Sprintf("machine-%d", i))
			results[i] = err
			return nil
		})
	}
	require.NoError(s.T(), g.Wait())

	succeeded, denied := 0, 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var appErr *apperrors.Error
		require.True(s.T(), errors.As(err, &appErr))
		require.Equal(s.T(), apperrors.CodeSeatLimitExceeded, appErr.Code)
		denied++
	}
	assert.Equal(s.T(), 3, succeeded)
	assert.Equal(s.T(), attempts-3, denied)

	count, err := s.store.Activations().CountActiveByLicense(s.ctx, s.license.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(3), count)
}

func (s *ActivationServiceTestSuite) TestDeactivateFreesSeat() {
	_, err := s.activate("machine-1")
	require.NoError(s.T(), err)

	response, err := s.service.Deactivate(s.ctx, &DeactivateRequest{
		LicenseKey: s.key.Key, ProductSlug: s.product.Slug, InstanceID: "machine-1",
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "License deactivated successfully", response.Message)
	assert.Equal(s.T(), "machine-1", response.InstanceID)
	assert.Equal(s.T(), int64(0), response.SeatsUsed)
	require.NotNil(s.T(), response.SeatsAvailable)
	assert.Equal(s.T(), int64(3), *response.SeatsAvailable)
}

func (s *ActivationServiceTestSuite) TestDeactivateUnknownInstance() {
	_, err := s.service.Deactivate(s.ctx, &DeactivateRequest{
		LicenseKey: s.key.Key, ProductSlug: s.product.Slug, InstanceID: "ghost",
	})
	appErr := s.requireAppError(err, apperrors.CodeActivationNotFound)
	assert.Equal(s.T(), "No active activation found for instance 'ghost'", appErr.Message)
}

func (s *ActivationServiceTestSuite) TestDeactivateTwice() {
	_, err := s.activate("machine-1")
	require.NoError(s.T(), err)

	deactivate := func() error {
		_, err := s.service.Deactivate(s.ctx, &DeactivateRequest{
			LicenseKey: s.key.Key, ProductSlug: s.product.Slug, InstanceID: "machine-1",
		})
		return err
	}
	require.NoError(s.T(), deactivate())
	s.requireAppError(deactivate(), apperrors.CodeActivationNotFound)
}

func (s *ActivationServiceTestSuite) TestDeactivateIgnoresLicenseStatus() {
	_, err := s.activate("machine-1")
	require.NoError(s.T(), err)
	s.setStatus(models.LicenseStatusSuspended)

	// Freeing a seat works even when the license is no longer usable.
	_, err = s.service.Deactivate(s.ctx, &DeactivateRequest{
		LicenseKey: s.key.Key, ProductSlug: s.product.Slug, InstanceID: "machine-1",
	})
	assert.NoError(s.T(), err)
}

func (s *ActivationServiceTestSuite) TestDeactivateWorksOnRetiredProduct() {
	_, err := s.activate("machine-1")
	require.NoError(s.T(), err)

	s.product.IsActive = false
	require.NoError(s.T(), s.store.Products().Update(s.ctx, s.product))

	_, err = s.service.Deactivate(s.ctx, &DeactivateRequest{
		LicenseKey: s.key.Key, ProductSlug: s.product.Slug, InstanceID: "machine-1",
	})
	assert.NoError(s.T(), err)
}

func (s *ActivationServiceTestSuite) addSuspendedAddonLicense() *models.License {
	addon := &models.Product{
		BrandID: s.brand.ID, Name: "Addon", Slug: "addon",
		DefaultSeatLimit: 1, IsActive: true,
	}
	require.NoError(s.T(), s.store.Products().Create(s.ctx, addon))

	license := &models.License{
		LicenseKeyID: s.key.ID, ProductID: addon.ID,
		Status:    models.LicenseStatusSuspended,
		ExpiresAt: time.Now().AddDate(1, 0, 0),
		SeatLimit: 1,
	}
	require.NoError(s.T(), s.store.Licenses().Create(s.ctx, license))
	return license
}

func (s *ActivationServiceTestSuite) TestValidateReportsAllLicenses() {
	s.addSuspendedAddonLicense()

	response, err := s.service.Validate(s.ctx, &ValidateRequest{LicenseKey: s.key.Key})
	require.NoError(s.T(), err)

	assert.True(s.T(), response.IsValid)
	assert.Equal(s.T(), s.key.Key, response.LicenseKey)
	require.Len(s.T(), response.Licenses, 2)

	bySlug := make(map[string]LicensePayload)
	for _, payload := range response.Licenses {
		bySlug[payload.Product.Slug] = payload
	}
	assert.True(s.T(), bySlug["editor"].IsValid)
	assert.False(s.T(), bySlug["addon"].IsValid)
}

func (s *ActivationServiceTestSuite) TestValidateFiltersByProduct() {
	s.addSuspendedAddonLicense()

	response, err := s.service.Validate(s.ctx, &ValidateRequest{
		LicenseKey: s.key.Key, ProductSlug: "addon",
	})
	require.NoError(s.T(), err)

	// The aggregate follows the filtered set: only the suspended addon
	// remains, so the key reports invalid here.
	assert.False(s.T(), response.IsValid)
	require.Len(s.T(), response.Licenses, 1)
	assert.Equal(s.T(), "addon", response.Licenses[0].Product.Slug)
}

func (s *ActivationServiceTestSuite) TestValidateUnknownProductMatchesNothing() {
	response, err := s.service.Validate(s.ctx, &ValidateRequest{
		LicenseKey: s.key.Key, ProductSlug: "no-such-product",
	})
	require.NoError(s.T(), err)
	assert.False(s.T(), response.IsValid)
	assert.Empty(s.T(), response.Licenses)
}

func (s *ActivationServiceTestSuite) TestValidateUnknownKey() {
	_, err := s.service.Validate(s.ctx, &ValidateRequest{LicenseKey: "nonexistent"})
	s.requireAppError(err, apperrors.CodeLicenseKeyNotFound)
}

func (s *ActivationServiceTestSuite) TestValidateDowngradesUnactivatedInstance() {
	response, err := s.service.Validate(s.ctx, &ValidateRequest{
		LicenseKey: s.key.Key, InstanceID: "ghost",
	})
	require.NoError(s.T(), err)

	// The key itself is valid, but this instance never claimed a seat.
	assert.True(s.T(), response.IsValid)
	require.Len(s.T(), response.Licenses, 1)
	assert.False(s.T(), response.Licenses[0].IsValid)
}

func (s *ActivationServiceTestSuite) TestValidateRecordsCheckIn() {
	_, err := s.activate("machine-1")
	require.NoError(s.T(), err)

	response, err := s.service.Validate(s.ctx, &ValidateRequest{
		LicenseKey: s.key.Key, InstanceID: "machine-1",
	})
	require.NoError(s.T(), err)
	assert.True(s.T(), response.IsValid)
	require.Len(s.T(), response.Licenses, 1)
	assert.True(s.T(), response.Licenses[0].IsValid)

	activation, err := s.store.Activations().GetByLicenseAndInstance(s.ctx, s.license.ID, "machine-1")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), activation.LastCheckAt)
	assert.WithinDuration(s.T(), time.Now(), *activation.LastCheckAt, time.Second)
}

func (s *ActivationServiceTestSuite) TestStatusReportsActiveActivationsOnly() {
	_, err := s.activate("machine-1")
	require.NoError(s.T(), err)
	_, err = s.activate("machine-2")
	require.NoError(s.T(), err)
	_, err = s.service.Deactivate(s.ctx, &DeactivateRequest{
		LicenseKey: s.key.Key, ProductSlug: s.product.Slug, InstanceID: "machine-2",
	})
	require.NoError(s.T(), err)

	response, err := s.service.Status(s.ctx, s.key)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), s.key.Key, response.LicenseKey)
	assert.Equal(s.T(), "customer@example.com", response.CustomerEmail)
	require.NotNil(s.T(), response.Brand)
	assert.Equal(s.T(), "acme", response.Brand.Slug)
	require.Len(s.T(), response.Licenses, 1)
	require.Len(s.T(), response.Activations, 1)
	assert.Equal(s.T(), "machine-1", response.Activations[0].InstanceID)
	assert.Equal(s.T(), "editor", response.Activations[0].ProductSlug)
}

func TestActivationServiceSuite(t *testing.T) {
	suite.Run(t, new(ActivationServiceTestSuite))
}
