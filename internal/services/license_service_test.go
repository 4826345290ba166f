// internal/services/license_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/keyward/keyward/internal/apperrors"
	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/store/memory"
)

func testConfig() *config.Config {
	return &config.Config{
		License: config.LicenseConfig{
			DefaultExpiryDays: 365,
			MaxRenewDays:      3650,
		},
	}
}

type LicenseServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	service *LicenseService

	brand   *models.Brand
	product *models.Product
}

func (s *LicenseServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.service = NewLicenseService(s.store, testConfig())

	s.brand = &models.Brand{
		Name: "Acme", Slug: "acme",
		APIKey: "key-acme", APISecret: "secret-acme", IsActive: true,
	}
	require.NoError(s.T(), s.store.Brands().Create(s.ctx, s.brand))

	s.product = &models.Product{
		BrandID: s.brand.ID, Name: "Editor", Slug: "editor",
		DefaultSeatLimit: 5, IsActive: true,
	}
	require.NoError(s.T(), s.store.Products().Create(s.ctx, s.product))
}

func (s *LicenseServiceTestSuite) requireAppError(err error, code string) *apperrors.Error {
	require.Error(s.T(), err)
	var appErr *apperrors.Error
	require.ErrorAs(s.T(), err, &appErr)
	assert.Equal(s.T(), code, appErr.Code)
	return appErr
}

func (s *LicenseServiceTestSuite) issueKey() *LicenseKeyPayload {
	payload, err := s.service.CreateLicenseKey(s.ctx, s.brand, &CreateLicenseKeyRequest{
		CustomerEmail: "customer@example.com",
		CustomerName:  "Customer",
		Licenses: []LicenseItemRequest{
			{ProductID: s.product.ID.String()},
		},
	})
	require.NoError(s.T(), err)
	return payload
}

func (s *LicenseServiceTestSuite) TestCreateLicenseKey() {
	payload := s.issueKey()

	// Key tokens are 32 random bytes in unpadded URL-safe base64.
	assert.Len(s.T(), payload.Key, 43)
	assert.Equal(s.T(), s.brand.ID, payload.BrandID)
	assert.Equal(s.T(), "customer@example.com", payload.CustomerEmail)
	require.Len(s.T(), payload.Licenses, 1)

	license := payload.Licenses[0]
	assert.Equal(s.T(), "editor", license.Product.Slug)
	assert.True(s.T(), license.IsValid)
	// Defaults come from the product and the configured expiry window.
	assert.Equal(s.T(), 5, license.SeatLimit)
	assert.WithinDuration(s.T(), time.Now().AddDate(0, 0, 365), license.ExpiresAt, time.Minute)
}

func (s *LicenseServiceTestSuite) TestCreateLicenseKeyWithoutLicenses() {
	payload, err := s.service.CreateLicenseKey(s.ctx, s.brand, &CreateLicenseKeyRequest{
		CustomerEmail: "customer@example.com",
	})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), payload.Licenses)
}

func (s *LicenseServiceTestSuite) TestCreateLicenseKeyOverrides() {
	expiresAt := time.Now().AddDate(0, 6, 0)
	seatLimit := 0

	payload, err := s.service.CreateLicenseKey(s.ctx, s.brand, &CreateLicenseKeyRequest{
		CustomerEmail: "customer@example.com",
		Licenses: []LicenseItemRequest{
			{ProductID: s.product.ID.String(), ExpiresAt: &expiresAt, SeatLimit: &seatLimit},
		},
	})
	require.NoError(s.T(), err)

	license := payload.Licenses[0]
	assert.Equal(s.T(), 0, license.SeatLimit)
	assert.Nil(s.T(), license.SeatsAvailable)
	assert.WithinDuration(s.T(), expiresAt, license.ExpiresAt, time.Second)
}

func (s *LicenseServiceTestSuite) TestCreateLicenseKeyRejectsDuplicateProduct() {
	_, err := s.service.CreateLicenseKey(s.ctx, s.brand, &CreateLicenseKeyRequest{
		CustomerEmail: "customer@example.com",
		Licenses: []LicenseItemRequest{
			{ProductID: s.product.ID.String()},
			{ProductID: s.product.ID.String()},
		},
	})
	s.requireAppError(err, apperrors.CodeValidationError)
}

func (s *LicenseServiceTestSuite) TestCreateLicenseKeyRejectsForeignProduct() {
	other := &models.Brand{Name: "Globex", Slug: "globex", APIKey: "key-globex", APISecret: "x", IsActive: true}
	require.NoError(s.T(), s.store.Brands().Create(s.ctx, other))
	foreign := &models.Product{BrandID: other.ID, Name: "Widget", Slug: "widget", IsActive: true}
	require.NoError(s.T(), s.store.Products().Create(s.ctx, foreign))

	_, err := s.service.CreateLicenseKey(s.ctx, s.brand, &CreateLicenseKeyRequest{
		CustomerEmail: "customer@example.com",
		Licenses: []LicenseItemRequest{
			{ProductID: foreign.ID.String()},
		},
	})
	s.requireAppError(err, apperrors.CodeProductNotFound)
}

func (s *LicenseServiceTestSuite) TestAddLicense() {
	payload := s.issueKey()

	addon := &models.Product{BrandID: s.brand.ID, Name: "Addon", Slug: "addon", DefaultSeatLimit: 2, IsActive: true}
	require.NoError(s.T(), s.store.Products().Create(s.ctx, addon))

	license, err := s.service.AddLicense(s.ctx, s.brand, payload.Key, &LicenseItemRequest{
		ProductID: addon.ID.String(),
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "addon", license.Product.Slug)
	assert.Equal(s.T(), 2, license.SeatLimit)
}

func (s *LicenseServiceTestSuite) TestAddLicenseRejectsDuplicate() {
	payload := s.issueKey()

	_, err := s.service.AddLicense(s.ctx, s.brand, payload.Key, &LicenseItemRequest{
		ProductID: s.product.ID.String(),
	})
	appErr := s.requireAppError(err, apperrors.CodeLicenseExists)
	assert.Equal(s.T(), apperrors.KindConflict, appErr.Kind)
}

func (s *LicenseServiceTestSuite) TestGetLicenseKeyScopedToBrand() {
	payload := s.issueKey()

	other := &models.Brand{Name: "Globex", Slug: "globex", APIKey: "key-globex", APISecret: "x", IsActive: true}
	require.NoError(s.T(), s.store.Brands().Create(s.ctx, other))

	_, err := s.service.GetLicenseKey(s.ctx, other, payload.Key)
	s.requireAppError(err, apperrors.CodeLicenseKeyNotFound)

	found, err := s.service.GetLicenseKey(s.ctx, s.brand, payload.Key)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), payload.ID, found.ID)
}

func (s *LicenseServiceTestSuite) TestRenewLicense() {
	payload := s.issueKey()
	licenseID := payload.Licenses[0].ID
	originalExpiry := payload.Licenses[0].ExpiresAt

	days := 30
	renewed, err := s.service.RenewLicense(s.ctx, s.brand, licenseID, &RenewLicenseRequest{Days: &days})
	require.NoError(s.T(), err)
	assert.WithinDuration(s.T(), originalExpiry.AddDate(0, 0, 30), renewed.ExpiresAt, time.Second)
}

func (s *LicenseServiceTestSuite) TestRenewLicenseDefaultWindow() {
	payload := s.issueKey()
	licenseID := payload.Licenses[0].ID
	originalExpiry := payload.Licenses[0].ExpiresAt

	renewed, err := s.service.RenewLicense(s.ctx, s.brand, licenseID, &RenewLicenseRequest{})
	require.NoError(s.T(), err)
	assert.WithinDuration(s.T(), originalExpiry.AddDate(0, 0, 365), renewed.ExpiresAt, time.Second)
}

func (s *LicenseServiceTestSuite) TestRenewLicenseCapsDays() {
	payload := s.issueKey()
	licenseID := payload.Licenses[0].ID

	days := 4000
	_, err := s.service.RenewLicense(s.ctx, s.brand, licenseID, &RenewLicenseRequest{Days: &days})
	s.requireAppError(err, apperrors.CodeValidationError)
}

func (s *LicenseServiceTestSuite) TestSuspendAndResume() {
	payload := s.issueKey()
	licenseID := payload.Licenses[0].ID

	suspended, err := s.service.SuspendLicense(s.ctx, s.brand, licenseID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.LicenseStatusSuspended, suspended.Status)
	assert.False(s.T(), suspended.IsValid)

	resumed, err := s.service.ResumeLicense(s.ctx, s.brand, licenseID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.LicenseStatusValid, resumed.Status)
	assert.True(s.T(), resumed.IsValid)
}

func (s *LicenseServiceTestSuite) TestResumeIsNoOpOnValidLicense() {
	payload := s.issueKey()
	licenseID := payload.Licenses[0].ID

	resumed, err := s.service.ResumeLicense(s.ctx, s.brand, licenseID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.LicenseStatusValid, resumed.Status)
}

func (s *LicenseServiceTestSuite) TestCancelIsTerminal() {
	payload := s.issueKey()
	licenseID := payload.Licenses[0].ID

	cancelled, err := s.service.CancelLicense(s.ctx, s.brand, licenseID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.LicenseStatusCancelled, cancelled.Status)

	// Cancelling again is a no-op.
	again, err := s.service.CancelLicense(s.ctx, s.brand, licenseID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.LicenseStatusCancelled, again.Status)

	// Renewal and suspension refuse to touch it.
	days := 30
	_, err = s.service.RenewLicense(s.ctx, s.brand, licenseID, &RenewLicenseRequest{Days: &days})
	appErr := s.requireAppError(err, apperrors.CodeLicenseInvalid)
	assert.Equal(s.T(), "License is cancelled", appErr.Message)

	_, err = s.service.SuspendLicense(s.ctx, s.brand, licenseID)
	s.requireAppError(err, apperrors.CodeLicenseInvalid)

	// Resume stays a guarded no-op, never an error.
	resumed, err := s.service.ResumeLicense(s.ctx, s.brand, licenseID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.LicenseStatusCancelled, resumed.Status)
}

func (s *LicenseServiceTestSuite) TestLifecycleScopedToBrand() {
	payload := s.issueKey()
	licenseID := payload.Licenses[0].ID

	other := &models.Brand{Name: "Globex", Slug: "globex", APIKey: "key-globex", APISecret: "x", IsActive: true}
	require.NoError(s.T(), s.store.Brands().Create(s.ctx, other))

	_, err := s.service.SuspendLicense(s.ctx, other, licenseID)
	s.requireAppError(err, apperrors.CodeLicenseNotFound)
}

func (s *LicenseServiceTestSuite) TestFindByCustomerEmailSpansBrands() {
	s.issueKey()

	other := &models.Brand{Name: "Globex", Slug: "globex", APIKey: "key-globex", APISecret: "x", IsActive: true}
	require.NoError(s.T(), s.store.Brands().Create(s.ctx, other))
	widget := &models.Product{BrandID: other.ID, Name: "Widget", Slug: "widget", DefaultSeatLimit: 1, IsActive: true}
	require.NoError(s.T(), s.store.Products().Create(s.ctx, widget))

	otherService := NewLicenseService(s.store, testConfig())
	_, err := otherService.CreateLicenseKey(s.ctx, other, &CreateLicenseKeyRequest{
		CustomerEmail: "Customer@Example.com",
		Licenses:      []LicenseItemRequest{{ProductID: widget.ID.String()}},
	})
	require.NoError(s.T(), err)

	response, err := s.service.FindByCustomerEmail(s.ctx, "customer@example.com")
	require.NoError(s.T(), err)

	require.Len(s.T(), response.LicenseKeys, 2)
	assert.Equal(s.T(), 2, response.Total)

	slugs := map[string]bool{}
	for _, key := range response.LicenseKeys {
		require.NotNil(s.T(), key.Brand)
		slugs[key.Brand.Slug] = true
	}
	assert.True(s.T(), slugs["acme"])
	assert.True(s.T(), slugs["globex"])
}

func (s *LicenseServiceTestSuite) TestFindByCustomerEmailUnknownCustomer() {
	response, err := s.service.FindByCustomerEmail(s.ctx, "nobody@example.com")
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), response.LicenseKeys)
	assert.Empty(s.T(), response.LicenseKeys)
	assert.Equal(s.T(), 0, response.Total)
}

func (s *LicenseServiceTestSuite) TestFindByCustomerEmailRequiresEmail() {
	_, err := s.service.FindByCustomerEmail(s.ctx, "")
	s.requireAppError(err, apperrors.CodeMissingParameter)
}

func TestLicenseServiceSuite(t *testing.T) {
	suite.Run(t, new(LicenseServiceTestSuite))
}
