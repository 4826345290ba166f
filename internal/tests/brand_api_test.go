// internal/tests/brand_api_test.go
package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/keyward/keyward/internal/models"
)

// BrandAPITestSuite drives the brand surface end to end: API-key
// authentication, license key issuance and license lifecycle.
type BrandAPITestSuite struct {
	suite.Suite
	env     *testEnv
	brand   *models.Brand
	product *models.Product
}

func (s *BrandAPITestSuite) SetupTest() {
	s.env = newTestEnv()
	s.brand = s.env.seedBrand(s.T())
	s.product = s.env.seedProduct(s.T(), s.brand, "editor", 3)
}

func (s *BrandAPITestSuite) issueKey() map[string]interface{} {
	w := s.env.request(s.T(), http.MethodPost, "/api/v1/brand/license-keys", map[string]interface{}{
		"customer_email": "newuser@example.com",
		"customer_name":  "New User",
		"licenses": []map[string]interface{}{
			{"product_id": s.product.ID.String()},
		},
	}, brandHeaders())
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	return dataOf(s.T(), w)
}

func (s *BrandAPITestSuite) TestCreateLicenseKey() {
	data := s.issueKey()

	assert.Equal(s.T(), "newuser@example.com", data["customer_email"])
	key, _ := data["key"].(string)
	assert.Len(s.T(), key, 43)

	licenses := data["licenses"].([]interface{})
	require.Len(s.T(), licenses, 1)
	license := licenses[0].(map[string]interface{})
	assert.Equal(s.T(), "valid", license["status"])
	assert.Equal(s.T(), true, license["is_valid"])
	// Seat limit falls back to the product default.
	assert.Equal(s.T(), float64(3), license["seat_limit"])
}

func (s *BrandAPITestSuite) TestCreateLicenseKeyWithoutAuth() {
	w := s.env.request(s.T(), http.MethodPost, "/api/v1/brand/license-keys", map[string]interface{}{
		"customer_email": "test@example.com",
	}, nil)

	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	assert.Equal(s.T(), "not_authenticated", errorCode(s.T(), w))
}

func (s *BrandAPITestSuite) TestCreateLicenseKeyWithBadSecret() {
	w := s.env.request(s.T(), http.MethodPost, "/api/v1/brand/license-keys", map[string]interface{}{
		"customer_email": "test@example.com",
	}, map[string]string{
		"X-API-Key":    testBrandAPIKey,
		"X-API-Secret": "wrong-secret",
	})

	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	assert.Equal(s.T(), "brand_auth_failed", errorCode(s.T(), w))
}

func (s *BrandAPITestSuite) TestListLicenseKeys() {
	s.issueKey()

	w := s.env.request(s.T(), http.MethodGet, "/api/v1/brand/license-keys", nil, brandHeaders())
	require.Equal(s.T(), http.StatusOK, w.Code)

	response := envelope(s.T(), w)
	keys, ok := response["data"].([]interface{})
	require.True(s.T(), ok)
	assert.Len(s.T(), keys, 1)
	assert.Equal(s.T(), "1", w.Header().Get("X-Total-Count"))
}

func (s *BrandAPITestSuite) TestGetLicenseKeyDetail() {
	created := s.issueKey()
	key := created["key"].(string)

	w := s.env.request(s.T(), http.MethodGet, "/api/v1/brand/license-keys/"+key, nil, brandHeaders())
	require.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), key, dataOf(s.T(), w)["key"])
}

func (s *BrandAPITestSuite) TestGetLicenseKeyOfAnotherBrand() {
	created := s.issueKey()
	key := created["key"].(string)

	other := &models.Brand{
		Name: "Globex", Slug: "globex",
		APIKey: "other-api-key", APISecret: "other-api-secret", IsActive: true,
	}
	require.NoError(s.T(), s.env.store.Brands().Create(context.Background(), other))

	w := s.env.request(s.T(), http.MethodGet, "/api/v1/brand/license-keys/"+key, nil, map[string]string{
		"X-API-Key":    "other-api-key",
		"X-API-Secret": "other-api-secret",
	})
	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}

func (s *BrandAPITestSuite) TestAddLicense() {
	key := s.env.seedLicenseKey(s.T(), s.brand)

	w := s.env.request(s.T(), http.MethodPost, "/api/v1/brand/license-keys/"+key.Key+"/licenses",
		map[string]interface{}{
			"product_id": s.product.ID.String(),
			"seat_limit": 5,
		}, brandHeaders())
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())

	data := dataOf(s.T(), w)
	assert.Equal(s.T(), float64(5), data["seat_limit"])
	assert.Equal(s.T(), "valid", data["status"])
}

func (s *BrandAPITestSuite) TestAddLicenseUnknownProduct() {
	key := s.env.seedLicenseKey(s.T(), s.brand)

	w := s.env.request(s.T(), http.MethodPost, "/api/v1/brand/license-keys/"+key.Key+"/licenses",
		map[string]interface{}{
			"product_id": "00000000-0000-0000-0000-000000000000",
		}, brandHeaders())

	assert.Equal(s.T(), http.StatusNotFound, w.Code)
	assert.Equal(s.T(), "product_not_found", errorCode(s.T(), w))
}

func (s *BrandAPITestSuite) TestAddLicenseTwiceConflicts() {
	created := s.issueKey()
	key := created["key"].(string)

	w := s.env.request(s.T(), http.MethodPost, "/api/v1/brand/license-keys/"+key+"/licenses",
		map[string]interface{}{
			"product_id": s.product.ID.String(),
		}, brandHeaders())

	assert.Equal(s.T(), http.StatusConflict, w.Code)
	assert.Equal(s.T(), "license_exists", errorCode(s.T(), w))
}

func (s *BrandAPITestSuite) licenseID(created map[string]interface{}) string {
	licenses := created["licenses"].([]interface{})
	license := licenses[0].(map[string]interface{})
	return license["id"].(string)
}

func (s *BrandAPITestSuite) TestRenewLicense() {
	created := s.issueKey()
	id := s.licenseID(created)

	w := s.env.request(s.T(), http.MethodPost, "/api/v1/brand/licenses/"+id+"/renew",
		map[string]interface{}{"days": 30}, brandHeaders())
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())

	licenses := created["licenses"].([]interface{})
	originalExpiry := licenses[0].(map[string]interface{})["expires_at"].(string)
	renewedExpiry := dataOf(s.T(), w)["expires_at"].(string)
	assert.Greater(s.T(), renewedExpiry, originalExpiry)
}

func (s *BrandAPITestSuite) TestRenewLicenseWithoutBody() {
	created := s.issueKey()
	id := s.licenseID(created)

	w := s.env.request(s.T(), http.MethodPost, "/api/v1/brand/licenses/"+id+"/renew", nil, brandHeaders())
	assert.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
}

func (s *BrandAPITestSuite) TestSuspendResumeCancel() {
	created := s.issueKey()
	id := s.licenseID(created)

	w := s.env.request(s.T(), http.MethodPost, "/api/v1/brand/licenses/"+id+"/suspend", nil, brandHeaders())
	require.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), "suspended", dataOf(s.T(), w)["status"])

	w = s.env.request(s.T(), http.MethodPost, "/api/v1/brand/licenses/"+id+"/resume", nil, brandHeaders())
	require.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), "valid", dataOf(s.T(), w)["status"])

	w = s.env.request(s.T(), http.MethodPost, "/api/v1/brand/licenses/"+id+"/cancel", nil, brandHeaders())
	require.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), "cancelled", dataOf(s.T(), w)["status"])

	// Cancelled is terminal: renew now fails, resume stays a no-op.
	w = s.env.request(s.T(), http.MethodPost, "/api/v1/brand/licenses/"+id+"/renew",
		map[string]interface{}{"days": 30}, brandHeaders())
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	errObj := errorOf(s.T(), w)
	assert.Equal(s.T(), "license_invalid", errObj["code"])
	assert.Equal(s.T(), "License is cancelled", errObj["message"])

	w = s.env.request(s.T(), http.MethodPost, "/api/v1/brand/licenses/"+id+"/resume", nil, brandHeaders())
	require.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), "cancelled", dataOf(s.T(), w)["status"])
}

func (s *BrandAPITestSuite) TestLifecycleAcrossBrandsIsNotFound() {
	created := s.issueKey()
	id := s.licenseID(created)

	other := &models.Brand{
		Name: "Globex", Slug: "globex",
		APIKey: "other-api-key", APISecret: "other-api-secret", IsActive: true,
	}
	require.NoError(s.T(), s.env.store.Brands().Create(context.Background(), other))

	w := s.env.request(s.T(), http.MethodPost, "/api/v1/brand/licenses/"+id+"/suspend", nil, map[string]string{
		"X-API-Key":    "other-api-key",
		"X-API-Secret": "other-api-secret",
	})
	assert.Equal(s.T(), http.StatusNotFound, w.Code)
	assert.Equal(s.T(), "license_not_found", errorCode(s.T(), w))
}

func (s *BrandAPITestSuite) TestListBrandProducts() {
	retired := s.env.seedProduct(s.T(), s.brand, "legacy", 1)
	retired.IsActive = false
	require.NoError(s.T(), s.env.store.Products().Update(context.Background(), retired))

	w := s.env.request(s.T(), http.MethodGet, "/api/v1/brand/products", nil, brandHeaders())
	require.Equal(s.T(), http.StatusOK, w.Code)

	products, ok := envelope(s.T(), w)["data"].([]interface{})
	require.True(s.T(), ok)
	require.Len(s.T(), products, 1)
	assert.Equal(s.T(), "editor", products[0].(map[string]interface{})["slug"])
}

func (s *BrandAPITestSuite) TestCustomerLookupSpansBrands() {
	s.issueKey()

	// The same customer holds a key from a second brand.
	other := &models.Brand{
		Name: "Globex", Slug: "globex",
		APIKey: "other-api-key", APISecret: "other-api-secret", IsActive: true,
	}
	require.NoError(s.T(), s.env.store.Brands().Create(context.Background(), other))
	otherKey := &models.LicenseKey{
		Key: "globex-key-token", BrandID: other.ID,
		CustomerEmail: "NewUser@Example.com", IsActive: true,
	}
	require.NoError(s.T(), s.env.store.LicenseKeys().Create(context.Background(), otherKey))

	w := s.env.request(s.T(), http.MethodGet,
		"/api/v1/brand/customers/licenses?email=newuser@example.com", nil, brandHeaders())
	require.Equal(s.T(), http.StatusOK, w.Code)

	data := dataOf(s.T(), w)
	keys := data["license_keys"].([]interface{})
	require.Len(s.T(), keys, 2)

	slugs := map[string]bool{}
	for _, entry := range keys {
		brand := entry.(map[string]interface{})["brand"].(map[string]interface{})
		slugs[brand["slug"].(string)] = true
	}
	assert.True(s.T(), slugs["acme"])
	assert.True(s.T(), slugs["globex"])
}

func (s *BrandAPITestSuite) TestCustomerLookupRequiresEmail() {
	w := s.env.request(s.T(), http.MethodGet, "/api/v1/brand/customers/licenses", nil, brandHeaders())

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Equal(s.T(), "missing_parameter", errorCode(s.T(), w))
}

func TestBrandAPISuite(t *testing.T) {
	suite.Run(t, new(BrandAPITestSuite))
}
