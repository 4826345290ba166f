// internal/tests/fixtures_test.go
package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/router"
	"github.com/keyward/keyward/internal/store/memory"
	"github.com/keyward/keyward/internal/utils"
)

const (
	testBrandAPIKey    = "test-brand-api-key"
	testBrandAPISecret = "test-brand-api-secret"
	testLicenseKey     = "test-license-key-token"
	testAdminEmail     = "admin@example.com"
	testAdminPassword  = "admin-password"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv is a full server over the in-memory store: real router, real
// middleware, real services.
type testEnv struct {
	store  *memory.Store
	router *gin.Engine
}

func newTestEnv() *testEnv {
	cfg := &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:       "integration-test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
		License: config.LicenseConfig{
			DefaultExpiryDays: 365,
			MaxRenewDays:      3650,
		},
		RateLimit: config.RateLimitConfig{
			GeneralPerMinute:    100000,
			AuthPerMinute:       100000,
			ActivationPerMinute: 100000,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
	}

	st := memory.New()
	return &testEnv{
		store:  st,
		router: router.Initialize(st, cfg),
	}
}

func (e *testEnv) seedAdmin(t *testing.T) *models.User {
	t.Helper()
	user := &models.User{
		Name:     "Admin",
		Email:    testAdminEmail,
		Role:     models.UserRoleAdmin,
		IsActive: true,
	}
	require.NoError(t, user.SetPassword(testAdminPassword))
	require.NoError(t, e.store.Users().Create(context.Background(), user))
	return user
}

func (e *testEnv) seedBrand(t *testing.T) *models.Brand {
	t.Helper()
	brand := &models.Brand{
		Name:      "Acme",
		Slug:      "acme",
		APIKey:    testBrandAPIKey,
		APISecret: testBrandAPISecret,
		IsActive:  true,
	}
	require.NoError(t, e.store.Brands().Create(context.Background(), brand))
	return brand
}

func (e *testEnv) seedProduct(t *testing.T, brand *models.Brand, slug string, seatLimit int) *models.Product {
	t.Helper()
	product := &models.Product{
		BrandID:          brand.ID,
		Name:             "Product " + slug,
		Slug:             slug,
		DefaultSeatLimit: seatLimit,
		IsActive:         true,
	}
	require.NoError(t, e.store.Products().Create(context.Background(), product))
	return product
}

func (e *testEnv) seedLicenseKey(t *testing.T, brand *models.Brand) *models.LicenseKey {
	t.Helper()
	key := &models.LicenseKey{
		Key:           testLicenseKey,
		BrandID:       brand.ID,
		CustomerEmail: "customer@example.com",
		CustomerName:  "Customer",
		IsActive:      true,
	}
	require.NoError(t, e.store.LicenseKeys().Create(context.Background(), key))
	return key
}

func (e *testEnv) seedLicense(t *testing.T, key *models.LicenseKey, product *models.Product, seatLimit int) *models.License {
	t.Helper()
	license := &models.License{
		LicenseKeyID: key.ID,
		ProductID:    product.ID,
		Status:       models.LicenseStatusValid,
		ExpiresAt:    time.Now().AddDate(1, 0, 0),
		SeatLimit:    seatLimit,
	}
	require.NoError(t, e.store.Licenses().Create(context.Background(), license))
	return license
}

func brandHeaders() map[string]string {
	return map[string]string{
		"X-API-Key":    testBrandAPIKey,
		"X-API-Secret": testBrandAPISecret,
	}
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// envelope decodes the standard response wrapper.
func envelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "body: %s", w.Body.String())
	return response
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	data, ok := envelope(t, w)["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	errObj, ok := envelope(t, w)["error"].(map[string]interface{})
	require.True(t, ok, "response has no error object: %s", w.Body.String())
	return errObj
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	code, _ := errorOf(t, w)["code"].(string)
	return code
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	w := e.request(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    testAdminEmail,
		"password": testAdminPassword,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, "login failed: %s", w.Body.String())

	token, ok := dataOf(t, w)["access_token"].(string)
	require.True(t, ok)
	return token
}

func bearerHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// paginationAll is a page large enough to capture everything a test seeds.
func paginationAll() utils.PaginationParams {
	return utils.PaginationParams{Page: 1, Limit: 100, Sort: "created_at", Order: "desc"}
}
