// internal/handlers/brand.go
package handlers

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/keyward/keyward/internal/apperrors"
	"github.com/keyward/keyward/internal/middleware"
	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/services"
	"github.com/keyward/keyward/internal/utils"
)

// BrandHandler serves the brand API: issuing license keys, managing the
// licenses on them, and looking up customers. Every route runs behind
// BrandAuth, so the brand principal is always present here.
type BrandHandler struct {
	licenseService *services.LicenseService
	productService *services.ProductService
}

func NewBrandHandler(licenseService *services.LicenseService, productService *services.ProductService) *BrandHandler {
	return &BrandHandler{
		licenseService: licenseService,
		productService: productService,
	}
}

// GET /brand/products
func (h *BrandHandler) ListProducts(c *gin.Context) {
	brand := mustBrand(c)
	if brand == nil {
		return
	}

	products, err := h.productService.ListBrandProducts(c.Request.Context(), brand.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, products)
}

// POST /brand/license-keys
func (h *BrandHandler) CreateLicenseKey(c *gin.Context) {
	brand := mustBrand(c)
	if brand == nil {
		return
	}

	var req services.CreateLicenseKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, apperrors.Validation("Invalid request body", err.Error()))
		return
	}

	payload, err := h.licenseService.CreateLicenseKey(c.Request.Context(), brand, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, payload)
}

// GET /brand/license-keys
func (h *BrandHandler) ListLicenseKeys(c *gin.Context) {
	brand := mustBrand(c)
	if brand == nil {
		return
	}
	params := utils.GetPaginationParams(c)

	keys, total, err := h.licenseService.ListLicenseKeys(c.Request.Context(), brand, params)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(keys, total, params))
}

// GET /brand/license-keys/:key
func (h *BrandHandler) GetLicenseKey(c *gin.Context) {
	brand := mustBrand(c)
	if brand == nil {
		return
	}

	payload, err := h.licenseService.GetLicenseKey(c.Request.Context(), brand, c.Param("key"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, payload)
}

// POST /brand/license-keys/:key/licenses
func (h *BrandHandler) AddLicense(c *gin.Context) {
	brand := mustBrand(c)
	if brand == nil {
		return
	}

	var req services.LicenseItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, apperrors.Validation("Invalid request body", err.Error()))
		return
	}

	payload, err := h.licenseService.AddLicense(c.Request.Context(), brand, c.Param("key"), &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, payload)
}

// GET /brand/licenses/:id
func (h *BrandHandler) GetLicense(c *gin.Context) {
	brand := mustBrand(c)
	if brand == nil {
		return
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	payload, err := h.licenseService.GetLicense(c.Request.Context(), brand, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, payload)
}

// POST /brand/licenses/:id/renew
func (h *BrandHandler) RenewLicense(c *gin.Context) {
	brand := mustBrand(c)
	if brand == nil {
		return
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	// The body is optional; an absent days field renews by the default
	// expiry window.
	var req services.RenewLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(c, apperrors.Validation("Invalid request body", err.Error()))
		return
	}

	payload, err := h.licenseService.RenewLicense(c.Request.Context(), brand, id, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, payload)
}

// POST /brand/licenses/:id/suspend
func (h *BrandHandler) SuspendLicense(c *gin.Context) {
	h.lifecycle(c, h.licenseService.SuspendLicense)
}

// POST /brand/licenses/:id/resume
func (h *BrandHandler) ResumeLicense(c *gin.Context) {
	h.lifecycle(c, h.licenseService.ResumeLicense)
}

// POST /brand/licenses/:id/cancel
func (h *BrandHandler) CancelLicense(c *gin.Context) {
	h.lifecycle(c, h.licenseService.CancelLicense)
}

// GET /brand/customers/licenses
func (h *BrandHandler) FindCustomerLicenses(c *gin.Context) {
	if mustBrand(c) == nil {
		return
	}

	response, err := h.licenseService.FindByCustomerEmail(c.Request.Context(), c.Query("email"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, response)
}

func (h *BrandHandler) lifecycle(c *gin.Context, fn func(ctx context.Context, brand *models.Brand, id uuid.UUID) (*services.LicensePayload, error)) {
	brand := mustBrand(c)
	if brand == nil {
		return
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	payload, err := fn(c.Request.Context(), brand, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, payload)
}

// mustBrand returns the brand principal or writes a 401 and returns nil.
// RequireBrand already guards these routes; this is the in-handler check
// that keeps a misconfigured route from panicking.
func mustBrand(c *gin.Context) *models.Brand {
	brand, ok := middleware.BrandFromContext(c)
	if !ok {
		utils.RespondError(c, apperrors.NotAuthenticated())
		return nil
	}
	return brand
}
