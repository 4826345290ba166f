// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/keyward/keyward/internal/apperrors"
	"github.com/keyward/keyward/internal/services"
	"github.com/keyward/keyward/internal/store"
	"github.com/keyward/keyward/internal/utils"
)

// AdminHandler serves the operator console: brand onboarding, the product
// catalog and the audit trail.
type AdminHandler struct {
	brandService   *services.BrandService
	productService *services.ProductService
	store          store.Store
}

func NewAdminHandler(brandService *services.BrandService, productService *services.ProductService, st store.Store) *AdminHandler {
	return &AdminHandler{
		brandService:   brandService,
		productService: productService,
		store:          st,
	}
}

// POST /admin/brands
func (h *AdminHandler) CreateBrand(c *gin.Context) {
	var req services.CreateBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, apperrors.Validation("Invalid request body", err.Error()))
		return
	}

	brand, err := h.brandService.CreateBrand(c.Request.Context(), &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, brand)
}

// GET /admin/brands
func (h *AdminHandler) ListBrands(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	brands, total, err := h.brandService.ListBrands(c.Request.Context(), params)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(brands, total, params))
}

// GET /admin/brands/:id
func (h *AdminHandler) GetBrand(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	brand, err := h.brandService.GetBrand(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, brand)
}

// POST /admin/brands/:id/rotate-credentials
func (h *AdminHandler) RotateBrandCredentials(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	brand, err := h.brandService.RotateCredentials(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, brand)
}

// PUT /admin/brands/:id/status
func (h *AdminHandler) UpdateBrandStatus(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var req services.UpdateBrandStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, apperrors.Validation("Invalid request body", err.Error()))
		return
	}

	brand, err := h.brandService.UpdateBrandStatus(c.Request.Context(), id, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, brand)
}

// POST /admin/products
func (h *AdminHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, apperrors.Validation("Invalid request body", err.Error()))
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, product)
}

// GET /admin/products
func (h *AdminHandler) ListProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	var brandID *uuid.UUID
	if raw := c.Query("brand_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondError(c, apperrors.Validation("brand_id must be a valid UUID", nil))
			return
		}
		brandID = &parsed
	}

	products, total, err := h.productService.ListProducts(c.Request.Context(), brandID, params)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params))
}

// GET /admin/products/:id
func (h *AdminHandler) GetProduct(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// PUT /admin/products/:id
func (h *AdminHandler) UpdateProduct(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, apperrors.Validation("Invalid request body", err.Error()))
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// DELETE /admin/products/:id
func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Product deleted successfully"})
}

// GET /admin/audit-logs
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	logs, total, err := h.store.AuditLogs().List(c.Request.Context(), params)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(logs, total, params))
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.Validation(name+" must be a valid UUID", nil)
	}
	return id, nil
}
