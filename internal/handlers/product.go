// internal/handlers/product.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/keyward/keyward/internal/apperrors"
	"github.com/keyward/keyward/internal/middleware"
	"github.com/keyward/keyward/internal/services"
	"github.com/keyward/keyward/internal/utils"
)

// ProductHandler serves the customer-facing activation API. The license
// key inside each payload is the only credential these routes need.
type ProductHandler struct {
	activationService *services.ActivationService
}

func NewProductHandler(activationService *services.ActivationService) *ProductHandler {
	return &ProductHandler{
		activationService: activationService,
	}
}

// POST /product/activate
func (h *ProductHandler) Activate(c *gin.Context) {
	var req services.ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, apperrors.Validation("Invalid request body", err.Error()))
		return
	}

	response, err := h.activationService.Activate(c.Request.Context(), &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, response)
}

// POST /product/validate
func (h *ProductHandler) Validate(c *gin.Context) {
	var req services.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, apperrors.Validation("Invalid request body", err.Error()))
		return
	}

	response, err := h.activationService.Validate(c.Request.Context(), &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, response)
}

// POST /product/deactivate
func (h *ProductHandler) Deactivate(c *gin.Context) {
	var req services.DeactivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, apperrors.Validation("Invalid request body", err.Error()))
		return
	}

	response, err := h.activationService.Deactivate(c.Request.Context(), &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, response)
}

// GET /product/status
func (h *ProductHandler) Status(c *gin.Context) {
	licenseKey, ok := middleware.LicenseKeyFromContext(c)
	if !ok {
		utils.RespondError(c, apperrors.MissingParameter("license_key"))
		return
	}

	response, err := h.activationService.Status(c.Request.Context(), licenseKey)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, response)
}
