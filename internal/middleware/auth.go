// internal/middleware/auth.go
package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/keyward/keyward/internal/apperrors"
	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/store"
	"github.com/keyward/keyward/internal/utils"
)

const (
	contextKeyBrand      = "brand"
	contextKeyLicenseKey = "license_key"
)

// BrandAuth resolves X-API-Key/X-API-Secret into a brand principal. Requests
// without either header pass through anonymously; presenting credentials
// that do not resolve is a hard failure. The secret comparison is constant
// time so a miss reveals nothing about how close the guess was.
func BrandAuth(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		apiSecret := c.GetHeader("X-API-Secret")
		if apiKey == "" && apiSecret == "" {
			c.Next()
			return
		}

		brand, err := st.Brands().GetByAPIKey(c.Request.Context(), apiKey)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			utils.RespondError(c, apperrors.Internal(err))
			c.Abort()
			return
		}
		if brand == nil || !brand.IsActive || !utils.SecureCompare(apiSecret, brand.APISecret) {
			utils.RespondError(c, apperrors.AuthenticationFailed(apperrors.CodeBrandAuthFailed, "Invalid API credentials"))
			c.Abort()
			return
		}

		c.Set(contextKeyBrand, brand)
		c.Next()
	}
}

// RequireBrand rejects requests that BrandAuth left anonymous.
func RequireBrand() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := BrandFromContext(c); !ok {
			utils.RespondError(c, apperrors.NotAuthenticated())
			c.Abort()
			return
		}
		c.Next()
	}
}

// LicenseKeyAuth resolves a license key principal from the X-License-Key
// header or the license_key query parameter, header first. Like BrandAuth
// it lets anonymous requests through and fails only on a key that does
// not resolve to an active license key.
func LicenseKeyAuth(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-License-Key")
		if key == "" {
			key = c.Query("license_key")
		}
		if key == "" {
			c.Next()
			return
		}

		licenseKey, err := st.LicenseKeys().GetActiveByKey(c.Request.Context(), key)
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(c, apperrors.AuthenticationFailed(apperrors.CodeInvalidLicenseKey, "Invalid license key"))
			c.Abort()
			return
		}
		if err != nil {
			utils.RespondError(c, apperrors.Internal(err))
			c.Abort()
			return
		}

		c.Set(contextKeyLicenseKey, licenseKey)
		c.Next()
	}
}

// LicenseKeyRequired rejects requests that LicenseKeyAuth left anonymous.
// The missing credential is reported as a missing parameter, not an auth
// failure, since customers pass the key as a plain query parameter.
func LicenseKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := LicenseKeyFromContext(c); !ok {
			utils.RespondError(c, apperrors.MissingParameter("license_key"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// AuthRequired validates the Bearer token on admin routes and stores the
// user claims in the request context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, apperrors.NotAuthenticated())
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.RespondError(c, apperrors.AuthenticationFailed(apperrors.CodeInvalidToken, "Invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			utils.RespondError(c, apperrors.AuthenticationFailed(apperrors.CodeInvalidToken, "Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)
		c.Next()
	}
}

// AdminRequired gates routes to users with the admin role. It must run
// after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("user_role")
		if !exists || role != string(models.UserRoleAdmin) {
			utils.RespondError(c, apperrors.Forbidden("Admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// BrandFromContext returns the brand principal set by BrandAuth.
func BrandFromContext(c *gin.Context) (*models.Brand, bool) {
	value, exists := c.Get(contextKeyBrand)
	if !exists {
		return nil, false
	}
	brand, ok := value.(*models.Brand)
	return brand, ok
}

// LicenseKeyFromContext returns the license key principal set by
// LicenseKeyAuth.
func LicenseKeyFromContext(c *gin.Context) (*models.LicenseKey, bool) {
	value, exists := c.Get(contextKeyLicenseKey)
	if !exists {
		return nil, false
	}
	licenseKey, ok := value.(*models.LicenseKey)
	return licenseKey, ok
}
