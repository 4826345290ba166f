// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/handlers"
	"github.com/keyward/keyward/internal/middleware"
	"github.com/keyward/keyward/internal/services"
	"github.com/keyward/keyward/internal/store"
	"github.com/keyward/keyward/internal/utils"
)

// Initialize wires services, handlers and middleware into the gin engine.
// The store is the only persistence handle the router ever sees, so the
// same wiring serves postgres in production and the memory store in tests.
func Initialize(st store.Store, cfg *config.Config) *gin.Engine {
	authService := services.NewAuthService(st, cfg)
	brandService := services.NewBrandService(st)
	productService := services.NewProductService(st)
	licenseService := services.NewLicenseService(st, cfg)
	activationService := services.NewActivationService(st)

	authHandler := handlers.NewAuthHandler(authService)
	adminHandler := handlers.NewAdminHandler(brandService, productService, st)
	brandHandler := handlers.NewBrandHandler(licenseService, productService)
	productHandler := handlers.NewProductHandler(activationService)

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(cors.New(buildCORSConfig(cfg.CORS)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.GeneralRateLimit(cfg.RateLimit))
	v1.Use(middleware.AuditLogMiddleware(st))
	{
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit(cfg.RateLimit))
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired())
		admin.Use(middleware.AdminRequired())
		{
			admin.POST("/brands", adminHandler.CreateBrand)
			admin.GET("/brands", adminHandler.ListBrands)
			admin.GET("/brands/:id", adminHandler.GetBrand)
			admin.POST("/brands/:id/rotate-credentials", adminHandler.RotateBrandCredentials)
			admin.PUT("/brands/:id/status", adminHandler.UpdateBrandStatus)

			admin.POST("/products", adminHandler.CreateProduct)
			admin.GET("/products", adminHandler.ListProducts)
			admin.GET("/products/:id", adminHandler.GetProduct)
			admin.PUT("/products/:id", adminHandler.UpdateProduct)
			admin.DELETE("/products/:id", adminHandler.DeleteProduct)

			admin.GET("/audit-logs", adminHandler.ListAuditLogs)
		}

		brand := v1.Group("/brand")
		brand.Use(middleware.BrandAuth(st))
		brand.Use(middleware.RequireBrand())
		{
			brand.GET("/products", brandHandler.ListProducts)

			brand.POST("/license-keys", brandHandler.CreateLicenseKey)
			brand.GET("/license-keys", brandHandler.ListLicenseKeys)
			brand.GET("/license-keys/:key", brandHandler.GetLicenseKey)
			brand.POST("/license-keys/:key/licenses", brandHandler.AddLicense)

			brand.GET("/licenses/:id", brandHandler.GetLicense)
			brand.POST("/licenses/:id/renew", brandHandler.RenewLicense)
			brand.POST("/licenses/:id/suspend", brandHandler.SuspendLicense)
			brand.POST("/licenses/:id/resume", brandHandler.ResumeLicense)
			brand.POST("/licenses/:id/cancel", brandHandler.CancelLicense)

			brand.GET("/customers/licenses", brandHandler.FindCustomerLicenses)
		}

		product := v1.Group("/product")
		product.Use(middleware.ActivationRateLimit(cfg.RateLimit))
		{
			product.POST("/activate", productHandler.Activate)
			product.POST("/validate", productHandler.Validate)
			product.POST("/deactivate", productHandler.Deactivate)
			product.GET("/status",
				middleware.LicenseKeyAuth(st),
				middleware.LicenseKeyRequired(),
				productHandler.Status)
		}
	}

	return r
}

func buildCORSConfig(cfg config.CORSConfig) cors.Config {
	corsConfig := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			"X-API-Key", "X-API-Secret", "X-License-Key", "X-Request-ID",
		},
		ExposeHeaders: []string{
			"X-Request-ID", "X-Total-Count", "X-Page", "X-Per-Page", "X-Total-Pages",
		},
		MaxAge: 12 * time.Hour,
	}

	// Wildcard origins cannot be combined with credentials.
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		return corsConfig
	}
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowCredentials = cfg.AllowCredentials
	return corsConfig
}
