// internal/middleware/logging.go
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/store"
	"github.com/keyward/keyward/internal/utils"
)

// RequestID assigns every request a short id, echoed in the X-Request-ID
// response header and in every error envelope.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = utils.NewRequestID()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// RequestLogger emits one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		logrus.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": duration.Milliseconds(),
			"ip":          c.ClientIP(),
			"request_id":  utils.GetRequestIDFromContext(c),
		}).Info("Request processed")
	}
}

// AuditLogMiddleware records mutating brand and admin requests
// asynchronously. Reads, the credential-bearing auth routes, and the
// customer product routes are skipped: activations leave their own rows.
// The write happens off the request goroutine so a slow or broken audit
// store never delays a response.
func AuditLogMiddleware(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method == "GET" ||
			strings.HasPrefix(path, "/api/v1/auth/") ||
			strings.HasPrefix(path, "/api/v1/product/") {
			c.Next()
			return
		}

		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = ioutil.ReadAll(c.Request.Body)
			c.Request.Body = ioutil.NopCloser(bytes.NewBuffer(requestBody))
		}

		c.Next()

		var payload map[string]interface{}
		if len(requestBody) > 0 {
			json.Unmarshal(requestBody, &payload)
		}

		auditLog := &models.AuditLog{
			ActorType:    actorFromContext(c),
			ActorID:      actorIDFromContext(c),
			Action:       c.Request.Method + " " + path,
			ResourceType: extractResourceType(path),
			RequestID:    utils.GetRequestIDFromContext(c),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
			Payload:      models.JSONB(payload),
		}
		if resourceID := extractResourceID(path); resourceID != "" {
			if parsed, err := uuid.Parse(resourceID); err == nil {
				auditLog.ResourceID = &parsed
			}
		}

		go func() {
			if err := st.AuditLogs().Create(context.Background(), auditLog); err != nil {
				logrus.WithError(err).Error("Failed to create audit log")
			}
		}()
	}
}

func actorFromContext(c *gin.Context) models.ActorType {
	if _, ok := BrandFromContext(c); ok {
		return models.ActorTypeBrand
	}
	return models.ActorTypeUser
}

func actorIDFromContext(c *gin.Context) *uuid.UUID {
	if brand, ok := BrandFromContext(c); ok {
		id := brand.ID
		return &id
	}
	if userID, ok := utils.GetUserIDFromContext(c); ok {
		if parsed, err := uuid.Parse(userID); err == nil {
			return &parsed
		}
	}
	return nil
}

func extractResourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "v1" {
		// Skip the surface segment (admin, brand) when a resource follows it.
		if (parts[2] == "admin" || parts[2] == "brand") && len(parts) >= 4 {
			return parts[3]
		}
		return parts[2]
	}
	if len(parts) >= 1 {
		return parts[0]
	}
	return "unknown"
}

func extractResourceID(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for _, part := range parts {
		if _, err := uuid.Parse(part); err == nil {
			return part
		}
	}
	return ""
}
