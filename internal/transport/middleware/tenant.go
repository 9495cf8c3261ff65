package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const TenantIDKey = "tenant_id"

// Tenant requires an X-Tenant-ID header on every API request and exposes
// it to handlers via the gin context.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Tenant-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "X-Tenant-ID header is required"})
			return
		}

		tenantID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || tenantID <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid X-Tenant-ID header"})
			return
		}

		c.Set(TenantIDKey, tenantID)
		c.Next()
	}
}

// TenantID returns the tenant identifier placed on the context by Tenant.
func TenantID(c *gin.Context) int64 {
	return c.GetInt64(TenantIDKey)
}
