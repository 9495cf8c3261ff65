package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultTimeoutSeconds = 30

// Timeout bounds each request's context so a stuck settlement query
// cannot pin a connection forever. Non-positive values fall back to
// the default deadline.
func Timeout(seconds int) gin.HandlerFunc {
	if seconds <= 0 {
		seconds = defaultTimeoutSeconds
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(seconds)*time.Second)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
