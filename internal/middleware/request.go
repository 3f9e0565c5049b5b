package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/laimu/erptracker/internal/observ"
)

const HeaderRequestID = "X-Request-ID"

// RequestID tags each request with the caller's X-Request-ID or a fresh
// one, and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(observ.RequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// Timeout bounds every store call made while handling the request. A store
// call past the deadline fails with context.DeadlineExceeded, which
// handlers report like any other remote failure.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
