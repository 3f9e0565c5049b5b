package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/laimu/erptracker/internal/apperr"
	"github.com/laimu/erptracker/internal/auth"
)

// Context keys for the authenticated session.
const (
	ContextKeyPrincipalID = "principal_id"
	ContextKeyEmail       = "email"
	ContextKeyTokenID     = "token_id"
	ContextKeyTokenExpiry = "token_expiry"
	// ContextKeyLogoutOnExpired carries the expired-session policy to
	// handlers that detect a rejection from the store.
	ContextKeyLogoutOnExpired = "logout_on_expired"
)

// HeaderSessionEnded tells the client to discard its credential and go back
// to sign-in.
const HeaderSessionEnded = "X-Session-Ended"

// AuthMiddleware validates the Bearer token and rejects revoked sessions.
//
// An expired token is always a 401. With logoutOnExpired the response also
// carries X-Session-Ended so the client signs out instead of retrying.
func AuthMiddleware(secret string, revoker auth.Revoker, logoutOnExpired bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyLogoutOnExpired, logoutOnExpired)

		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization format, expected: Bearer <token>",
			})
			return
		}

		claims, err := auth.ParseToken(parts[1], secret)
		if err != nil {
			if apperr.CategoryOf(err) == apperr.CategoryAuthExpired {
				if logoutOnExpired {
					c.Header(HeaderSessionEnded, "true")
				}
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "session expired",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		revoked, err := revoker.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			c.Error(err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "session store unavailable",
			})
			return
		}
		if revoked {
			c.Header(HeaderSessionEnded, "true")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "session ended",
			})
			return
		}

		c.Set(ContextKeyPrincipalID, claims.PrincipalID)
		c.Set(ContextKeyEmail, claims.Email)
		c.Set(ContextKeyTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(ContextKeyTokenExpiry, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

func GetPrincipalID(c *gin.Context) string {
	return c.GetString(ContextKeyPrincipalID)
}

func GetEmail(c *gin.Context) string {
	return c.GetString(ContextKeyEmail)
}

// GetTokenID returns the jti of the current session.
func GetTokenID(c *gin.Context) string {
	return c.GetString(ContextKeyTokenID)
}

func GetTokenExpiry(c *gin.Context) time.Time {
	return c.GetTime(ContextKeyTokenExpiry)
}
