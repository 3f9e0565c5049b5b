package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/tenant"
)

const (
	ContextKeyTenant = "tenant"
	ContextKeyScope  = "scope"
)

// OrgQueryParam lets a super admin narrow a request to one organization.
const OrgQueryParam = "org"

// TenantMiddleware resolves the profile and organization of the principal
// set by AuthMiddleware. Resolution never fails the request; a missing
// profile leaves the session in StateProfileUnresolved with an empty scope.
func TenantMiddleware(resolver *tenant.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tctx := resolver.Resolve(c.Request.Context(), GetPrincipalID(c))
		scope := tctx.Scope()

		if org := c.Query(OrgQueryParam); org != "" {
			narrowed, err := scope.ForOrganization(org)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
				return
			}
			scope = narrowed
		}

		c.Set(ContextKeyTenant, tctx)
		c.Set(ContextKeyScope, scope)
		c.Next()
	}
}

// GetTenant returns the resolved session, or an anonymous one.
func GetTenant(c *gin.Context) *tenant.Context {
	if v, ok := c.Get(ContextKeyTenant); ok {
		if tctx, ok := v.(*tenant.Context); ok {
			return tctx
		}
	}
	return &tenant.Context{State: tenant.StateAnonymous}
}

// GetScope returns the request's scope. Without TenantMiddleware it is the
// zero Scope, which matches nothing.
func GetScope(c *gin.Context) tenant.Scope {
	if v, ok := c.Get(ContextKeyScope); ok {
		if scope, ok := v.(tenant.Scope); ok {
			return scope
		}
	}
	return tenant.Scope{}
}

// RequireProfile rejects sessions whose profile could not be loaded.
func RequireProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetTenant(c).Profile == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "profile not available"})
			return
		}
		c.Next()
	}
}

// RequireAdmin admits ORG_ADMIN and SUPER_ADMIN.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetTenant(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "administrator role required"})
			return
		}
		c.Next()
	}
}

func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		tctx := GetTenant(c)
		if tctx.Profile == nil || tctx.Profile.Role != models.RoleSuperAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "super administrator role required"})
			return
		}
		c.Next()
	}
}
