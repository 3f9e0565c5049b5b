package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/laimu/erptracker/internal/apperr"
	"github.com/laimu/erptracker/internal/middleware"
	"github.com/laimu/erptracker/internal/portal"
	"github.com/laimu/erptracker/internal/repository"
	"github.com/laimu/erptracker/internal/tenant"
	"go.uber.org/zap"
)

// respondError writes err as {"error": ...}. Internal errors are logged and
// replaced with a generic message; categorized errors keep their text.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, repository.ErrOutOfScope):
		c.JSON(http.StatusForbidden, gin.H{"error": "record belongs to another organization"})
		return
	case errors.Is(err, portal.ErrNothingSelected):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	// A store that rejected the credential outranks the remote failure
	// wrapped around it.
	if apperr.CategoryOf(err) != apperr.CategoryAuthExpired && apperr.IsAuthExpired(err) {
		err = apperr.AuthExpired("session rejected by the store")
	}

	status := apperr.HTTPStatus(err)
	body := gin.H{"error": err.Error()}

	switch apperr.CategoryOf(err) {
	case apperr.CategoryValidation:
		body["field"] = apperr.FieldOf(err)
	case apperr.CategoryAuthExpired:
		if c.GetBool(middleware.ContextKeyLogoutOnExpired) {
			c.Header(middleware.HeaderSessionEnded, "true")
		}
	case apperr.CategoryRemoteRead, apperr.CategoryRemoteWrite:
		logger.Error("store operation failed", zap.String("path", c.FullPath()), zap.Error(err))
		body["error"] = "the store could not complete the request, please retry"
	case "":
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		body["error"] = "internal error"
	}
	c.JSON(status, body)
}

// actorName is how the signed-in user appears on records they create.
func actorName(c *gin.Context) string {
	if p := middleware.GetTenant(c).Profile; p != nil && p.FullName != "" {
		return p.FullName
	}
	if email := middleware.GetEmail(c); email != "" {
		return email
	}
	return "Unknown"
}

// targetOrganization picks the organization a new record belongs to. A
// scoped session always writes to its own tenant. An unscoped super admin
// writes to requested, or global content when allowGlobal is set.
func targetOrganization(scope tenant.Scope, requested *string, allowGlobal bool) (*string, error) {
	if org := scope.OrganizationID(); org != nil {
		return org, nil
	}
	if !scope.Unscoped() {
		return nil, apperr.Forbidden("your profile is not assigned to an organization")
	}
	if requested != nil && *requested != "" {
		return requested, nil
	}
	if allowGlobal {
		return nil, nil
	}
	return nil, apperr.Validation("organization_id", "select an organization")
}

func notFound(what, id string) error {
	return apperr.NotFound("%s %s not found", what, id)
}

// parseEnum runs parse on raw and reports an unknown value as a validation
// error on field. An empty raw value yields the enum default.
func parseEnum[T ~string](field, raw string, parse func(string) (T, bool)) (T, error) {
	v, ok := parse(raw)
	if !ok && raw != "" {
		return v, apperr.Validation(field, "unknown %s %q", field, raw)
	}
	return v, nil
}
