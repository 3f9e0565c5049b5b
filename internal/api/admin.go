package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/laimu/erptracker/internal/apperr"
	"github.com/laimu/erptracker/internal/middleware"
	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/repository"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// AdminHandler manages the organization portfolio and user profiles.
type AdminHandler struct {
	orgs     repository.OrganizationRepository
	profiles repository.ProfileRepository
	logger   *zap.Logger
}

func NewAdminHandler(orgs repository.OrganizationRepository, profiles repository.ProfileRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{orgs: orgs, profiles: profiles, logger: logger}
}

type organizationRequest struct {
	Name         *string                `json:"name"`
	ProjectStage *string                `json:"project_stage"`
	HealthStatus *string                `json:"health_status"`
	StartDate    *string                `json:"start_date"`
	TargetGoLive *string                `json:"target_go_live"`
	ActualGoLive *string                `json:"actual_go_live"`
	Branding     *models.BrandingConfig `json:"branding_config"`
	ContactEmail *string                `json:"contact_email"`
}

func (r organizationRequest) toPatch() (repository.OrganizationPatch, error) {
	patch := repository.OrganizationPatch{Branding: r.Branding, ContactEmail: r.ContactEmail}
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return patch, apperr.Validation("name", "name is required")
		}
		patch.Name = &name
	}
	if r.ProjectStage != nil {
		stage, err := parseEnum("project_stage", *r.ProjectStage, models.ParseProjectStage)
		if err != nil {
			return patch, err
		}
		patch.ProjectStage = &stage
	}
	if r.HealthStatus != nil {
		health, err := parseEnum("health_status", *r.HealthStatus, models.ParseHealthStatus)
		if err != nil {
			return patch, err
		}
		patch.HealthStatus = &health
	}

	var err error
	if patch.StartDate, err = parseDate("start_date", r.StartDate); err != nil {
		return patch, err
	}
	if patch.TargetGoLive, err = parseDate("target_go_live", r.TargetGoLive); err != nil {
		return patch, err
	}
	if patch.ActualGoLive, err = parseDate("actual_go_live", r.ActualGoLive); err != nil {
		return patch, err
	}
	return patch, nil
}

func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *raw)
	if err != nil {
		return nil, apperr.Validation(field, "%s must be a date like 2024-01-31", field)
	}
	return &t, nil
}

// ListOrganizations handles GET /v1/admin/organizations
//
// A super admin sees the whole portfolio; an org admin sees only their own
// organization.
func (h *AdminHandler) ListOrganizations(c *gin.Context) {
	scope := middleware.GetScope(c)
	if !scope.Unscoped() {
		org := middleware.GetTenant(c).Organization
		if org == nil || !scope.Allows(&org.ID) {
			c.JSON(http.StatusOK, []models.Organization{})
			return
		}
		c.JSON(http.StatusOK, []models.Organization{*org})
		return
	}

	orgs, err := h.orgs.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, apperr.RemoteRead("list organizations", err))
		return
	}
	c.JSON(http.StatusOK, orgs)
}

// CreateOrganization handles POST /v1/admin/organizations (super admin).
func (h *AdminHandler) CreateOrganization(c *gin.Context) {
	var req organizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == nil {
		respondError(c, h.logger, apperr.Validation("name", "name is required"))
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	org := models.Organization{
		ID:           uuid.NewString(),
		Name:         *patch.Name,
		ProjectStage: models.StagePreKickoff,
		HealthStatus: models.HealthOnTrack,
		StartDate:    patch.StartDate,
		TargetGoLive: patch.TargetGoLive,
		ActualGoLive: patch.ActualGoLive,
	}
	if patch.ProjectStage != nil {
		org.ProjectStage = *patch.ProjectStage
	}
	if patch.HealthStatus != nil {
		org.HealthStatus = *patch.HealthStatus
	}
	if patch.Branding != nil {
		org.Branding = *patch.Branding
	}
	if patch.ContactEmail != nil {
		org.ContactEmail = *patch.ContactEmail
	}

	created, err := h.orgs.Create(c.Request.Context(), org)
	if err != nil {
		respondError(c, h.logger, apperr.RemoteWrite("create organization", err))
		return
	}
	h.logger.Info("organization created", zap.String("org_id", created.ID), zap.String("name", created.Name))
	c.JSON(http.StatusCreated, created)
}

// GetOrganization handles GET /v1/admin/organizations/:id
func (h *AdminHandler) GetOrganization(c *gin.Context) {
	id := c.Param("id")
	if !middleware.GetScope(c).Allows(&id) {
		respondError(c, h.logger, notFound("organization", id))
		return
	}
	org, err := h.orgs.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, apperr.RemoteRead("get organization", err))
		return
	}
	if org == nil {
		respondError(c, h.logger, notFound("organization", id))
		return
	}
	c.JSON(http.StatusOK, org)
}

// UpdateOrganization handles PATCH /v1/admin/organizations/:id. Org admins
// may edit their own organization only.
func (h *AdminHandler) UpdateOrganization(c *gin.Context) {
	id := c.Param("id")
	if !middleware.GetScope(c).Allows(&id) {
		respondError(c, h.logger, apperr.Forbidden("organization %s is outside your scope", id))
		return
	}

	var req organizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	org, err := h.orgs.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.logger, apperr.RemoteWrite("update organization", err))
		return
	}
	if org == nil {
		respondError(c, h.logger, notFound("organization", id))
		return
	}
	c.JSON(http.StatusOK, org)
}

// ListProfiles handles GET /v1/admin/profiles
func (h *AdminHandler) ListProfiles(c *gin.Context) {
	profiles, err := h.profiles.ListByScope(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, h.logger, apperr.RemoteRead("list profiles", err))
		return
	}
	c.JSON(http.StatusOK, profiles)
}

type profileRequest struct {
	FullName          *string `json:"full_name"`
	Role              *string `json:"role"`
	OrganizationID    *string `json:"organization_id"`
	ClearOrganization bool    `json:"clear_organization"`
}

// UpdateProfile handles PATCH /v1/admin/profiles/:id (super admin). It
// assigns roles and organization membership.
func (h *AdminHandler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := repository.ProfilePatch{
		FullName:          req.FullName,
		ClearOrganization: req.ClearOrganization,
	}
	if req.Role != nil {
		role, ok := models.ParseRole(*req.Role)
		if !ok {
			respondError(c, h.logger, apperr.Validation("role", "unknown role %q", *req.Role))
			return
		}
		patch.Role = &role
	}
	if req.OrganizationID != nil && *req.OrganizationID != "" && !req.ClearOrganization {
		org, err := h.orgs.GetByID(c.Request.Context(), *req.OrganizationID)
		if err != nil {
			respondError(c, h.logger, apperr.RemoteRead("get organization", err))
			return
		}
		if org == nil {
			respondError(c, h.logger, apperr.Validation("organization_id", "organization %s does not exist", *req.OrganizationID))
			return
		}
		patch.OrganizationID = &org.ID
	}

	id := c.Param("id")
	profile, err := h.profiles.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.logger, apperr.RemoteWrite("update profile", err))
		return
	}
	if profile == nil {
		respondError(c, h.logger, notFound("profile", id))
		return
	}
	h.logger.Info("profile updated",
		zap.String("profile_id", id),
		zap.String("role", string(profile.Role)),
		zap.String("by", middleware.GetPrincipalID(c)),
	)
	c.JSON(http.StatusOK, profile)
}
