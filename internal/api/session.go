package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/laimu/erptracker/internal/middleware"
	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/portal"
	"github.com/laimu/erptracker/internal/tenant"
	"go.uber.org/zap"
)

type SessionHandler struct {
	loader *portal.Loader
	logger *zap.Logger
}

func NewSessionHandler(loader *portal.Loader, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{loader: loader, logger: logger}
}

type sessionResponse struct {
	State        tenant.State         `json:"state"`
	PrincipalID  string               `json:"principal_id"`
	Email        string               `json:"email"`
	Profile      *models.Profile      `json:"profile"`
	Organization *models.Organization `json:"organization"`
	IsAdmin      bool                 `json:"is_admin"`
	IsClient     bool                 `json:"is_client"`
	LandingView  tenant.View          `json:"landing_view"`
}

// Get handles GET /v1/session
//
// A session whose profile could not be loaded still answers 200 with
// state "profile_unresolved", so the client can show a degraded view.
func (h *SessionHandler) Get(c *gin.Context) {
	tctx := middleware.GetTenant(c)
	c.JSON(http.StatusOK, sessionResponse{
		State:        tctx.State,
		PrincipalID:  tctx.PrincipalID,
		Email:        middleware.GetEmail(c),
		Profile:      tctx.Profile,
		Organization: tctx.Organization,
		IsAdmin:      tctx.IsAdmin(),
		IsClient:     tctx.IsClient(),
		LandingView:  tctx.LandingView(),
	})
}

// Bootstrap handles GET /v1/bootstrap
//
// It returns every collection the portal renders. Collections that failed
// to load are empty and listed under "failures"; the response is still 200.
func (h *SessionHandler) Bootstrap(c *gin.Context) {
	snap, err := h.loader.Load(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
