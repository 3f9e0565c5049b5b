package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/laimu/erptracker/internal/apperr"
	"github.com/laimu/erptracker/internal/auth"
	"github.com/laimu/erptracker/internal/middleware"
	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/repository"
	"go.uber.org/zap"
)

// DirectoryHandler serves the back-office user directory. Entries are
// contact records for the people on a project; adding one creates no login.
type DirectoryHandler struct {
	users   repository.UserDirectoryRepository
	pending pendingDeletes
	logger  *zap.Logger
}

func NewDirectoryHandler(users repository.UserDirectoryRepository, selections auth.Selections, logger *zap.Logger) *DirectoryHandler {
	return &DirectoryHandler{users: users, pending: newPendingDeletes(selections, logger), logger: logger}
}

type createUserRequest struct {
	OrganizationID *string `json:"organization_id"`
	Name           string  `json:"name" binding:"required"`
	Email          string  `json:"email" binding:"required,email"`
	Role           string  `json:"role"`
	Department     string  `json:"department"`
	JobTitle       string  `json:"job_title"`
	Phone          string  `json:"phone"`
}

// List handles GET /v1/admin/users
func (h *DirectoryHandler) List(c *gin.Context) {
	users, err := h.users.ListByScope(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, h.logger, apperr.RemoteRead("list directory users", err))
		return
	}
	c.JSON(http.StatusOK, users)
}

// Create handles POST /v1/admin/users. Role defaults to USER and
// department to GENERAL.
func (h *DirectoryHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(c, h.logger, apperr.Validation("name", "name is required"))
		return
	}
	role, err := parseEnum("role", req.Role, models.ParseDirectoryRole)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dept, err := parseEnum("department", req.Department, models.ParseDepartment)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	orgID, err := targetOrganization(middleware.GetScope(c), req.OrganizationID, false)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	user := models.DirectoryUser{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Name:           name,
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Role:           role,
		Department:     dept,
		JobTitle:       strings.TrimSpace(req.JobTitle),
		Phone:          strings.TrimSpace(req.Phone),
	}
	if err := h.users.Insert(c.Request.Context(), user); err != nil {
		respondError(c, h.logger, apperr.RemoteWrite("create directory user", err))
		return
	}
	h.logger.Info("directory user added", zap.String("user_id", user.ID), zap.String("department", string(dept)))
	c.JSON(http.StatusCreated, user)
}

// RequestDelete handles POST /v1/admin/users/:id/delete-request
func (h *DirectoryHandler) RequestDelete(c *gin.Context) {
	id := c.Param("id")
	user, err := h.users.GetByID(c.Request.Context(), middleware.GetScope(c), id)
	if err != nil {
		respondError(c, h.logger, apperr.RemoteRead("get directory user", err))
		return
	}
	if user == nil {
		respondError(c, h.logger, notFound("user", id))
		return
	}
	h.pending.request(c, selectUser, user.ID)
}

// ConfirmDelete handles POST /v1/admin/users/delete/confirm
func (h *DirectoryHandler) ConfirmDelete(c *gin.Context) {
	h.pending.confirm(c, selectUser, scopedDeleter(middleware.GetScope(c), "user", h.users.Delete))
}

// CancelDelete handles POST /v1/admin/users/delete/cancel
func (h *DirectoryHandler) CancelDelete(c *gin.Context) {
	h.pending.cancel(c, selectUser)
}
