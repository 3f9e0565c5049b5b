package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/laimu/erptracker/internal/apperr"
	"github.com/laimu/erptracker/internal/auth"
	"github.com/laimu/erptracker/internal/middleware"
	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/portal"
	"github.com/laimu/erptracker/internal/repository"
	"go.uber.org/zap"
)

type ActionHandler struct {
	actions repository.ActionItemRepository
	pending pendingDeletes
	logger  *zap.Logger
}

func NewActionHandler(actions repository.ActionItemRepository, selections auth.Selections, logger *zap.Logger) *ActionHandler {
	return &ActionHandler{actions: actions, pending: newPendingDeletes(selections, logger), logger: logger}
}

type createActionRequest struct {
	portal.NewActionItem
	OrganizationID *string `json:"organization_id"`
}

// List handles GET /v1/actions
func (h *ActionHandler) List(c *gin.Context) {
	items, err := h.actions.ListByScope(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, h.logger, apperr.RemoteRead("list action items", err))
		return
	}
	c.JSON(http.StatusOK, items)
}

// Create handles POST /v1/actions. New items start PENDING.
func (h *ActionHandler) Create(c *gin.Context) {
	var req createActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := portal.ValidateActionItem(req.NewActionItem); err != nil {
		respondError(c, h.logger, err)
		return
	}

	orgID, err := targetOrganization(middleware.GetScope(c), req.OrganizationID, false)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	item := models.ActionItem{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Task:           req.Task,
		AssignedTo:     req.AssignedTo,
		DueDate:        req.DueDate,
		IsCritical:     req.IsCritical,
		Status:         models.ActionPending,
	}
	if err := h.actions.Insert(c.Request.Context(), item); err != nil {
		respondError(c, h.logger, apperr.RemoteWrite("create action item", err))
		return
	}
	c.JSON(http.StatusCreated, item)
}

// Toggle handles POST /v1/actions/:id/toggle and flips PENDING and
// COMPLETED.
func (h *ActionHandler) Toggle(c *gin.Context) {
	scope := middleware.GetScope(c)
	id := c.Param("id")

	item, err := h.actions.GetByID(c.Request.Context(), scope, id)
	if err != nil {
		respondError(c, h.logger, apperr.RemoteRead("get action item", err))
		return
	}
	if item == nil {
		respondError(c, h.logger, notFound("action item", id))
		return
	}

	next := item.Status.Toggled()
	found, err := h.actions.SetStatus(c.Request.Context(), scope, id, next)
	if err != nil {
		respondError(c, h.logger, apperr.RemoteWrite("toggle action item", err))
		return
	}
	if !found {
		respondError(c, h.logger, notFound("action item", id))
		return
	}
	item.Status = next
	c.JSON(http.StatusOK, item)
}

// RequestDelete handles POST /v1/actions/:id/delete-request
func (h *ActionHandler) RequestDelete(c *gin.Context) {
	id := c.Param("id")
	item, err := h.actions.GetByID(c.Request.Context(), middleware.GetScope(c), id)
	if err != nil {
		respondError(c, h.logger, apperr.RemoteRead("get action item", err))
		return
	}
	if item == nil {
		respondError(c, h.logger, notFound("action item", id))
		return
	}
	h.pending.request(c, selectAction, item.ID)
}

// ConfirmDelete handles POST /v1/actions/delete/confirm
func (h *ActionHandler) ConfirmDelete(c *gin.Context) {
	h.pending.confirm(c, selectAction, scopedDeleter(middleware.GetScope(c), "action item", h.actions.Delete))
}

// CancelDelete handles POST /v1/actions/delete/cancel
func (h *ActionHandler) CancelDelete(c *gin.Context) {
	h.pending.cancel(c, selectAction)
}
