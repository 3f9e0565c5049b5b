package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/laimu/erptracker/internal/auth"
	"github.com/laimu/erptracker/internal/middleware"
	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/ticket"
	"go.uber.org/zap"
)

type TicketHandler struct {
	svc     *ticket.Service
	pending pendingDeletes
	logger  *zap.Logger
}

func NewTicketHandler(svc *ticket.Service, selections auth.Selections, logger *zap.Logger) *TicketHandler {
	return &TicketHandler{svc: svc, pending: newPendingDeletes(selections, logger), logger: logger}
}

// List handles GET /v1/tickets?q=...&module=...
//
// q matches title, id or module name, case-insensitively. module narrows
// to one module id.
func (h *TicketHandler) List(c *gin.Context) {
	tickets, err := h.svc.List(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ticket.Filter(tickets, c.Query("q"), c.Query("module")))
}

// Create handles POST /v1/tickets
func (h *TicketHandler) Create(c *gin.Context) {
	var req ticket.NewTicket
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.svc.Create(c.Request.Context(), middleware.GetScope(c), actorName(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// Get handles GET /v1/tickets/:id
func (h *TicketHandler) Get(c *gin.Context) {
	t, err := h.svc.Get(c.Request.Context(), middleware.GetScope(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ChangeStatus handles POST /v1/tickets/:id/status (administrators only).
func (h *TicketHandler) ChangeStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.svc.ChangeStatus(c.Request.Context(), middleware.GetScope(c), actorName(c), c.Param("id"), models.TicketStatus(req.Status))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type commentRequest struct {
	Message string `json:"message"`
}

// AddComment handles POST /v1/tickets/:id/comments
func (h *TicketHandler) AddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.svc.AddComment(c.Request.Context(), middleware.GetScope(c), actorName(c), c.Param("id"), req.Message)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// RequestDelete handles POST /v1/tickets/:id/delete-request
//
// It only records the selection. Nothing is deleted until the same session
// confirms; a newer request replaces the pending one.
func (h *TicketHandler) RequestDelete(c *gin.Context) {
	t, err := h.svc.Get(c.Request.Context(), middleware.GetScope(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.pending.request(c, selectTicket, t.ID)
}

// ConfirmDelete handles POST /v1/tickets/delete/confirm
func (h *TicketHandler) ConfirmDelete(c *gin.Context) {
	scope := middleware.GetScope(c)
	h.pending.confirm(c, selectTicket, func(ctx context.Context, id string) error {
		return h.svc.Delete(ctx, scope, id)
	})
}

// CancelDelete handles POST /v1/tickets/delete/cancel
func (h *TicketHandler) CancelDelete(c *gin.Context) {
	h.pending.cancel(c, selectTicket)
}
