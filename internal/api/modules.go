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

// ModuleHandler serves ERP modules and the implementation timeline. Both
// are read by every role and written by administrators.
type ModuleHandler struct {
	modules  repository.ModuleRepository
	timeline repository.TimelineRepository
	pending  pendingDeletes
	logger   *zap.Logger
}

func NewModuleHandler(modules repository.ModuleRepository, timeline repository.TimelineRepository, selections auth.Selections, logger *zap.Logger) *ModuleHandler {
	return &ModuleHandler{modules: modules, timeline: timeline, pending: newPendingDeletes(selections, logger), logger: logger}
}

type featureRequest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type saveModuleRequest struct {
	OrganizationID *string          `json:"organization_id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	Status         string           `json:"status"`
	Icon           string           `json:"icon"`
	Owner          string           `json:"owner"`
	Responsibles   string           `json:"responsibles"`
	Progress       int              `json:"progress"`
	Features       []featureRequest `json:"features"`
}

func (r saveModuleRequest) toModule(id string) (models.Module, error) {
	m := models.Module{
		ID:           id,
		Name:         strings.TrimSpace(r.Name),
		Description:  r.Description,
		Icon:         r.Icon,
		Owner:        r.Owner,
		Responsibles: r.Responsibles,
		Progress:     r.Progress,
		Features:     make([]models.Feature, 0, len(r.Features)),
	}
	if m.Name == "" {
		return m, apperr.Validation("name", "name is required")
	}
	if m.Progress < 0 || m.Progress > 100 {
		return m, apperr.Validation("progress", "progress must be between 0 and 100")
	}
	status, err := parseEnum("status", r.Status, models.ParseStatus)
	if err != nil {
		return m, err
	}
	m.Status = status

	for i, f := range r.Features {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return m, apperr.Validation("features", "feature %d has no name", i+1)
		}
		fs, err := parseEnum("features", f.Status, models.ParseStatus)
		if err != nil {
			return m, err
		}
		m.Features = append(m.Features, models.Feature{Name: name, Status: fs})
	}
	return m, nil
}

// ListModules handles GET /v1/modules
func (h *ModuleHandler) ListModules(c *gin.Context) {
	modules, err := h.modules.ListByScope(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, h.logger, apperr.RemoteRead("list modules", err))
		return
	}
	c.JSON(http.StatusOK, modules)
}

// SaveModule handles PUT /v1/modules/:id
//
// The module is upserted and its feature list replaced. If the feature
// write fails the module is kept without features and the call reports a
// write failure.
func (h *ModuleHandler) SaveModule(c *gin.Context) {
	var req saveModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scope := middleware.GetScope(c)
	id := c.Param("id")
	m, err := req.toModule(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	existing, err := h.modules.GetByID(c.Request.Context(), scope, id)
	if err != nil {
		respondError(c, h.logger, apperr.RemoteRead("get module", err))
		return
	}
	if existing != nil {
		m.OrganizationID = existing.OrganizationID
	} else if m.OrganizationID, err = targetOrganization(scope, req.OrganizationID, false); err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.modules.Save(c.Request.Context(), scope, m); err != nil {
		respondError(c, h.logger, apperr.RemoteWrite("save module", err))
		return
	}
	h.logger.Info("module saved", zap.String("module_id", id), zap.Int("features", len(m.Features)))
	c.JSON(http.StatusOK, m)
}

// RequestModuleDelete handles POST /v1/modules/:id/delete-request
func (h *ModuleHandler) RequestModuleDelete(c *gin.Context) {
	id := c.Param("id")
	m, err := h.modules.GetByID(c.Request.Context(), middleware.GetScope(c), id)
	if err != nil {
		respondError(c, h.logger, apperr.RemoteRead("get module", err))
		return
	}
	if m == nil {
		respondError(c, h.logger, notFound("module", id))
		return
	}
	h.pending.request(c, selectModule, m.ID)
}

// ConfirmModuleDelete handles POST /v1/modules/delete/confirm. Features go
// with the module.
func (h *ModuleHandler) ConfirmModuleDelete(c *gin.Context) {
	h.pending.confirm(c, selectModule, scopedDeleter(middleware.GetScope(c), "module", h.modules.Delete))
}

// CancelModuleDelete handles POST /v1/modules/delete/cancel
func (h *ModuleHandler) CancelModuleDelete(c *gin.Context) {
	h.pending.cancel(c, selectModule)
}

type taskRequest struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Week   string `json:"week"`
}

type saveEventRequest struct {
	OrganizationID  *string       `json:"organization_id"`
	Phase           string        `json:"phase"`
	Date            string        `json:"date"`
	Status          string        `json:"status"`
	Description     string        `json:"description"`
	ModulesIncluded []string      `json:"modules_included"`
	Tasks           []taskRequest `json:"tasks"`
}

func (r saveEventRequest) toEvent(id string) (models.TimelineEvent, error) {
	e := models.TimelineEvent{
		ID:              id,
		Phase:           strings.TrimSpace(r.Phase),
		Date:            r.Date,
		Description:     r.Description,
		ModulesIncluded: r.ModulesIncluded,
		Tasks:           make([]models.Task, 0, len(r.Tasks)),
	}
	if e.ModulesIncluded == nil {
		e.ModulesIncluded = []string{}
	}
	if e.Phase == "" {
		return e, apperr.Validation("phase", "phase is required")
	}
	status, err := parseEnum("status", r.Status, models.ParseStatus)
	if err != nil {
		return e, err
	}
	e.Status = status

	for i, t := range r.Tasks {
		title := strings.TrimSpace(t.Title)
		if title == "" {
			return e, apperr.Validation("tasks", "task %d has no title", i+1)
		}
		ts, err := parseEnum("tasks", t.Status, models.ParseStatus)
		if err != nil {
			return e, err
		}
		taskID := t.ID
		if taskID == "" {
			taskID = uuid.NewString()
		}
		e.Tasks = append(e.Tasks, models.Task{ID: taskID, Title: title, Status: ts, Week: t.Week})
	}
	return e, nil
}

// ListTimeline handles GET /v1/timeline
func (h *ModuleHandler) ListTimeline(c *gin.Context) {
	events, err := h.timeline.ListByScope(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, h.logger, apperr.RemoteRead("list timeline", err))
		return
	}
	c.JSON(http.StatusOK, events)
}

// SaveEvent handles PUT /v1/timeline/:id
func (h *ModuleHandler) SaveEvent(c *gin.Context) {
	var req saveEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scope := middleware.GetScope(c)
	id := c.Param("id")
	e, err := req.toEvent(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	existing, err := h.timeline.GetByID(c.Request.Context(), scope, id)
	if err != nil {
		respondError(c, h.logger, apperr.RemoteRead("get timeline event", err))
		return
	}
	if existing != nil {
		e.OrganizationID = existing.OrganizationID
	} else if e.OrganizationID, err = targetOrganization(scope, req.OrganizationID, false); err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.timeline.Save(c.Request.Context(), scope, e); err != nil {
		respondError(c, h.logger, apperr.RemoteWrite("save timeline event", err))
		return
	}
	c.JSON(http.StatusOK, e)
}

// RequestEventDelete handles POST /v1/timeline/:id/delete-request
func (h *ModuleHandler) RequestEventDelete(c *gin.Context) {
	id := c.Param("id")
	e, err := h.timeline.GetByID(c.Request.Context(), middleware.GetScope(c), id)
	if err != nil {
		respondError(c, h.logger, apperr.RemoteRead("get timeline event", err))
		return
	}
	if e == nil {
		respondError(c, h.logger, notFound("timeline event", id))
		return
	}
	h.pending.request(c, selectTimeline, e.ID)
}

// ConfirmEventDelete handles POST /v1/timeline/delete/confirm
func (h *ModuleHandler) ConfirmEventDelete(c *gin.Context) {
	h.pending.confirm(c, selectTimeline, scopedDeleter(middleware.GetScope(c), "timeline event", h.timeline.Delete))
}

// CancelEventDelete handles POST /v1/timeline/delete/cancel
func (h *ModuleHandler) CancelEventDelete(c *gin.Context) {
	h.pending.cancel(c, selectTimeline)
}
