package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/laimu/erptracker/internal/apperr"
	"github.com/laimu/erptracker/internal/middleware"
	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/repository"
	"go.uber.org/zap"
)

// ContentHandler serves help content (FAQs, tutorials) and custom
// development requests. FAQs and tutorials without an organization are
// shown to every tenant.
type ContentHandler struct {
	faqs      repository.FaqRepository
	tutorials repository.TutorialRepository
	devs      repository.CustomDevelopmentRepository
	logger    *zap.Logger
}

func NewContentHandler(
	faqs repository.FaqRepository,
	tutorials repository.TutorialRepository,
	devs repository.CustomDevelopmentRepository,
	logger *zap.Logger,
) *ContentHandler {
	return &ContentHandler{faqs: faqs, tutorials: tutorials, devs: devs, logger: logger}
}

type createFaqRequest struct {
	OrganizationID *string `json:"organization_id"`
	Question       string  `json:"question"`
	Answer         string  `json:"answer"`
	Category       string  `json:"category"`
}

type createTutorialRequest struct {
	OrganizationID *string `json:"organization_id"`
	Title          string  `json:"title"`
	Duration       string  `json:"duration"`
	Type           string  `json:"type"`
	ThumbnailColor string  `json:"thumbnail_color"`
}

type createDevelopmentRequest struct {
	OrganizationID *string `json:"organization_id"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Status         string  `json:"status"`
	DeliveryDate   string  `json:"delivery_date"`
}

// ListFaqs handles GET /v1/faqs
func (h *ContentHandler) ListFaqs(c *gin.Context) {
	items, err := h.faqs.ListByScope(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, h.logger, apperr.RemoteRead("list faqs", err))
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateFaq handles POST /v1/faqs
func (h *ContentHandler) CreateFaq(c *gin.Context) {
	var req createFaqRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respondError(c, h.logger, apperr.Validation("question", "question is required"))
		return
	}
	if strings.TrimSpace(req.Answer) == "" {
		respondError(c, h.logger, apperr.Validation("answer", "answer is required"))
		return
	}

	orgID, err := targetOrganization(middleware.GetScope(c), req.OrganizationID, true)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	item := models.FaqItem{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Question:       strings.TrimSpace(req.Question),
		Answer:         req.Answer,
		Category:       req.Category,
	}
	if err := h.faqs.Insert(c.Request.Context(), item); err != nil {
		respondError(c, h.logger, apperr.RemoteWrite("create faq", err))
		return
	}
	c.JSON(http.StatusCreated, item)
}

// DeleteFaq handles DELETE /v1/faqs/:id
func (h *ContentHandler) DeleteFaq(c *gin.Context) {
	h.delete(c, "faq", h.faqs.Delete)
}

// ListTutorials handles GET /v1/tutorials
func (h *ContentHandler) ListTutorials(c *gin.Context) {
	items, err := h.tutorials.ListByScope(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, h.logger, apperr.RemoteRead("list tutorials", err))
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateTutorial handles POST /v1/tutorials
func (h *ContentHandler) CreateTutorial(c *gin.Context) {
	var req createTutorialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondError(c, h.logger, apperr.Validation("title", "title is required"))
		return
	}
	kind, err := parseEnum("type", req.Type, models.ParseTutorialType)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	orgID, err := targetOrganization(middleware.GetScope(c), req.OrganizationID, true)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	item := models.TutorialItem{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Title:          strings.TrimSpace(req.Title),
		Duration:       req.Duration,
		Type:           kind,
		ThumbnailColor: req.ThumbnailColor,
	}
	if err := h.tutorials.Insert(c.Request.Context(), item); err != nil {
		respondError(c, h.logger, apperr.RemoteWrite("create tutorial", err))
		return
	}
	c.JSON(http.StatusCreated, item)
}

// DeleteTutorial handles DELETE /v1/tutorials/:id
func (h *ContentHandler) DeleteTutorial(c *gin.Context) {
	h.delete(c, "tutorial", h.tutorials.Delete)
}

// ListDevelopments handles GET /v1/developments
func (h *ContentHandler) ListDevelopments(c *gin.Context) {
	items, err := h.devs.ListByScope(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, h.logger, apperr.RemoteRead("list custom developments", err))
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateDevelopment handles POST /v1/developments. The requester is the
// signed-in user.
func (h *ContentHandler) CreateDevelopment(c *gin.Context) {
	var req createDevelopmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondError(c, h.logger, apperr.Validation("title", "title is required"))
		return
	}
	status, err := parseEnum("status", req.Status, models.ParseStatus)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	orgID, err := targetOrganization(middleware.GetScope(c), req.OrganizationID, false)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dev := models.CustomDevelopment{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		RequestedBy:    actorName(c),
		Status:         status,
		DeliveryDate:   req.DeliveryDate,
	}
	if err := h.devs.Insert(c.Request.Context(), dev); err != nil {
		respondError(c, h.logger, apperr.RemoteWrite("create custom development", err))
		return
	}
	c.JSON(http.StatusCreated, dev)
}

// DeleteDevelopment handles DELETE /v1/developments/:id
func (h *ContentHandler) DeleteDevelopment(c *gin.Context) {
	h.delete(c, "custom development", h.devs.Delete)
}

func (h *ContentHandler) delete(c *gin.Context, what string, del scopedDelete) {
	if err := scopedDeleter(middleware.GetScope(c), what, del)(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
