package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/laimu/erptracker/internal/auth"
	"github.com/laimu/erptracker/internal/clock"
	"github.com/laimu/erptracker/internal/middleware"
	"github.com/laimu/erptracker/internal/observ"
	"github.com/laimu/erptracker/internal/portal"
	"github.com/laimu/erptracker/internal/repository"
	"github.com/laimu/erptracker/internal/tenant"
	"github.com/laimu/erptracker/internal/ticket"
	"go.uber.org/zap"
)

// Stores is the full set of repositories behind the HTTP surface.
type Stores struct {
	portal.Sources
	Organizations repository.OrganizationRepository
	Credentials   repository.CredentialRepository
}

// Sessions tracks revoked tokens and pending delete selections.
type Sessions interface {
	auth.Revoker
	auth.Selections
}

type RouterConfig struct {
	Stores   Stores
	Sessions Sessions

	JWTSecret           string
	TokenTTL            time.Duration
	RemoteTimeout       time.Duration
	LogoutOnAuthExpired bool

	Clock  clock.Clock
	Logger *zap.Logger
}

// NewRouter wires services and handlers and registers every route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	st := cfg.Stores

	resolver := tenant.NewResolver(st.Profiles, st.Organizations, logger)
	tickets := ticket.NewService(st.Tickets, st.Modules, cfg.Clock, logger)
	loader := portal.NewLoader(st.Sources, logger)

	authHandler := NewAuthHandler(st.Credentials, cfg.Sessions, cfg.JWTSecret, cfg.TokenTTL, logger)
	sessionHandler := NewSessionHandler(loader, logger)
	ticketHandler := NewTicketHandler(tickets, cfg.Sessions, logger)
	moduleHandler := NewModuleHandler(st.Modules, st.Timeline, cfg.Sessions, logger)
	actionHandler := NewActionHandler(st.Actions, cfg.Sessions, logger)
	contentHandler := NewContentHandler(st.Faqs, st.Tutorials, st.CustomDevelopments, logger)
	notificationHandler := NewNotificationHandler(st.Notifications, logger)
	adminHandler := NewAdminHandler(st.Organizations, st.Profiles, logger)
	directoryHandler := NewDirectoryHandler(st.Users, cfg.Sessions, logger)

	r := gin.New()
	r.Use(middleware.RequestID(), observ.GinLogger(logger), gin.Recovery())
	if cfg.RemoteTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RemoteTimeout))
	}

	// Public.
	r.GET("/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/v1/auth/signup", authHandler.Signup)
	r.POST("/v1/auth/login", authHandler.Login)

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret, cfg.Sessions, cfg.LogoutOnAuthExpired))
	v1.POST("/auth/logout", authHandler.Logout)

	v1.Use(middleware.TenantMiddleware(resolver))
	v1.GET("/session", sessionHandler.Get)

	// Everything below needs a resolved profile.
	app := v1.Group("")
	app.Use(middleware.RequireProfile())
	admin := middleware.RequireAdmin()
	super := middleware.RequireSuperAdmin()

	app.GET("/bootstrap", sessionHandler.Bootstrap)

	app.GET("/tickets", ticketHandler.List)
	app.POST("/tickets", ticketHandler.Create)
	app.GET("/tickets/:id", ticketHandler.Get)
	app.POST("/tickets/:id/status", admin, ticketHandler.ChangeStatus)
	app.POST("/tickets/:id/comments", ticketHandler.AddComment)
	app.POST("/tickets/:id/delete-request", admin, ticketHandler.RequestDelete)
	app.POST("/tickets/delete/confirm", admin, ticketHandler.ConfirmDelete)
	app.POST("/tickets/delete/cancel", ticketHandler.CancelDelete)

	app.GET("/modules", moduleHandler.ListModules)
	app.PUT("/modules/:id", admin, moduleHandler.SaveModule)
	app.POST("/modules/:id/delete-request", admin, moduleHandler.RequestModuleDelete)
	app.POST("/modules/delete/confirm", admin, moduleHandler.ConfirmModuleDelete)
	app.POST("/modules/delete/cancel", moduleHandler.CancelModuleDelete)
	app.GET("/timeline", moduleHandler.ListTimeline)
	app.PUT("/timeline/:id", admin, moduleHandler.SaveEvent)
	app.POST("/timeline/:id/delete-request", admin, moduleHandler.RequestEventDelete)
	app.POST("/timeline/delete/confirm", admin, moduleHandler.ConfirmEventDelete)
	app.POST("/timeline/delete/cancel", moduleHandler.CancelEventDelete)

	app.GET("/actions", actionHandler.List)
	app.POST("/actions", actionHandler.Create)
	app.POST("/actions/:id/toggle", actionHandler.Toggle)
	app.POST("/actions/:id/delete-request", actionHandler.RequestDelete)
	app.POST("/actions/delete/confirm", actionHandler.ConfirmDelete)
	app.POST("/actions/delete/cancel", actionHandler.CancelDelete)

	app.GET("/faqs", contentHandler.ListFaqs)
	app.POST("/faqs", admin, contentHandler.CreateFaq)
	app.DELETE("/faqs/:id", admin, contentHandler.DeleteFaq)
	app.GET("/tutorials", contentHandler.ListTutorials)
	app.POST("/tutorials", admin, contentHandler.CreateTutorial)
	app.DELETE("/tutorials/:id", admin, contentHandler.DeleteTutorial)
	app.GET("/developments", contentHandler.ListDevelopments)
	app.POST("/developments", admin, contentHandler.CreateDevelopment)
	app.DELETE("/developments/:id", admin, contentHandler.DeleteDevelopment)

	app.GET("/notifications", notificationHandler.List)
	app.POST("/notifications/:id/read", notificationHandler.MarkRead)
	app.DELETE("/notifications/:id", notificationHandler.Delete)

	app.GET("/admin/organizations", admin, adminHandler.ListOrganizations)
	app.POST("/admin/organizations", super, adminHandler.CreateOrganization)
	app.GET("/admin/organizations/:id", admin, adminHandler.GetOrganization)
	app.PATCH("/admin/organizations/:id", admin, adminHandler.UpdateOrganization)
	app.GET("/admin/profiles", admin, adminHandler.ListProfiles)
	app.PATCH("/admin/profiles/:id", super, adminHandler.UpdateProfile)

	app.GET("/admin/users", admin, directoryHandler.List)
	app.POST("/admin/users", admin, directoryHandler.Create)
	app.POST("/admin/users/:id/delete-request", admin, directoryHandler.RequestDelete)
	app.POST("/admin/users/delete/confirm", admin, directoryHandler.ConfirmDelete)
	app.POST("/admin/users/delete/cancel", admin, directoryHandler.CancelDelete)

	return r
}
