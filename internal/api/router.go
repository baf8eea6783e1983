package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/worklog-app/worklog/internal/app"
	iauth "github.com/worklog-app/worklog/internal/auth"
	"github.com/worklog-app/worklog/internal/handlers"
	"github.com/worklog-app/worklog/internal/middleware"
	"github.com/worklog-app/worklog/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	auditSvc, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	userSvc, err := services.NewUserService(db, auditSvc)
	if err != nil {
		return nil, err
	}
	orgSvc, err := services.NewOrganizationService(db, auditSvc)
	if err != nil {
		return nil, err
	}
	inviteSvc, err := services.NewInvitationService(db, auditSvc)
	if err != nil {
		return nil, err
	}
	projectSvc, err := services.NewProjectService(db, auditSvc)
	if err != nil {
		return nil, err
	}
	entrySvc, err := services.NewTimeEntryService(db, projectSvc, auditSvc)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	r.Use(middleware.QueryTimeout(cfg.Server.QueryTimeout))

	// Health endpoint (public)
	r.GET("/health", handlers.Health())

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(userSvc, jwt)
	orgHandler := handlers.NewOrganizationHandler(orgSvc, inviteSvc)
	projectHandler := handlers.NewProjectHandler(projectSvc)
	entryHandler := handlers.NewTimeEntryHandler(entrySvc)

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/check-email", authHandler.CheckEmail)
	}

	requireAuth := middleware.Auth(jwt)
	requireMember := middleware.RequireOrgMember(orgSvc)
	requireAdmin := middleware.RequireOrgAdmin(orgSvc)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.POST("/organizations", orgHandler.Create)
	api.POST("/invitations/accept", orgHandler.AcceptInvitation)

	orgs := api.Group("/organizations/:orgID")
	{
		orgs.POST("/join", orgHandler.Join)

		orgs.GET("/members", requireMember, orgHandler.Members)
		orgs.POST("/members/:memberID/approve", requireAdmin, orgHandler.ApproveMember)
		orgs.POST("/members/:memberID/deactivate", requireAdmin, orgHandler.DeactivateMember)
		orgs.POST("/invite", requireAdmin, orgHandler.Invite)

		orgs.GET("/projects", requireMember, projectHandler.List)
		orgs.POST("/projects", requireAdmin, projectHandler.Create)
		orgs.POST("/projects/:projectID/archive", requireAdmin, projectHandler.Archive)

		orgs.GET("/time-entries", requireMember, entryHandler.List)
		orgs.POST("/time-entries", requireMember, entryHandler.Create)
		orgs.PUT("/time-entries/:entryID", requireMember, entryHandler.Update)
		orgs.DELETE("/time-entries/:entryID", requireMember, entryHandler.Delete)

		orgs.GET("/stats", requireAdmin, entryHandler.Stats)
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
