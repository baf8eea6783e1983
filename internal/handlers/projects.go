package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worklog-app/worklog/internal/middleware"
	"github.com/worklog-app/worklog/internal/services"
	appErrors "github.com/worklog-app/worklog/pkg/errors"
	"github.com/worklog-app/worklog/pkg/response"
)

// ProjectHandler exposes project management endpoints.
type ProjectHandler struct {
	projects *services.ProjectService
}

// NewProjectHandler constructs a ProjectHandler.
func NewProjectHandler(projects *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

type createProjectRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description" validate:"omitempty,max=1024"`
}

// POST /api/organizations/:orgID/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	if h.projects == nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	var req createProjectRequest
	if !bindAndValidate(c, &req) {
		return
	}

	userID := c.GetString(middleware.CtxUserIDKey)
	project, err := h.projects.Create(requestContext(c), c.Param("orgID"), req.Name, req.Description, userID)
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusCreated, project)
}

// GET /api/organizations/:orgID/projects
func (h *ProjectHandler) List(c *gin.Context) {
	if h.projects == nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	projects, err := h.projects.List(requestContext(c), c.Param("orgID"))
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}
	if projects == nil {
		projects = []services.ProjectView{}
	}

	response.Success(c, http.StatusOK, gin.H{"projects": projects})
}

// POST /api/organizations/:orgID/projects/:projectID/archive
func (h *ProjectHandler) Archive(c *gin.Context) {
	if h.projects == nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	err := h.projects.Archive(requestContext(c), c.Param("orgID"), c.Param("projectID"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProjectNotFound):
			response.Error(c, appErrors.NewNotFound("Project not found"))
		case errors.Is(err, services.ErrProjectArchived):
			response.Error(c, appErrors.NewConflict("Project is already archived"))
		default:
			response.Error(c, appErrors.ErrInternalServer)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"archived": true})
}
