package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worklog-app/worklog/internal/middleware"
	"github.com/worklog-app/worklog/internal/models"
	"github.com/worklog-app/worklog/internal/services"
	appErrors "github.com/worklog-app/worklog/pkg/errors"
	"github.com/worklog-app/worklog/pkg/response"
)

// TimeEntryHandler exposes time entry CRUD and aggregate statistics.
type TimeEntryHandler struct {
	entries *services.TimeEntryService
}

// NewTimeEntryHandler constructs a TimeEntryHandler.
func NewTimeEntryHandler(entries *services.TimeEntryService) *TimeEntryHandler {
	return &TimeEntryHandler{entries: entries}
}

type createTimeEntryRequest struct {
	ProjectID string  `json:"project_id" validate:"required,uuid4"`
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	Task      string  `json:"task" validate:"required,max=512"`
	Hours     float64 `json:"hours" validate:"required,gt=0,lte=24"`
}

type updateTimeEntryRequest struct {
	Date  *string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Task  *string  `json:"task" validate:"omitempty,max=512"`
	Hours *float64 `json:"hours" validate:"omitempty,gt=0,lte=24"`
}

// POST /api/organizations/:orgID/time-entries
func (h *TimeEntryHandler) Create(c *gin.Context) {
	if h.entries == nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	var req createTimeEntryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	userID := c.GetString(middleware.CtxUserIDKey)
	entry, err := h.entries.Create(requestContext(c), c.Param("orgID"), userID, services.CreateTimeEntryInput{
		ProjectID: req.ProjectID,
		Date:      req.Date,
		Task:      req.Task,
		Hours:     req.Hours,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrHoursOutOfRange):
			response.Error(c, appErrors.NewBadRequest("Hours must be greater than 0 and at most 24"))
		case errors.Is(err, services.ErrInvalidDate):
			response.Error(c, appErrors.NewBadRequest("Date must be in YYYY-MM-DD format"))
		case errors.Is(err, services.ErrProjectNotFound):
			response.Error(c, appErrors.NewNotFound("Project not found"))
		case errors.Is(err, services.ErrProjectArchived):
			response.Error(c, appErrors.NewConflict("Project is archived"))
		default:
			response.Error(c, appErrors.ErrInternalServer)
		}
		return
	}

	response.Success(c, http.StatusCreated, entry)
}

// GET /api/organizations/:orgID/time-entries
func (h *TimeEntryHandler) List(c *gin.Context) {
	if h.entries == nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	filter := services.TimeEntryFilter{
		ProjectID: c.Query("project_id"),
		UserID:    c.Query("user_id"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}

	entries, err := h.entries.List(requestContext(c), c.Param("orgID"), filter)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDate) {
			response.Error(c, appErrors.NewBadRequest("Date filters must be in YYYY-MM-DD format"))
			return
		}
		response.Error(c, appErrors.ErrInternalServer)
		return
	}
	if entries == nil {
		entries = []services.TimeEntryView{}
	}

	response.Success(c, http.StatusOK, gin.H{"time_entries": entries})
}

// PUT /api/organizations/:orgID/time-entries/:entryID
func (h *TimeEntryHandler) Update(c *gin.Context) {
	if h.entries == nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	var req updateTimeEntryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	userID := c.GetString(middleware.CtxUserIDKey)
	isAdmin := c.GetString(middleware.CtxOrgRoleKey) == models.RoleAdmin

	entry, err := h.entries.Update(requestContext(c), c.Param("orgID"), c.Param("entryID"), userID, isAdmin, services.UpdateTimeEntryInput{
		Date:  req.Date,
		Task:  req.Task,
		Hours: req.Hours,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoFieldsToUpdate):
			response.Error(c, appErrors.NewBadRequest("No fields to update"))
		case errors.Is(err, services.ErrHoursOutOfRange):
			response.Error(c, appErrors.NewBadRequest("Hours must be greater than 0 and at most 24"))
		case errors.Is(err, services.ErrInvalidDate):
			response.Error(c, appErrors.NewBadRequest("Date must be in YYYY-MM-DD format"))
		case errors.Is(err, services.ErrTimeEntryNotFound):
			response.Error(c, appErrors.NewNotFound("Time entry not found"))
		case errors.Is(err, services.ErrNotEntryOwner):
			response.Error(c, appErrors.ErrForbidden)
		default:
			response.Error(c, appErrors.ErrInternalServer)
		}
		return
	}

	response.Success(c, http.StatusOK, entry)
}

// DELETE /api/organizations/:orgID/time-entries/:entryID
func (h *TimeEntryHandler) Delete(c *gin.Context) {
	if h.entries == nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	userID := c.GetString(middleware.CtxUserIDKey)
	isAdmin := c.GetString(middleware.CtxOrgRoleKey) == models.RoleAdmin

	err := h.entries.Delete(requestContext(c), c.Param("orgID"), c.Param("entryID"), userID, isAdmin)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTimeEntryNotFound):
			response.Error(c, appErrors.NewNotFound("Time entry not found"))
		case errors.Is(err, services.ErrNotEntryOwner):
			response.Error(c, appErrors.ErrForbidden)
		default:
			response.Error(c, appErrors.ErrInternalServer)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/organizations/:orgID/stats
func (h *TimeEntryHandler) Stats(c *gin.Context) {
	if h.entries == nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	filter := services.TimeEntryFilter{
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}

	stats, err := h.entries.Stats(requestContext(c), c.Param("orgID"), filter)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDate) {
			response.Error(c, appErrors.NewBadRequest("Date filters must be in YYYY-MM-DD format"))
			return
		}
		response.Error(c, appErrors.ErrInternalServer)
		return
	}
	if stats.ByProject == nil {
		stats.ByProject = []services.ProjectHours{}
	}
	if stats.ByUser == nil {
		stats.ByUser = []services.UserHours{}
	}

	response.Success(c, http.StatusOK, stats)
}
