package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/worklog-app/worklog/internal/models"
	"github.com/worklog-app/worklog/pkg/metrics"
)

const (
	maxHoursPerEntry = 24
	dateLayout       = "2006-01-02"
)

var (
	// ErrTimeEntryNotFound indicates no entry matched the id within the organization.
	ErrTimeEntryNotFound = errors.New("time entry service: time entry not found")
	// ErrHoursOutOfRange indicates hours outside (0, 24].
	ErrHoursOutOfRange = errors.New("time entry service: hours must be greater than 0 and at most 24")
	// ErrInvalidDate indicates a date not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("time entry service: date must be in YYYY-MM-DD format")
	// ErrNoFieldsToUpdate indicates an update request carrying no changes.
	ErrNoFieldsToUpdate = errors.New("time entry service: no fields to update")
	// ErrNotEntryOwner indicates the acting user may not modify the entry.
	ErrNotEntryOwner = errors.New("time entry service: only the entry owner may modify it")
)

// CreateTimeEntryInput carries the fields of a new time entry.
type CreateTimeEntryInput struct {
	ProjectID string
	Date      string
	Task      string
	Hours     float64
}

// UpdateTimeEntryInput carries a partial update. Nil fields are left untouched.
type UpdateTimeEntryInput struct {
	Date  *string
	Task  *string
	Hours *float64
}

// TimeEntryFilter narrows a listing. Zero-valued fields are ignored; supplied
// fields are conjoined onto the organization scope.
type TimeEntryFilter struct {
	ProjectID string
	UserID    string
	StartDate string
	EndDate   string
}

// TimeEntryView is one row of the entry listing with project and user names.
type TimeEntryView struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	ProjectName string    `json:"project_name"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	Date        string    `json:"date"`
	Task        string    `json:"task"`
	Hours       float64   `json:"hours"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectHours aggregates logged hours for one project.
type ProjectHours struct {
	ProjectID   string  `json:"project_id"`
	ProjectName string  `json:"project_name"`
	Hours       float64 `json:"hours"`
}

// UserHours aggregates logged hours for one user.
type UserHours struct {
	UserID   string  `json:"user_id"`
	UserName string  `json:"user_name"`
	Hours    float64 `json:"hours"`
}

// OrganizationStats summarizes activity across an organization.
type OrganizationStats struct {
	TotalHours        float64        `json:"total_hours"`
	EntryCount        int64          `json:"entry_count"`
	ActiveMemberCount int64          `json:"active_member_count"`
	ByProject         []ProjectHours `json:"by_project"`
	ByUser            []UserHours    `json:"by_user"`
}

// TimeEntryService manages per-user time entries and aggregate statistics.
type TimeEntryService struct {
	db             *gorm.DB
	projectService *ProjectService
	auditService   *AuditService
}

// NewTimeEntryService constructs a TimeEntryService instance.
func NewTimeEntryService(db *gorm.DB, projectService *ProjectService, auditService *AuditService) (*TimeEntryService, error) {
	if db == nil {
		return nil, errors.New("time entry service: db is required")
	}
	if projectService == nil {
		return nil, errors.New("time entry service: project service is required")
	}
	return &TimeEntryService{db: db, projectService: projectService, auditService: auditService}, nil
}

func validHours(hours float64) bool {
	return hours > 0 && hours <= maxHoursPerEntry
}

func validDate(date string) bool {
	_, err := time.Parse(dateLayout, date)
	return err == nil
}

// Create inserts a time entry owned by the acting user. The project must
// exist in the organization and must not be archived.
func (s *TimeEntryService) Create(ctx context.Context, orgID, userID string, input CreateTimeEntryInput) (*models.TimeEntry, error) {
	ctx = ensureContext(ctx)

	if orgID == "" || userID == "" {
		return nil, errors.New("time entry service: organization id and user id are required")
	}
	if strings.TrimSpace(input.Task) == "" {
		return nil, errors.New("time entry service: task is required")
	}
	if !validHours(input.Hours) {
		return nil, ErrHoursOutOfRange
	}
	if !validDate(input.Date) {
		return nil, ErrInvalidDate
	}

	project, err := s.projectService.GetByID(ctx, orgID, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.IsArchived {
		return nil, ErrProjectArchived
	}

	entry := &models.TimeEntry{
		OrganizationID: orgID,
		ProjectID:      project.ID,
		UserID:         userID,
		Date:           input.Date,
		Task:           strings.TrimSpace(input.Task),
		Hours:          input.Hours,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("time entry service: create entry: %w", err)
	}

	metrics.TimeEntriesCreated.Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &userID,
		Action:   "time_entry.create",
		Resource: entry.ID,
		Result:   "success",
		Metadata: map[string]any{"organization_id": orgID, "project_id": project.ID, "hours": input.Hours},
	})

	return entry, nil
}

// List returns entries for the organization, narrowed by any supplied
// filters, ordered by date then creation time, newest first. All filter
// values pass through parameter binding.
func (s *TimeEntryService) List(ctx context.Context, orgID string, filter TimeEntryFilter) ([]TimeEntryView, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).
		Table("time_entries te").
		Select("te.id, te.project_id, p.name AS project_name, te.user_id, u.name AS user_name, te.date, te.task, te.hours, te.created_at").
		Joins("JOIN projects p ON te.project_id = p.id").
		Joins("JOIN users u ON te.user_id = u.id").
		Where("te.organization_id = ?", orgID)

	if filter.ProjectID != "" {
		query = query.Where("te.project_id = ?", filter.ProjectID)
	}
	if filter.UserID != "" {
		query = query.Where("te.user_id = ?", filter.UserID)
	}
	if filter.StartDate != "" {
		if !validDate(filter.StartDate) {
			return nil, ErrInvalidDate
		}
		query = query.Where("te.date >= ?", filter.StartDate)
	}
	if filter.EndDate != "" {
		if !validDate(filter.EndDate) {
			return nil, ErrInvalidDate
		}
		query = query.Where("te.date <= ?", filter.EndDate)
	}

	var entries []TimeEntryView
	if err := query.Order("te.date DESC, te.created_at DESC").Scan(&entries).Error; err != nil {
		return nil, fmt.Errorf("time entry service: list entries: %w", err)
	}
	return entries, nil
}

// Update applies a partial update to an entry. Owners may edit their own
// entries; admins may edit any entry in the organization. Zero matched rows
// for the id within the organization is a not-found.
func (s *TimeEntryService) Update(ctx context.Context, orgID, entryID, actorID string, actorIsAdmin bool, input UpdateTimeEntryInput) (*models.TimeEntry, error) {
	ctx = ensureContext(ctx)

	updates := map[string]any{}
	if input.Date != nil {
		if !validDate(*input.Date) {
			return nil, ErrInvalidDate
		}
		updates["date"] = *input.Date
	}
	if input.Task != nil {
		task := strings.TrimSpace(*input.Task)
		if task == "" {
			return nil, errors.New("time entry service: task cannot be empty")
		}
		updates["task"] = task
	}
	if input.Hours != nil {
		if !validHours(*input.Hours) {
			return nil, ErrHoursOutOfRange
		}
		updates["hours"] = *input.Hours
	}
	if len(updates) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	var entry models.TimeEntry
	err := s.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", entryID, orgID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTimeEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("time entry service: get entry: %w", err)
	}
	if entry.UserID != actorID && !actorIsAdmin {
		return nil, ErrNotEntryOwner
	}

	if err := s.db.WithContext(ctx).Model(&entry).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("time entry service: update entry: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &actorID,
		Action:   "time_entry.update",
		Resource: entry.ID,
		Result:   "success",
		Metadata: map[string]any{"organization_id": orgID},
	})

	return &entry, nil
}

// Delete removes an entry scoped by (id, organization). Zero affected rows is
// a not-found so callers can always tell whether anything was deleted.
func (s *TimeEntryService) Delete(ctx context.Context, orgID, entryID, actorID string, actorIsAdmin bool) error {
	ctx = ensureContext(ctx)

	var entry models.TimeEntry
	err := s.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", entryID, orgID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTimeEntryNotFound
	}
	if err != nil {
		return fmt.Errorf("time entry service: get entry: %w", err)
	}
	if entry.UserID != actorID && !actorIsAdmin {
		return ErrNotEntryOwner
	}

	result := s.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", entryID, orgID).
		Delete(&models.TimeEntry{})
	if result.Error != nil {
		return fmt.Errorf("time entry service: delete entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTimeEntryNotFound
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &actorID,
		Action:   "time_entry.delete",
		Resource: entryID,
		Result:   "success",
		Metadata: map[string]any{"organization_id": orgID},
	})

	return nil
}

// Stats aggregates hours logged in the organization over an optional date
// range: totals, per-project and per-user breakdowns, and the active member
// count.
func (s *TimeEntryService) Stats(ctx context.Context, orgID string, filter TimeEntryFilter) (*OrganizationStats, error) {
	ctx = ensureContext(ctx)

	scope := func() *gorm.DB {
		q := s.db.WithContext(ctx).Table("time_entries te").Where("te.organization_id = ?", orgID)
		if filter.StartDate != "" {
			q = q.Where("te.date >= ?", filter.StartDate)
		}
		if filter.EndDate != "" {
			q = q.Where("te.date <= ?", filter.EndDate)
		}
		return q
	}

	if filter.StartDate != "" && !validDate(filter.StartDate) {
		return nil, ErrInvalidDate
	}
	if filter.EndDate != "" && !validDate(filter.EndDate) {
		return nil, ErrInvalidDate
	}

	stats := &OrganizationStats{}

	type totals struct {
		TotalHours float64
		EntryCount int64
	}
	var agg totals
	err := scope().
		Select("COALESCE(SUM(te.hours), 0) AS total_hours, COUNT(te.id) AS entry_count").
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("time entry service: aggregate totals: %w", err)
	}
	stats.TotalHours = agg.TotalHours
	stats.EntryCount = agg.EntryCount

	err = scope().
		Select("te.project_id, p.name AS project_name, SUM(te.hours) AS hours").
		Joins("JOIN projects p ON te.project_id = p.id").
		Group("te.project_id, p.name").
		Order("hours DESC").
		Scan(&stats.ByProject).Error
	if err != nil {
		return nil, fmt.Errorf("time entry service: aggregate by project: %w", err)
	}

	err = scope().
		Select("te.user_id, u.name AS user_name, SUM(te.hours) AS hours").
		Joins("JOIN users u ON te.user_id = u.id").
		Group("te.user_id, u.name").
		Order("hours DESC").
		Scan(&stats.ByUser).Error
	if err != nil {
		return nil, fmt.Errorf("time entry service: aggregate by user: %w", err)
	}

	err = s.db.WithContext(ctx).
		Model(&models.OrganizationMember{}).
		Where("organization_id = ? AND status = ?", orgID, models.MemberStatusActive).
		Count(&stats.ActiveMemberCount).Error
	if err != nil {
		return nil, fmt.Errorf("time entry service: count active members: %w", err)
	}

	return stats, nil
}
