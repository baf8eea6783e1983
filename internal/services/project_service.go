package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/worklog-app/worklog/internal/models"
)

var (
	// ErrProjectNotFound indicates the project does not exist in the organization.
	ErrProjectNotFound = errors.New("project service: project not found")
	// ErrProjectArchived indicates the project cannot accept new work.
	ErrProjectArchived = errors.New("project service: project is archived")
)

// ProjectView is one row of the project listing with the creator's name.
type ProjectView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsArchived  bool      `json:"is_archived"`
	CreatedBy   string    `json:"created_by"`
	CreatorName string    `json:"creator_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectService manages projects inside an organization.
type ProjectService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewProjectService constructs a ProjectService instance.
func NewProjectService(db *gorm.DB, auditService *AuditService) (*ProjectService, error) {
	if db == nil {
		return nil, errors.New("project service: db is required")
	}
	return &ProjectService{db: db, auditService: auditService}, nil
}

// Create adds a project to the organization.
func (s *ProjectService) Create(ctx context.Context, orgID, name, description, creatorID string) (*models.Project, error) {
	ctx = ensureContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("project service: name is required")
	}
	if orgID == "" || creatorID == "" {
		return nil, errors.New("project service: organization id and creator id are required")
	}

	project := &models.Project{
		OrganizationID: orgID,
		Name:           name,
		Description:    strings.TrimSpace(description),
		CreatedBy:      creatorID,
	}
	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, fmt.Errorf("project service: create project: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &creatorID,
		Action:   "project.create",
		Resource: project.ID,
		Result:   "success",
		Metadata: map[string]any{"organization_id": orgID, "name": name},
	})

	return project, nil
}

// List returns the organization's projects, active before archived, newest
// first within each group, with the creator's display name joined in.
func (s *ProjectService) List(ctx context.Context, orgID string) ([]ProjectView, error) {
	ctx = ensureContext(ctx)

	var projects []ProjectView
	err := s.db.WithContext(ctx).
		Table("projects p").
		Select("p.id, p.name, p.description, p.is_archived, p.created_by, u.name AS creator_name, p.created_at").
		Joins("LEFT JOIN users u ON p.created_by = u.id").
		Where("p.organization_id = ?", orgID).
		Order("p.is_archived ASC, p.created_at DESC").
		Scan(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("project service: list projects: %w", err)
	}
	return projects, nil
}

// GetByID loads a project scoped to the organization.
func (s *ProjectService) GetByID(ctx context.Context, orgID, projectID string) (*models.Project, error) {
	ctx = ensureContext(ctx)

	var project models.Project
	err := s.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", projectID, orgID).
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project service: get project: %w", err)
	}
	return &project, nil
}

// Archive marks a project archived. Existing time entries keep pointing at it;
// only new entries are refused.
func (s *ProjectService) Archive(ctx context.Context, orgID, projectID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ? AND organization_id = ? AND is_archived = ?", projectID, orgID, false).
		Update("is_archived", true)
	if result.Error != nil {
		return fmt.Errorf("project service: archive project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := s.GetByID(ctx, orgID, projectID); err != nil {
			return err
		}
		return ErrProjectArchived
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "project.archive",
		Resource: projectID,
		Result:   "success",
		Metadata: map[string]any{"organization_id": orgID},
	})

	return nil
}
