package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/worklog-app/worklog/internal/models"
	"github.com/worklog-app/worklog/pkg/slug"
)

const defaultProjectName = "General"

var (
	// ErrOrganizationNotFound indicates the requested organization does not exist.
	ErrOrganizationNotFound = errors.New("organization service: organization not found")
	// ErrSlugTaken indicates another organization already normalizes to the same slug.
	ErrSlugTaken = errors.New("organization service: organization name already taken")
	// ErrInvalidName indicates the name normalizes to an empty slug.
	ErrInvalidName = errors.New("organization service: name must contain letters or digits")
	// ErrAlreadyMember indicates the user already holds an active membership.
	ErrAlreadyMember = errors.New("organization service: already a member of this organization")
	// ErrJoinPending indicates a join request is already awaiting approval.
	ErrJoinPending = errors.New("organization service: join request is already pending approval")
	// ErrMemberNotPending indicates no pending membership matched the approval target.
	ErrMemberNotPending = errors.New("organization service: pending member not found")
	// ErrMemberNotActive indicates no active membership matched the deactivation target.
	ErrMemberNotActive = errors.New("organization service: active member not found")
	// ErrNotMember indicates the user has no active membership in the organization.
	ErrNotMember = errors.New("organization service: not a member of this organization")
)

// MemberView is one row of the members listing, joined with user identity and
// the inviter's display name.
type MemberView struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	JoinedAt      *time.Time `json:"joined_at,omitempty"`
	InvitedByName string     `json:"invited_by_name,omitempty"`
}

// JoinResult reports the outcome of a join request.
type JoinResult struct {
	RequiresApproval bool
}

// OrganizationService manages the organization and membership lifecycle.
type OrganizationService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewOrganizationService constructs an OrganizationService instance.
func NewOrganizationService(db *gorm.DB, auditService *AuditService) (*OrganizationService, error) {
	if db == nil {
		return nil, errors.New("organization service: db is required")
	}
	return &OrganizationService{db: db, auditService: auditService}, nil
}

// Create registers an organization, its creator as an active admin, and the
// default project in one transaction so partial failure cannot leave an
// organization without an admin.
func (s *OrganizationService) Create(ctx context.Context, name, creatorID string) (*models.Organization, error) {
	ctx = ensureContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("organization service: name is required")
	}
	if creatorID == "" {
		return nil, errors.New("organization service: creator id is required")
	}

	derived := slug.Derive(name)
	if derived == "" {
		return nil, ErrInvalidName
	}

	org := &models.Organization{Name: name, Slug: derived}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Organization{}).Where("slug = ?", derived).Count(&count).Error; err != nil {
			return fmt.Errorf("organization service: check slug: %w", err)
		}
		if count > 0 {
			return ErrSlugTaken
		}

		if err := tx.Create(org).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrSlugTaken
			}
			return fmt.Errorf("organization service: create organization: %w", err)
		}

		now := nowUTC()
		member := models.OrganizationMember{
			OrganizationID: org.ID,
			UserID:         creatorID,
			Role:           models.RoleAdmin,
			Status:         models.MemberStatusActive,
			JoinedAt:       &now,
		}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("organization service: create admin membership: %w", err)
		}

		project := models.Project{
			OrganizationID: org.ID,
			Name:           defaultProjectName,
			Description:    "Default project for general tasks",
			CreatedBy:      creatorID,
		}
		if err := tx.Create(&project).Error; err != nil {
			return fmt.Errorf("organization service: create default project: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &creatorID,
		Action:   "org.create",
		Resource: org.ID,
		Result:   "success",
		Metadata: map[string]any{"name": name, "slug": derived},
	})

	return org, nil
}

// GetByID loads a single organization.
func (s *OrganizationService) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	ctx = ensureContext(ctx)

	var org models.Organization
	err := s.db.WithContext(ctx).First(&org, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrganizationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("organization service: get organization: %w", err)
	}
	return &org, nil
}

// Join records a membership request. Active members and pending requesters
// are rejected with specific errors; anyone else (including previously
// deactivated members) is upserted back to pending.
func (s *OrganizationService) Join(ctx context.Context, orgID, userID string) (*JoinResult, error) {
	ctx = ensureContext(ctx)

	if orgID == "" || userID == "" {
		return nil, errors.New("organization service: organization id and user id are required")
	}

	if _, err := s.GetByID(ctx, orgID); err != nil {
		return nil, err
	}

	var existing models.OrganizationMember
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&existing).Error
	if err == nil {
		switch existing.Status {
		case models.MemberStatusActive:
			return nil, ErrAlreadyMember
		case models.MemberStatusPending:
			return nil, ErrJoinPending
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("organization service: check membership: %w", err)
	}

	member := models.OrganizationMember{
		OrganizationID: orgID,
		UserID:         userID,
		Role:           models.RoleMember,
		Status:         models.MemberStatusPending,
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "organization_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"status": models.MemberStatusPending}),
		}).
		Create(&member).Error
	if err != nil {
		return nil, fmt.Errorf("organization service: upsert membership: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &userID,
		Action:   "org.join",
		Resource: orgID,
		Result:   "success",
	})

	return &JoinResult{RequiresApproval: true}, nil
}

// ApproveMember flips a pending membership to active, stamping joined_at.
// Approving a membership that is not pending in that organization fails with
// ErrMemberNotPending so callers can tell the outcomes apart.
func (s *OrganizationService) ApproveMember(ctx context.Context, orgID, memberID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.OrganizationMember{}).
		Where("id = ? AND organization_id = ? AND status = ?", memberID, orgID, models.MemberStatusPending).
		Updates(map[string]any{
			"status":    models.MemberStatusActive,
			"joined_at": nowUTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("organization service: approve member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotPending
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "org.member_approve",
		Resource: orgID,
		Result:   "success",
		Metadata: map[string]any{"member_id": memberID},
	})

	return nil
}

// DeactivateMember moves an active membership to inactive. The row survives,
// so a later join request resets it to pending through the upsert path.
func (s *OrganizationService) DeactivateMember(ctx context.Context, orgID, memberID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.OrganizationMember{}).
		Where("id = ? AND organization_id = ? AND status = ?", memberID, orgID, models.MemberStatusActive).
		Update("status", models.MemberStatusInactive)
	if result.Error != nil {
		return fmt.Errorf("organization service: deactivate member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotActive
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "org.member_deactivate",
		Resource: orgID,
		Result:   "success",
		Metadata: map[string]any{"member_id": memberID},
	})

	return nil
}

// ListMembers returns every membership joined with user identity and inviter
// name, active first, then pending, then the rest, in creation order.
func (s *OrganizationService) ListMembers(ctx context.Context, orgID string) ([]MemberView, error) {
	ctx = ensureContext(ctx)

	var members []MemberView
	err := s.db.WithContext(ctx).
		Table("organization_members om").
		Select(`om.id, om.user_id, u.email, u.name, u.avatar_url, om.role, om.status, om.joined_at,
			inviter.name AS invited_by_name`).
		Joins("JOIN users u ON om.user_id = u.id").
		Joins("LEFT JOIN users inviter ON om.invited_by = inviter.id").
		Where("om.organization_id = ?", orgID).
		Order("CASE om.status WHEN 'active' THEN 1 WHEN 'pending' THEN 2 ELSE 3 END, om.created_at ASC").
		Scan(&members).Error
	if err != nil {
		return nil, fmt.Errorf("organization service: list members: %w", err)
	}
	return members, nil
}

// RoleOf returns the role of the user's active membership in the organization.
func (s *OrganizationService) RoleOf(ctx context.Context, orgID, userID string) (string, error) {
	ctx = ensureContext(ctx)

	var member models.OrganizationMember
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ? AND status = ?", orgID, userID, models.MemberStatusActive).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotMember
	}
	if err != nil {
		return "", fmt.Errorf("organization service: lookup role: %w", err)
	}
	return member.Role, nil
}
