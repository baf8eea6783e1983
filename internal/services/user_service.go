package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/worklog-app/worklog/internal/models"
)

const suggestedOrgLimit = 5

// LoginInput carries the caller-asserted identity attributes. Name and avatar
// overwrite the stored values on every login.
type LoginInput struct {
	Email     string
	Name      string
	AvatarURL string
}

// OrganizationSummary is one row of a user's organization list.
type OrganizationSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// LoginResult bundles the upserted user with their memberships.
type LoginResult struct {
	User                       *models.User
	Organizations              []OrganizationSummary
	NeedsOrganizationSelection bool
}

// OrganizationSuggestion describes an organization sharing the email's domain.
type OrganizationSuggestion struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	MemberCount int    `json:"member_count"`
}

// PendingInvitation is a live invitation surfaced during email lookup.
type PendingInvitation struct {
	ID               string `json:"id"`
	OrganizationName string `json:"organization_name"`
	OrganizationSlug string `json:"organization_slug"`
	InvitedByName    string `json:"invited_by_name"`
	Token            string `json:"token"`
}

// CheckEmailResult reports account existence, organization suggestions, and
// live invitations for an email address.
type CheckEmailResult struct {
	HasAccount             bool
	SuggestedOrganizations []OrganizationSuggestion
	PendingInvitations     []PendingInvitation
}

// UserService manages account upserts and pre-login email lookups.
type UserService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB, auditService *AuditService) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, auditService: auditService}, nil
}

// Login creates the user on first sight and refreshes name/avatar otherwise,
// then loads the user's memberships ordered newest first.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	ctx = ensureContext(ctx)

	email := normalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" {
		return nil, errors.New("user service: email is required")
	}
	if name == "" {
		return nil, errors.New("user service: name is required")
	}

	user, err := s.upsertUser(ctx, email, name, strings.TrimSpace(input.AvatarURL))
	if err != nil {
		return nil, err
	}

	orgs, err := s.listMembershipSummaries(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &user.ID,
		Action:   "auth.login",
		Resource: user.ID,
		Result:   "success",
		Metadata: map[string]any{"email": email},
	})

	return &LoginResult{
		User:                       user,
		Organizations:              orgs,
		NeedsOrganizationSelection: len(orgs) == 0,
	}, nil
}

// CheckEmail reports whether an account exists, suggests organizations whose
// active members share the email's domain, and lists live invitations.
func (s *UserService) CheckEmail(ctx context.Context, email string) (*CheckEmailResult, error) {
	ctx = ensureContext(ctx)

	email = normalizeEmail(email)
	if email == "" {
		return nil, errors.New("user service: email is required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("user service: lookup account: %w", err)
	}

	result := &CheckEmailResult{HasAccount: count > 0}

	if at := strings.LastIndex(email, "@"); at >= 0 && at < len(email)-1 {
		domain := email[at+1:]
		suggestions, err := s.suggestOrganizations(ctx, domain)
		if err != nil {
			return nil, err
		}
		result.SuggestedOrganizations = suggestions
	}

	invitations, err := s.pendingInvitations(ctx, email)
	if err != nil {
		return nil, err
	}
	result.PendingInvitations = invitations

	return result, nil
}

func (s *UserService) upsertUser(ctx context.Context, email, name, avatarURL string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{Email: email, Name: name, AvatarURL: avatarURL}
		if createErr := s.db.WithContext(ctx).Create(&user).Error; createErr != nil {
			if !isUniqueConstraintError(createErr) {
				return nil, fmt.Errorf("user service: create user: %w", createErr)
			}
			// Lost a first-login race; fall through to the update path.
			// A fresh destination avoids carrying the doomed insert's id
			// into the query conditions.
			var existing models.User
			if findErr := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; findErr != nil {
				return nil, fmt.Errorf("user service: reload user: %w", findErr)
			}
			user = existing
		} else {
			return &user, nil
		}
		fallthrough
	case err == nil:
		updates := map[string]any{"name": name, "avatar_url": avatarURL}
		if updateErr := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; updateErr != nil {
			return nil, fmt.Errorf("user service: update user: %w", updateErr)
		}
		user.Name = name
		user.AvatarURL = avatarURL
		return &user, nil
	default:
		return nil, fmt.Errorf("user service: find user: %w", err)
	}
}

func (s *UserService) listMembershipSummaries(ctx context.Context, userID string) ([]OrganizationSummary, error) {
	var orgs []OrganizationSummary
	err := s.db.WithContext(ctx).
		Table("organizations o").
		Select("o.id, o.name, o.slug, om.role, om.status").
		Joins("JOIN organization_members om ON o.id = om.organization_id").
		Where("om.user_id = ?", userID).
		Order("om.created_at DESC").
		Scan(&orgs).Error
	if err != nil {
		return nil, fmt.Errorf("user service: list memberships: %w", err)
	}
	return orgs, nil
}

func (s *UserService) suggestOrganizations(ctx context.Context, domain string) ([]OrganizationSuggestion, error) {
	var suggestions []OrganizationSuggestion
	err := s.db.WithContext(ctx).
		Table("organizations o").
		Select("o.id, o.name, o.slug, COUNT(om.id) AS member_count").
		Joins("JOIN organization_members om ON o.id = om.organization_id").
		Joins("JOIN users u ON om.user_id = u.id").
		Where("u.email LIKE ? AND om.status = ?", "%@"+domain, models.MemberStatusActive).
		Group("o.id, o.name, o.slug").
		Having("COUNT(om.id) >= ?", 2).
		Order("member_count DESC").
		Limit(suggestedOrgLimit).
		Scan(&suggestions).Error
	if err != nil {
		return nil, fmt.Errorf("user service: suggest organizations: %w", err)
	}
	return suggestions, nil
}

func (s *UserService) pendingInvitations(ctx context.Context, email string) ([]PendingInvitation, error) {
	var invitations []PendingInvitation
	err := s.db.WithContext(ctx).
		Table("invitations i").
		Select("i.id, o.name AS organization_name, o.slug AS organization_slug, u.name AS invited_by_name, i.token").
		Joins("JOIN organizations o ON i.organization_id = o.id").
		Joins("JOIN users u ON i.invited_by = u.id").
		Where("i.email = ? AND i.accepted_at IS NULL AND i.expires_at > ?", email, nowUTC()).
		Order("i.created_at DESC").
		Scan(&invitations).Error
	if err != nil {
		return nil, fmt.Errorf("user service: pending invitations: %w", err)
	}
	return invitations, nil
}
