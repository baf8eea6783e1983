package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/worklog-app/worklog/internal/models"
	"github.com/worklog-app/worklog/pkg/crypto"
)

const (
	invitationTokenLength = 32
	invitationTTL         = 7 * 24 * time.Hour
)

var (
	// ErrInvitationNotFound indicates no invitation matched the token.
	ErrInvitationNotFound = errors.New("invitation service: invitation not found")
	// ErrInvitationExpired indicates the invitation's expiry has passed.
	ErrInvitationExpired = errors.New("invitation service: invitation has expired")
	// ErrInvitationConsumed indicates the invitation was already accepted.
	ErrInvitationConsumed = errors.New("invitation service: invitation already accepted")
	// ErrInvitationEmailMismatch indicates the accepting account's email does
	// not match the invited address.
	ErrInvitationEmailMismatch = errors.New("invitation service: invitation was issued to a different email")
	// ErrInviteePending indicates the invited email already has a pending
	// join request in the organization.
	ErrInviteePending = errors.New("invitation service: user already has a pending join request")
	// ErrInvitationOutstanding indicates a live invitation already exists for
	// the email in the organization.
	ErrInvitationOutstanding = errors.New("invitation service: a live invitation already exists for this email")
)

// InvitationService issues and consumes membership invitations.
type InvitationService struct {
	db           *gorm.DB
	auditService *AuditService

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewInvitationService constructs an InvitationService instance.
func NewInvitationService(db *gorm.DB, auditService *AuditService) (*InvitationService, error) {
	if db == nil {
		return nil, errors.New("invitation service: db is required")
	}
	return &InvitationService{db: db, auditService: auditService, now: nowUTC}, nil
}

// Invite issues a 7-day invitation for an email address. Emails with an
// active membership, a pending join request, or a live invitation in the
// organization are rejected with specific errors.
func (s *InvitationService) Invite(ctx context.Context, orgID, email, role, inviterID string) (*models.Invitation, error) {
	ctx = ensureContext(ctx)

	email = normalizeEmail(email)
	if email == "" {
		return nil, errors.New("invitation service: email is required")
	}
	if role != models.RoleAdmin && role != models.RoleMember {
		role = models.RoleMember
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("invitation service: lookup user: %w", err)
	}
	if err == nil {
		var member models.OrganizationMember
		memberErr := s.db.WithContext(ctx).
			Where("organization_id = ? AND user_id = ?", orgID, user.ID).
			First(&member).Error
		if memberErr == nil {
			switch member.Status {
			case models.MemberStatusActive:
				return nil, ErrAlreadyMember
			case models.MemberStatusPending:
				return nil, ErrInviteePending
			}
		} else if !errors.Is(memberErr, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invitation service: check membership: %w", memberErr)
		}
	}

	now := s.now()
	var live int64
	err = s.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("organization_id = ? AND email = ? AND accepted_at IS NULL AND expires_at > ?", orgID, email, now).
		Count(&live).Error
	if err != nil {
		return nil, fmt.Errorf("invitation service: check outstanding invitations: %w", err)
	}
	if live > 0 {
		return nil, ErrInvitationOutstanding
	}

	token, err := crypto.GenerateToken(invitationTokenLength)
	if err != nil {
		return nil, fmt.Errorf("invitation service: generate token: %w", err)
	}

	invitation := &models.Invitation{
		OrganizationID: orgID,
		Email:          email,
		Role:           role,
		InvitedBy:      inviterID,
		Token:          token,
		ExpiresAt:      now.Add(invitationTTL),
	}
	if err := s.db.WithContext(ctx).Create(invitation).Error; err != nil {
		return nil, fmt.Errorf("invitation service: create invitation: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &inviterID,
		Action:   "invitation.create",
		Resource: orgID,
		Result:   "success",
		Metadata: map[string]any{"email": email, "role": role},
	})

	return invitation, nil
}

// Accept consumes an invitation token on behalf of the authenticated user.
// The email on the account must match the invited address. Consumption is a
// conditional update inside a transaction, so two concurrent accepts of the
// same token resolve to exactly one success.
func (s *InvitationService) Accept(ctx context.Context, token, userID string) (*models.OrganizationMember, error) {
	ctx = ensureContext(ctx)

	if token == "" {
		return nil, errors.New("invitation service: token is required")
	}
	if userID == "" {
		return nil, errors.New("invitation service: user id is required")
	}

	var member *models.OrganizationMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invitation models.Invitation
		if err := tx.Where("token = ?", token).First(&invitation).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvitationNotFound
			}
			return fmt.Errorf("invitation service: lookup invitation: %w", err)
		}

		now := s.now()
		if invitation.AcceptedAt != nil {
			return ErrInvitationConsumed
		}
		if !invitation.ExpiresAt.After(now) {
			return ErrInvitationExpired
		}

		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("invitation service: accepting user not found")
			}
			return fmt.Errorf("invitation service: lookup user: %w", err)
		}
		if normalizeEmail(user.Email) != invitation.Email {
			return ErrInvitationEmailMismatch
		}

		consume := tx.Model(&models.Invitation{}).
			Where("id = ? AND accepted_at IS NULL", invitation.ID).
			Update("accepted_at", now)
		if consume.Error != nil {
			return fmt.Errorf("invitation service: consume invitation: %w", consume.Error)
		}
		if consume.RowsAffected == 0 {
			return ErrInvitationConsumed
		}

		upserted := models.OrganizationMember{
			OrganizationID: invitation.OrganizationID,
			UserID:         userID,
			Role:           invitation.Role,
			Status:         models.MemberStatusActive,
			InvitedBy:      &invitation.InvitedBy,
			InvitedAt:      &invitation.CreatedAt,
			JoinedAt:       &now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "organization_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":    models.MemberStatusActive,
				"role":      invitation.Role,
				"joined_at": now,
			}),
		}).Create(&upserted).Error
		if err != nil {
			return fmt.Errorf("invitation service: upsert membership: %w", err)
		}

		// Reload into a fresh struct: after a conflict-update the id
		// assigned during Create does not match the surviving row.
		var current models.OrganizationMember
		if err := tx.Where("organization_id = ? AND user_id = ?", invitation.OrganizationID, userID).
			First(&current).Error; err != nil {
			return fmt.Errorf("invitation service: reload membership: %w", err)
		}
		member = &current
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &userID,
		Action:   "invitation.accept",
		Resource: member.OrganizationID,
		Result:   "success",
	})

	return member, nil
}

// PurgeExpired deletes invitations whose expiry passed without acceptance.
func (s *InvitationService) PurgeExpired(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("accepted_at IS NULL AND expires_at <= ?", s.now()).
		Delete(&models.Invitation{})
	if result.Error != nil {
		return 0, fmt.Errorf("invitation service: purge expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}
