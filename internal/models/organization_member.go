package models

import "time"

// Membership roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Membership statuses. A row is created as pending (self-join request) or
// active (invitation acceptance, org creation); inactive is reached through
// an explicit admin deactivation.
const (
	MemberStatusPending  = "pending"
	MemberStatusActive   = "active"
	MemberStatusInactive = "inactive"
)

// OrganizationMember joins a user to an organization with a role and an
// approval status. At most one row exists per (organization, user) pair.
type OrganizationMember struct {
	BaseModel

	OrganizationID string `gorm:"type:uuid;not null;uniqueIndex:idx_org_members_org_user" json:"organization_id"`
	UserID         string `gorm:"type:uuid;not null;uniqueIndex:idx_org_members_org_user" json:"user_id"`

	Role   string `gorm:"not null;default:member" json:"role"`
	Status string `gorm:"not null;default:pending;index" json:"status"`

	InvitedBy *string    `gorm:"type:uuid" json:"invited_by,omitempty"`
	InvitedAt *time.Time `json:"invited_at,omitempty"`
	JoinedAt  *time.Time `json:"joined_at,omitempty"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// IsActive reports whether the membership currently grants access.
func (m *OrganizationMember) IsActive() bool {
	return m.Status == MemberStatusActive
}
