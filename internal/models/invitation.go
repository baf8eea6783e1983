package models

import "time"

// Invitation is a single-use, time-boxed token granting membership to the
// matching email's account. Consumed exactly once by setting AcceptedAt.
type Invitation struct {
	BaseModel

	OrganizationID string `gorm:"type:uuid;not null;index" json:"organization_id"`
	Email          string `gorm:"not null;index" json:"email"`
	Role           string `gorm:"not null;default:member" json:"role"`
	InvitedBy      string `gorm:"type:uuid;not null" json:"invited_by"`

	// Token is returned to the invitee via check-email, so it is stored
	// as issued rather than hashed.
	Token      string     `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"index" json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Inviter      *User         `gorm:"foreignKey:InvitedBy" json:"inviter,omitempty"`
}

// IsLive reports whether the invitation can still be accepted at the given time.
func (i *Invitation) IsLive(now time.Time) bool {
	return i.AcceptedAt == nil && i.ExpiresAt.After(now)
}
