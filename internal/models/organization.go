package models

import "gorm.io/datatypes"

// Organization is the tenant boundary: it owns memberships, invitations,
// projects, and time entries. Organizations are never deleted in-app.
type Organization struct {
	BaseModel

	Name string `gorm:"not null" json:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`

	// Settings is reserved for per-tenant configuration.
	Settings datatypes.JSON `json:"settings,omitempty"`

	Members  []OrganizationMember `gorm:"foreignKey:OrganizationID" json:"members,omitempty"`
	Projects []Project            `gorm:"foreignKey:OrganizationID" json:"projects,omitempty"`
}
