package models

// Project scopes time entries inside an organization. Projects are never
// hard-deleted, only archived.
type Project struct {
	BaseModel

	OrganizationID string `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string `gorm:"not null" json:"name"`
	Description    string `json:"description,omitempty"`
	IsArchived     bool   `gorm:"default:false" json:"is_archived"`
	CreatedBy      string `gorm:"type:uuid;not null" json:"created_by"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Creator      *User         `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
}
