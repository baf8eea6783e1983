package models

// TimeEntry records hours worked by one user on one project for one day.
// Dates are stored as ISO strings (YYYY-MM-DD) so range filters compare
// lexicographically across all supported databases.
type TimeEntry struct {
	BaseModel

	OrganizationID string  `gorm:"type:uuid;not null;index" json:"organization_id"`
	ProjectID      string  `gorm:"type:uuid;not null;index" json:"project_id"`
	UserID         string  `gorm:"type:uuid;not null;index" json:"user_id"`
	Date           string  `gorm:"not null;index" json:"date"`
	Task           string  `gorm:"not null" json:"task"`
	Hours          float64 `gorm:"not null" json:"hours"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Project      *Project      `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
