package models

// User describes an account identified by its email address. Name and avatar
// are overwritten on every login.
type User struct {
	BaseModel

	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Name      string `gorm:"not null" json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`

	Memberships []OrganizationMember `gorm:"foreignKey:UserID" json:"-"`
}
