package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin  UserRole = "ADMIN"
	RoleMember UserRole = "MEMBER"
)

// User belongs to at most one organization. A nil OrganizationID means the
// user has signed in but is not affiliated yet.
type User struct {
	ID             string         `gorm:"type:varchar(36);primarykey" json:"id"`
	Name           string         `gorm:"type:varchar(255)" json:"name"`
	Email          string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Image          string         `gorm:"type:varchar(1024)" json:"image"`
	Role           UserRole       `gorm:"type:varchar(20);not null;default:'MEMBER'" json:"role"`
	OrganizationID *string        `gorm:"type:varchar(36);index" json:"organization_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleMember
	}
	return nil
}

// OrgID returns the user's organization id, or "" when unaffiliated.
func (u *User) OrgID() string {
	if u.OrganizationID == nil {
		return ""
	}
	return *u.OrganizationID
}
