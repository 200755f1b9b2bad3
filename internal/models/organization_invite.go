package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrganizationInvite is a standing offer for an email address to join an
// organization. PendingKey is set while the invite is unaccepted and cleared on
// acceptance; its unique index allows at most one pending invite per
// (email, organization) while letting accepted invites accumulate.
type OrganizationInvite struct {
	ID             string    `gorm:"type:varchar(36);primarykey" json:"id"`
	Email          string    `gorm:"type:varchar(320);not null;index" json:"email"`
	OrganizationID string    `gorm:"type:varchar(36);not null;index" json:"organization_id"`
	InvitedByID    string    `gorm:"type:varchar(36);not null" json:"invited_by_id"`
	Accepted       bool      `gorm:"not null;default:false" json:"accepted"`
	PendingKey     *string   `gorm:"type:varchar(400);uniqueIndex" json:"-"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
	InvitedBy    User          `gorm:"foreignKey:InvitedByID" json:"invited_by,omitempty"`
}

func (i *OrganizationInvite) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if !i.Accepted && i.PendingKey == nil {
		key := InvitePendingKey(i.OrganizationID, i.Email)
		i.PendingKey = &key
	}
	return nil
}

func InvitePendingKey(organizationID, email string) string {
	return organizationID + ":" + email
}
