package dto

import (
	"time"

	"github.com/yukikurage/team-tasks-api/internal/models"
)

// OrganizationDTO represents an organization in API responses
type OrganizationDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"created_at"`
}

// InviteDTO represents a pending invite together with its inviter
type InviteDTO struct {
	ID             string          `json:"id"`
	Email          string          `json:"email"`
	OrganizationID string          `json:"organization_id"`
	Accepted       bool            `json:"accepted"`
	CreatedAt      time.Time       `json:"created_at"`
	InvitedBy      *UserSummaryDTO `json:"invited_by,omitempty"`
}

// ToOrganizationDTO converts an Organization model to OrganizationDTO
func ToOrganizationDTO(org models.Organization) OrganizationDTO {
	return OrganizationDTO{
		ID:        org.ID,
		Name:      org.Name,
		Domain:    org.Domain,
		CreatedAt: org.CreatedAt,
	}
}

// ToInviteDTO converts an invite, including the inviter when preloaded
func ToInviteDTO(invite models.OrganizationInvite) InviteDTO {
	dto := InviteDTO{
		ID:             invite.ID,
		Email:          invite.Email,
		OrganizationID: invite.OrganizationID,
		Accepted:       invite.Accepted,
		CreatedAt:      invite.CreatedAt,
	}
	if invite.InvitedBy.ID != "" {
		inviter := ToUserSummaryDTO(invite.InvitedBy)
		dto.InvitedBy = &inviter
	}
	return dto
}

// ToInviteDTOs converts a slice of invites
func ToInviteDTOs(invites []models.OrganizationInvite) []InviteDTO {
	out := make([]InviteDTO, len(invites))
	for i, inv := range invites {
		out[i] = ToInviteDTO(inv)
	}
	return out
}
