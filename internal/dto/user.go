package dto

import (
	"time"

	"github.com/yukikurage/team-tasks-api/internal/models"
)

// UserSummaryDTO is the minimal user projection embedded in other resources
type UserSummaryDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MemberDTO is the only projection of an organization member ever returned
type MemberDTO struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	Image     string          `json:"image"`
	CreatedAt time.Time       `json:"created_at"`
}

// CurrentUserDTO describes the signed-in user
type CurrentUserDTO struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Image          string          `json:"image"`
	Role           models.UserRole `json:"role"`
	OrganizationID *string         `json:"organization_id"`
}

// ToUserSummaryDTO converts a User model to UserSummaryDTO
func ToUserSummaryDTO(user models.User) UserSummaryDTO {
	return UserSummaryDTO{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}

// ToMemberDTO converts a User model to MemberDTO
func ToMemberDTO(user models.User) MemberDTO {
	return MemberDTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Image:     user.Image,
		CreatedAt: user.CreatedAt,
	}
}

// ToMemberDTOs converts a slice of members
func ToMemberDTOs(users []models.User) []MemberDTO {
	out := make([]MemberDTO, len(users))
	for i, u := range users {
		out[i] = ToMemberDTO(u)
	}
	return out
}

// ToCurrentUserDTO converts a User model to CurrentUserDTO
func ToCurrentUserDTO(user models.User) CurrentUserDTO {
	return CurrentUserDTO{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Image:          user.Image,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
	}
}
