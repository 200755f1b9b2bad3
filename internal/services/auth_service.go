package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/team-tasks-api/internal/authz"
	"github.com/yukikurage/team-tasks-api/internal/identity"
	"github.com/yukikurage/team-tasks-api/internal/models"
	"github.com/yukikurage/team-tasks-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserDeactivated = errors.New("user account is deactivated")
)

// AuthService turns identity provider results into local user records.
type AuthService struct {
	userRepo repository.UserRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{
		userRepo: userRepo,
	}
}

// SignIn finds or creates the user behind a verified identity and refreshes
// the profile fields the provider owns. New users are unaffiliated members.
func (s *AuthService) SignIn(ctx context.Context, id *identity.Identity) (*models.User, error) {
	email := authz.NormalizeEmail(id.Email)
	if email == "" {
		return nil, ErrInvalidEmail
	}
	name := strings.TrimSpace(id.Name)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		if user.Name != name || user.Image != id.Picture {
			if err := s.userRepo.UpdateProfile(ctx, user.ID, name, id.Picture); err != nil {
				return nil, fmt.Errorf("failed to update profile: %w", err)
			}
			user.Name = name
			user.Image = id.Picture
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user = &models.User{
		Email: email,
		Name:  name,
		Image: id.Picture,
		Role:  models.RoleMember,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		// A concurrent sign-in created the row first, or the address belongs
		// to a soft deleted account.
		existing, findErr := s.userRepo.FindByEmail(ctx, email)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return nil, ErrUserDeactivated
			}
			return nil, fmt.Errorf("failed to find user: %w", findErr)
		}
		return existing, nil
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// Principal builds the session principal for a user.
func Principal(user *models.User) authz.Principal {
	return authz.Principal{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Image: user.Image,
	}
}
