package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/team-tasks-api/internal/authz"
	"github.com/yukikurage/team-tasks-api/internal/models"
	"github.com/yukikurage/team-tasks-api/internal/repository"
	"gorm.io/gorm"
)

// loadCaller fetches the current user record behind a principal. Role and
// organization are always read fresh so that decisions never rely on
// session contents.
func loadCaller(ctx context.Context, users repository.UserRepository, principal authz.Principal) (*models.User, error) {
	if principal.ID == "" {
		return nil, ErrUserNotFound
	}
	user, err := users.FindByID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load caller: %w", err)
	}
	return user, nil
}
