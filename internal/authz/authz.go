// Package authz centralizes the permission and tenant scoping decisions made
// on behalf of a caller. Nothing here touches the datastore.
package authz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/team-tasks-api/internal/models"
	"gorm.io/gorm"
)

var (
	ErrNotInOrganization = errors.New("user is not part of any organization")
	ErrForbidden         = errors.New("access denied")
)

// Principal is the authenticated caller for a single request, as established
// by the identity provider.
type Principal struct {
	ID    string
	Email string
	Name  string
	Image string
}

// RequireOrganization returns the caller's organization id.
func RequireOrganization(user *models.User) (string, error) {
	if user == nil || user.OrganizationID == nil || *user.OrganizationID == "" {
		return "", ErrNotInOrganization
	}
	return *user.OrganizationID, nil
}

// RequireAdmin returns the caller's organization id when the caller is an
// ADMIN of it.
func RequireAdmin(user *models.User) (string, error) {
	orgID, err := RequireOrganization(user)
	if err != nil {
		return "", err
	}
	if user.Role != models.RoleAdmin {
		return "", ErrForbidden
	}
	return orgID, nil
}

// ScopeToOrganization restricts a query on table to rows owned by orgID. It is
// applied as a gorm scope before any caller supplied filter. Soft deleted rows
// are excluded by the models' gorm.DeletedAt field.
func ScopeToOrganization(table, orgID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if orgID == "" {
			return db.Where("1 = 0")
		}
		return db.Where(fmt.Sprintf("%s.organization_id = ?", table), orgID)
	}
}

// CanAcceptInvite reports whether the principal with email may accept invite.
func CanAcceptInvite(invite *models.OrganizationInvite, email string) bool {
	if invite == nil || invite.Accepted {
		return false
	}
	return SameEmail(invite.Email, email)
}

// CanAccessTask reports whether user belongs to the task's organization.
func CanAccessTask(task *models.Task, user *models.User) bool {
	if task == nil || user == nil || user.OrganizationID == nil {
		return false
	}
	return *user.OrganizationID == task.OrganizationID
}

// NormalizeEmail lower-cases and trims an address for storage and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SameEmail compares two addresses after normalization; an empty a never matches.
func SameEmail(a, b string) bool {
	return a != "" && NormalizeEmail(a) == NormalizeEmail(b)
}
