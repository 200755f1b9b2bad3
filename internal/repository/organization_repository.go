package repository

import (
	"context"

	"github.com/yukikurage/team-tasks-api/internal/authz"
	"github.com/yukikurage/team-tasks-api/internal/models"
	"gorm.io/gorm"
)

// GormOrganizationRepository is a GORM implementation of OrganizationRepository
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// CreateWithAdmin creates the organization and promotes its creator in a transaction
func (r *GormOrganizationRepository) CreateWithAdmin(ctx context.Context, org *models.Organization, adminID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Users", "Tasks").Create(org).Error; err != nil {
			return translateError(err)
		}

		result := tx.Model(&models.User{}).
			Where("id = ? AND organization_id IS NULL", adminID).
			Updates(map[string]interface{}{
				"organization_id": org.ID,
				"role":            models.RoleAdmin,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}
		return nil
	})
}

// FindByDomain finds an organization by domain
func (r *GormOrganizationRepository) FindByDomain(ctx context.Context, domain string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).Where("domain = ?", domain).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// ListMembers lists all members of an organization
func (r *GormOrganizationRepository) ListMembers(ctx context.Context, organizationID string) ([]models.User, error) {
	var members []models.User
	if err := r.db.WithContext(ctx).
		Scopes(authz.ScopeToOrganization("users", organizationID)).
		Select("id", "name", "email", "role", "image", "created_at").
		Order("users.created_at DESC").
		Order("users.id").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
