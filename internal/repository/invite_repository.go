package repository

import (
	"context"

	"github.com/yukikurage/team-tasks-api/internal/authz"
	"github.com/yukikurage/team-tasks-api/internal/models"
	"gorm.io/gorm"
)

// GormInviteRepository is a GORM implementation of InviteRepository
type GormInviteRepository struct {
	db *gorm.DB
}

// NewInviteRepository creates a new InviteRepository
func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &GormInviteRepository{db: db}
}

func preloadInviter(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email")
}

// Create creates a new pending invite
func (r *GormInviteRepository) Create(ctx context.Context, invite *models.OrganizationInvite) error {
	return translateError(r.db.WithContext(ctx).Omit("Organization", "InvitedBy").Create(invite).Error)
}

// FindByID finds an invite by ID
func (r *GormInviteRepository) FindByID(ctx context.Context, id string) (*models.OrganizationInvite, error) {
	var invite models.OrganizationInvite
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// FindPending finds the unaccepted invite for an email within an organization
func (r *GormInviteRepository) FindPending(ctx context.Context, organizationID, email string) (*models.OrganizationInvite, error) {
	var invite models.OrganizationInvite
	if err := r.db.WithContext(ctx).
		Scopes(authz.ScopeToOrganization("organization_invites", organizationID)).
		Where("email = ? AND accepted = ?", email, false).
		First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// FindPendingByEmail finds the oldest unaccepted invite addressed to email
func (r *GormInviteRepository) FindPendingByEmail(ctx context.Context, email string) (*models.OrganizationInvite, error) {
	var invite models.OrganizationInvite
	if err := r.db.WithContext(ctx).
		Preload("InvitedBy", preloadInviter).
		Where("email = ? AND accepted = ?", email, false).
		Order("created_at ASC").
		First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// ListPending lists the unaccepted invites of an organization
func (r *GormInviteRepository) ListPending(ctx context.Context, organizationID string) ([]models.OrganizationInvite, error) {
	var invites []models.OrganizationInvite
	if err := r.db.WithContext(ctx).
		Scopes(authz.ScopeToOrganization("organization_invites", organizationID)).
		Preload("InvitedBy", preloadInviter).
		Where("accepted = ?", false).
		Order("organization_invites.created_at DESC").
		Order("organization_invites.id").
		Find(&invites).Error; err != nil {
		return nil, err
	}
	return invites, nil
}

// Accept flips the invite and attaches the user to its organization in a transaction
func (r *GormInviteRepository) Accept(ctx context.Context, inviteID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invite models.OrganizationInvite
		if err := tx.Where("id = ?", inviteID).First(&invite).Error; err != nil {
			return err
		}

		result := tx.Model(&models.OrganizationInvite{}).
			Where("id = ? AND accepted = ?", inviteID, false).
			Updates(map[string]interface{}{
				"accepted":    true,
				"pending_key": gorm.Expr("NULL"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}

		var user models.User
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			return err
		}

		return tx.Model(&user).
			Updates(map[string]interface{}{
				"organization_id": invite.OrganizationID,
				"role":            models.RoleMember,
			}).Error
	})
}
