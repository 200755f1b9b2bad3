package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/yukikurage/team-tasks-api/internal/authz"
	"github.com/yukikurage/team-tasks-api/internal/models"
	"github.com/yukikurage/team-tasks-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrUserExists      = errors.New("user with this email already exists")
	ErrDuplicateInvite = errors.New("invitation already sent to this email")
	ErrInviteNotFound  = errors.New("invite not found")
	ErrAlreadyAccepted = errors.New("invite has already been accepted")
	ErrEmailMismatch   = errors.New("this invite is not for your email address")
)

// InviteService implements the organization invitation workflow.
type InviteService struct {
	inviteRepo repository.InviteRepository
	userRepo   repository.UserRepository
}

// NewInviteService creates a new InviteService.
func NewInviteService(inviteRepo repository.InviteRepository, userRepo repository.UserRepository) *InviteService {
	return &InviteService{
		inviteRepo: inviteRepo,
		userRepo:   userRepo,
	}
}

func normalizeInviteEmail(email string) (string, error) {
	email = authz.NormalizeEmail(email)
	if email == "" || len(email) > 320 {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// Invite creates a pending invite for email in the caller's organization.
// Only ADMINs may invite.
func (s *InviteService) Invite(ctx context.Context, principal authz.Principal, email string) (*models.OrganizationInvite, error) {
	email, err := normalizeInviteEmail(email)
	if err != nil {
		return nil, err
	}

	caller, err := loadCaller(ctx, s.userRepo, principal)
	if err != nil {
		return nil, err
	}
	orgID, err := authz.RequireAdmin(caller)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByEmailIncludingDeleted(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	if _, err := s.inviteRepo.FindPending(ctx, orgID, email); err == nil {
		return nil, ErrDuplicateInvite
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing invite: %w", err)
	}

	invite := &models.OrganizationInvite{
		Email:          email,
		OrganizationID: orgID,
		InvitedByID:    caller.ID,
	}
	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateInvite
		}
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	return invite, nil
}

// CheckInvite returns the caller's own pending invite, or nil when there is
// none. email defaults to the principal's address and may not name anyone else.
func (s *InviteService) CheckInvite(ctx context.Context, principal authz.Principal, email string) (*models.OrganizationInvite, error) {
	if email == "" {
		email = principal.Email
	}
	if !authz.SameEmail(email, principal.Email) {
		return nil, authz.ErrForbidden
	}

	invite, err := s.inviteRepo.FindPendingByEmail(ctx, authz.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check invite: %w", err)
	}
	return invite, nil
}

// ListInvites returns the pending invites of the caller's organization.
func (s *InviteService) ListInvites(ctx context.Context, principal authz.Principal) ([]models.OrganizationInvite, error) {
	caller, err := loadCaller(ctx, s.userRepo, principal)
	if err != nil {
		return nil, err
	}
	orgID, err := authz.RequireAdmin(caller)
	if err != nil {
		return nil, err
	}

	invites, err := s.inviteRepo.ListPending(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	return invites, nil
}

// AcceptInvite moves the caller into the invite's organization as MEMBER.
func (s *InviteService) AcceptInvite(ctx context.Context, principal authz.Principal, inviteID string) error {
	invite, err := s.inviteRepo.FindByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInviteNotFound
		}
		return fmt.Errorf("failed to find invite: %w", err)
	}

	if invite.Accepted {
		return ErrAlreadyAccepted
	}
	if !authz.CanAcceptInvite(invite, principal.Email) {
		return ErrEmailMismatch
	}

	if err := s.inviteRepo.Accept(ctx, invite.ID, principal.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return ErrAlreadyAccepted
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrUserNotFound
		default:
			return fmt.Errorf("failed to accept invite: %w", err)
		}
	}
	return nil
}
