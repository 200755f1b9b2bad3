package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/team-tasks-api/internal/authz"
	"github.com/yukikurage/team-tasks-api/internal/models"
	"github.com/yukikurage/team-tasks-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidOrganizationName = errors.New("organization name cannot be empty")
	ErrInvalidDomain           = errors.New("organization domain is invalid")
	ErrDomainTaken             = errors.New("organization with this domain already exists")
	ErrAlreadyInOrganization   = errors.New("user is already part of an organization")
)

// OrganizationService provides business logic for organization operations.
type OrganizationService struct {
	orgRepo  repository.OrganizationRepository
	userRepo repository.UserRepository
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgRepo repository.OrganizationRepository, userRepo repository.UserRepository) *OrganizationService {
	return &OrganizationService{
		orgRepo:  orgRepo,
		userRepo: userRepo,
	}
}

// CreateOrganizationInput represents parameters to create a new organization.
type CreateOrganizationInput struct {
	Name   string
	Domain string
}

func normalizeDomain(domain string) (string, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" || len(domain) > 255 || strings.ContainsAny(domain, " \t\r\n/@") {
		return "", ErrInvalidDomain
	}
	return domain, nil
}

// CreateOrganization creates a new organization and makes the caller its ADMIN.
func (s *OrganizationService) CreateOrganization(ctx context.Context, principal authz.Principal, input CreateOrganizationInput) (*models.Organization, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidOrganizationName
	}
	domain, err := normalizeDomain(input.Domain)
	if err != nil {
		return nil, err
	}

	caller, err := loadCaller(ctx, s.userRepo, principal)
	if err != nil {
		return nil, err
	}
	if caller.OrganizationID != nil {
		return nil, ErrAlreadyInOrganization
	}

	if _, err := s.orgRepo.FindByDomain(ctx, domain); err == nil {
		return nil, ErrDomainTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check domain: %w", err)
	}

	org := &models.Organization{
		Name:   name,
		Domain: domain,
	}

	if err := s.orgRepo.CreateWithAdmin(ctx, org, caller.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrDomainTaken
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrAlreadyInOrganization
		default:
			return nil, fmt.Errorf("failed to create organization: %w", err)
		}
	}

	return org, nil
}

// ListMembers returns the members of the caller's organization.
func (s *OrganizationService) ListMembers(ctx context.Context, principal authz.Principal) ([]models.User, error) {
	caller, err := loadCaller(ctx, s.userRepo, principal)
	if err != nil {
		return nil, err
	}
	orgID, err := authz.RequireOrganization(caller)
	if err != nil {
		return nil, err
	}

	members, err := s.orgRepo.ListMembers(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organization members: %w", err)
	}
	return members, nil
}
