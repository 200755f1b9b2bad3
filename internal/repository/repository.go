package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/team-tasks-api/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("repository: duplicate key")
	// ErrConflict is returned when a conditional write matched no row because the
	// row changed state concurrently.
	ErrConflict = errors.New("repository: conflicting update")
)

// translateError maps driver level uniqueness violations to ErrDuplicate.
// It relies on gorm.Config.TranslateError being enabled.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create inserts a task and its initial assignments in one transaction
	Create(ctx context.Context, task *models.Task, assignments []models.TaskAssignment) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id string, preload ...string) (*models.Task, error)

	// List retrieves the tasks of one organization with filtering, ordering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Update replaces the mutable fields of a task
	Update(ctx context.Context, task *models.Task) error

	// UpdateStatus changes only the status of a task
	UpdateStatus(ctx context.Context, id string, status models.TaskStatus) error

	// CreateAssignment assigns a user to a task
	CreateAssignment(ctx context.Context, assignment *models.TaskAssignment) error

	// FindAssignment finds a specific task assignment with its users
	FindAssignment(ctx context.Context, taskID, assigneeID string) (*models.TaskAssignment, error)

	// DeleteAssignment removes a task assignment
	DeleteAssignment(ctx context.Context, taskID, assigneeID string) error
}

// TaskSortField is the closed set of fields tasks can be ordered by.
type TaskSortField string

const (
	SortByCreatedAt TaskSortField = "createdAt"
	SortByDueDate   TaskSortField = "dueDate"
	SortByPriority  TaskSortField = "priority"
)

func (f TaskSortField) IsValid() bool {
	switch f {
	case SortByCreatedAt, SortByDueDate, SortByPriority:
		return true
	}
	return false
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func (o SortOrder) IsValid() bool {
	return o == SortAsc || o == SortDesc
}

// TaskFilter holds filtering options for listing tasks. OrganizationID is
// mandatory; an empty value matches nothing.
type TaskFilter struct {
	OrganizationID string
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	SortBy         TaskSortField
	SortOrder      SortOrder
	Page           int
	PageSize       int
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// CreateWithAdmin creates an organization and attaches adminID to it as
	// ADMIN atomically. Returns ErrDuplicate when the domain is taken and
	// ErrConflict when the user is no longer unaffiliated.
	CreateWithAdmin(ctx context.Context, org *models.Organization, adminID string) error

	// FindByDomain finds an organization by domain
	FindByDomain(ctx context.Context, domain string) (*models.Organization, error)

	// ListMembers lists the non-deleted users of an organization, newest first
	ListMembers(ctx context.Context, organizationID string) ([]models.User, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByEmailIncludingDeleted finds a user by email, including soft deleted accounts
	FindByEmailIncludingDeleted(ctx context.Context, email string) (*models.User, error)

	// UpdateProfile refreshes the name and image supplied by the identity provider
	UpdateProfile(ctx context.Context, id, name, image string) error

	// CountMembers counts how many of userIDs are members of the organization
	CountMembers(ctx context.Context, organizationID string, userIDs []string) (int64, error)
}

// InviteRepository defines the interface for organization invite data access
type InviteRepository interface {
	// Create creates a pending invite. Returns ErrDuplicate when a pending
	// invite for the same email and organization exists.
	Create(ctx context.Context, invite *models.OrganizationInvite) error

	// FindByID finds an invite by ID
	FindByID(ctx context.Context, id string) (*models.OrganizationInvite, error)

	// FindPending finds the pending invite for an email in an organization
	FindPending(ctx context.Context, organizationID, email string) (*models.OrganizationInvite, error)

	// FindPendingByEmail finds any pending invite addressed to email, with its inviter
	FindPendingByEmail(ctx context.Context, email string) (*models.OrganizationInvite, error)

	// ListPending lists the pending invites of an organization, newest first, with inviters
	ListPending(ctx context.Context, organizationID string) ([]models.OrganizationInvite, error)

	// Accept marks the invite accepted and moves userID into the invite's
	// organization as MEMBER in one transaction. Returns ErrConflict when the
	// invite was accepted concurrently.
	Accept(ctx context.Context, inviteID, userID string) error
}
