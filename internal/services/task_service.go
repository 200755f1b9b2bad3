package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/team-tasks-api/internal/authz"
	"github.com/yukikurage/team-tasks-api/internal/database"
	"github.com/yukikurage/team-tasks-api/internal/models"
	"github.com/yukikurage/team-tasks-api/internal/repository"
	"gorm.io/gorm"
)

const maxTitleLength = 255

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrTitleRequired          = errors.New("title is required")
	ErrTitleTooLong           = errors.New("title is too long")
	ErrInvalidStatus          = errors.New("invalid task status")
	ErrInvalidPriority        = errors.New("invalid task priority")
	ErrInvalidSort            = errors.New("invalid sort field or order")
	ErrInvalidPagination      = errors.New("invalid pagination parameters")
	ErrInvalidTaskAssignee    = errors.New("one or more assignees are not members of the organization")
	ErrDuplicateAssignment    = errors.New("user is already assigned to this task")
	ErrAssignmentNotFound     = errors.New("assignment not found")
	ErrTextRequired           = errors.New("text is required")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo  repository.TaskRepository
	userRepo  repository.UserRepository
	aiService *AIService
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, aiService *AIService) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		userRepo:  userRepo,
		aiService: aiService,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description *string
	Priority    models.TaskPriority
	DueDate     *time.Time
	AssigneeIDs []string
}

// ListTasksInput enumerates every optional list filter. Zero values mean
// "not set"; the default order is createdAt desc.
type ListTasksInput struct {
	Status    *models.TaskStatus
	Priority  *models.TaskPriority
	SortBy    repository.TaskSortField
	SortOrder repository.SortOrder
	Page      int
	PageSize  int
}

// UpdateTaskInput replaces every mutable field of a task
type UpdateTaskInput struct {
	Title       string
	Description *string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	if len(title) > maxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *TaskService) ensureMembers(ctx context.Context, orgID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	count, err := s.userRepo.CountMembers(ctx, orgID, userIDs)
	if err != nil {
		return fmt.Errorf("failed to verify assignees: %w", err)
	}
	if int(count) != len(userIDs) {
		return ErrInvalidTaskAssignee
	}
	return nil
}

// authorizeTask loads a task and verifies the caller belongs to its organization.
func (s *TaskService) authorizeTask(ctx context.Context, principal authz.Principal, taskID string, preload ...string) (*models.Task, *models.User, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, fmt.Errorf("failed to find task: %w", err)
	}

	caller, err := loadCaller(ctx, s.userRepo, principal)
	if err != nil {
		return nil, nil, err
	}
	if !authz.CanAccessTask(task, caller) {
		return nil, nil, authz.ErrForbidden
	}
	return task, caller, nil
}

func (s *TaskService) reload(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID, repository.TaskDetailPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}
	return task, nil
}

// CreateTask creates a task in the caller's organization together with its
// initial assignments
func (s *TaskService) CreateTask(ctx context.Context, principal authz.Principal, input CreateTaskInput) (*models.Task, error) {
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if !input.Priority.IsValid() {
		return nil, ErrInvalidPriority
	}

	caller, err := loadCaller(ctx, s.userRepo, principal)
	if err != nil {
		return nil, err
	}
	orgID, err := authz.RequireOrganization(caller)
	if err != nil {
		return nil, err
	}

	assigneeIDs := uniqueIDs(input.AssigneeIDs)
	if err := s.ensureMembers(ctx, orgID, assigneeIDs); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:          title,
		Description:    input.Description,
		Status:         models.TaskStatusTodo,
		Priority:       input.Priority,
		DueDate:        input.DueDate,
		OrganizationID: orgID,
		CreatedByID:    caller.ID,
	}

	assignments := make([]models.TaskAssignment, 0, len(assigneeIDs))
	for _, id := range assigneeIDs {
		assignments = append(assignments, models.TaskAssignment{
			AssigneeID:   id,
			AssignedByID: caller.ID,
		})
	}

	if err := s.taskRepo.Create(ctx, task, assignments); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.reload(ctx, task.ID)
}

// ListTasks returns the tasks of the caller's organization
func (s *TaskService) ListTasks(ctx context.Context, principal authz.Principal, input ListTasksInput) ([]models.Task, int64, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, 0, ErrInvalidStatus
	}
	if input.Priority != nil && !input.Priority.IsValid() {
		return nil, 0, ErrInvalidPriority
	}
	if input.SortBy == "" {
		input.SortBy = repository.SortByCreatedAt
	}
	if input.SortOrder == "" {
		input.SortOrder = repository.SortDesc
	}
	if !input.SortBy.IsValid() || !input.SortOrder.IsValid() {
		return nil, 0, ErrInvalidSort
	}
	if input.Page < 0 || input.PageSize < 0 || input.PageSize > database.MaxPageSize {
		return nil, 0, ErrInvalidPagination
	}
	if input.Page > 0 && input.PageSize == 0 {
		input.PageSize = 20
	}

	caller, err := loadCaller(ctx, s.userRepo, principal)
	if err != nil {
		return nil, 0, err
	}
	orgID, err := authz.RequireOrganization(caller)
	if err != nil {
		return nil, 0, err
	}

	tasks, total, err := s.taskRepo.List(ctx, repository.TaskFilter{
		OrganizationID: orgID,
		Status:         input.Status,
		Priority:       input.Priority,
		SortBy:         input.SortBy,
		SortOrder:      input.SortOrder,
		Page:           input.Page,
		PageSize:       input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(ctx context.Context, principal authz.Principal, taskID string) (*models.Task, error) {
	task, _, err := s.authorizeTask(ctx, principal, taskID, repository.TaskDetailPreloads...)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask replaces the mutable fields of a task
func (s *TaskService) UpdateTask(ctx context.Context, principal authz.Principal, taskID string, input UpdateTaskInput) (*models.Task, error) {
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if !input.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if !input.Priority.IsValid() {
		return nil, ErrInvalidPriority
	}

	task, _, err := s.authorizeTask(ctx, principal, taskID)
	if err != nil {
		return nil, err
	}

	task.Title = title
	task.Description = input.Description
	task.Status = input.Status
	task.Priority = input.Priority
	task.DueDate = input.DueDate

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.reload(ctx, task.ID)
}

// UpdateStatus changes only the status of a task
func (s *TaskService) UpdateStatus(ctx context.Context, principal authz.Principal, taskID string, status models.TaskStatus) (*models.Task, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	task, _, err := s.authorizeTask(ctx, principal, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.UpdateStatus(ctx, task.ID, status); err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}

	return s.reload(ctx, task.ID)
}

// AssignUser assigns a member of the task's organization to the task
func (s *TaskService) AssignUser(ctx context.Context, principal authz.Principal, taskID, assigneeID string) (*models.TaskAssignment, error) {
	task, caller, err := s.authorizeTask(ctx, principal, taskID)
	if err != nil {
		return nil, err
	}
	if assigneeID == "" {
		return nil, ErrInvalidTaskAssignee
	}
	if err := s.ensureMembers(ctx, task.OrganizationID, []string{assigneeID}); err != nil {
		return nil, err
	}

	assignment := &models.TaskAssignment{
		TaskID:       task.ID,
		AssigneeID:   assigneeID,
		AssignedByID: caller.ID,
	}
	if err := s.taskRepo.CreateAssignment(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateAssignment
		}
		return nil, fmt.Errorf("failed to assign user: %w", err)
	}

	created, err := s.taskRepo.FindAssignment(ctx, task.ID, assigneeID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload assignment: %w", err)
	}
	return created, nil
}

// RemoveAssignment removes a user from a task
func (s *TaskService) RemoveAssignment(ctx context.Context, principal authz.Principal, taskID, assigneeID string) error {
	task, _, err := s.authorizeTask(ctx, principal, taskID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.DeleteAssignment(ctx, task.ID, assigneeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return fmt.Errorf("failed to remove assignment: %w", err)
	}
	return nil
}

// GenerateDrafts extracts task drafts from free text. Nothing is persisted.
func (s *TaskService) GenerateDrafts(ctx context.Context, principal authz.Principal, text string) ([]GeneratedTask, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrTextRequired
	}

	caller, err := loadCaller(ctx, s.userRepo, principal)
	if err != nil {
		return nil, err
	}
	if _, err := authz.RequireOrganization(caller); err != nil {
		return nil, err
	}

	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}
	return s.aiService.GenerateTasksFromText(ctx, text)
}
