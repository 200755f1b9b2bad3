package repository

import (
	"context"

	"github.com/yukikurage/team-tasks-api/internal/authz"
	"github.com/yukikurage/team-tasks-api/internal/database"
	"github.com/yukikurage/team-tasks-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskDetailPreloads are the relations returned with a single task.
var TaskDetailPreloads = []string{"CreatedBy", "Assignments.Assignee", "Assignments.AssignedBy"}

const priorityRankSQL = "CASE tasks.priority WHEN 'LOW' THEN 0 WHEN 'MEDIUM' THEN 1 WHEN 'HIGH' THEN 2 WHEN 'URGENT' THEN 3 ELSE 4 END"

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task together with its assignments
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task, assignments []models.TaskAssignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(task).Error; err != nil {
			return translateError(err)
		}

		if len(assignments) == 0 {
			return nil
		}
		for i := range assignments {
			assignments[i].TaskID = task.ID
		}
		return translateError(tx.Omit(clause.Associations).Create(&assignments).Error)
	})
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id string, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering, ordering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{}).
		Scopes(authz.ScopeToOrganization("tasks", filter.OrganizationID))

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := applyTaskOrder(query, filter.SortBy, filter.SortOrder)
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Page, filter.PageSize))
	}

	var tasks []models.Task
	if err := listQuery.
		Preload("CreatedBy").
		Preload("Assignments", func(db *gorm.DB) *gorm.DB {
			return db.Order("task_assignments.created_at ASC")
		}).
		Preload("Assignments.Assignee").
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func applyTaskOrder(query *gorm.DB, sortBy TaskSortField, order SortOrder) *gorm.DB {
	dir := "DESC"
	if order == SortAsc {
		dir = "ASC"
	}

	switch sortBy {
	case SortByDueDate:
		query = query.Order("CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END").
			Order("tasks.due_date " + dir)
	case SortByPriority:
		query = query.Order(priorityRankSQL + " " + dir)
	default:
		return query.Order("tasks.created_at " + dir).Order("tasks.id")
	}
	return query.Order("tasks.created_at DESC").Order("tasks.id")
}

// Update replaces the mutable fields of a task
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Model(task).
		Select("title", "description", "status", "priority", "due_date", "updated_at").
		Updates(task).Error
}

// UpdateStatus changes the status of a task
func (r *GormTaskRepository) UpdateStatus(ctx context.Context, id string, status models.TaskStatus) error {
	return r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// CreateAssignment creates a task assignment
func (r *GormTaskRepository) CreateAssignment(ctx context.Context, assignment *models.TaskAssignment) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(assignment).Error)
}

// FindAssignment finds a specific task assignment
func (r *GormTaskRepository) FindAssignment(ctx context.Context, taskID, assigneeID string) (*models.TaskAssignment, error) {
	var assignment models.TaskAssignment
	if err := r.db.WithContext(ctx).
		Preload("Assignee").
		Preload("AssignedBy").
		Where("task_id = ? AND assignee_id = ?", taskID, assigneeID).
		First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// DeleteAssignment removes a task assignment
func (r *GormTaskRepository) DeleteAssignment(ctx context.Context, taskID, assigneeID string) error {
	result := r.db.WithContext(ctx).
		Where("task_id = ? AND assignee_id = ?", taskID, assigneeID).
		Delete(&models.TaskAssignment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
