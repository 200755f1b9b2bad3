package dto

import (
	"time"

	"github.com/yukikurage/team-tasks-api/internal/models"
	"github.com/yukikurage/team-tasks-api/internal/services"
)

// TaskAssignmentDTO represents a task assignment in API responses
type TaskAssignmentDTO struct {
	TaskID     string          `json:"task_id"`
	AssigneeID string          `json:"assignee_id"`
	Assignee   *UserSummaryDTO `json:"assignee,omitempty"`
	AssignedBy *UserSummaryDTO `json:"assigned_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             string              `json:"id"`
	Title          string              `json:"title"`
	Description    *string             `json:"description"`
	Status         models.TaskStatus   `json:"status"`
	Priority       models.TaskPriority `json:"priority"`
	DueDate        *time.Time          `json:"due_date"`
	OrganizationID string              `json:"organization_id"`
	CreatedByID    string              `json:"created_by_id"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	CreatedBy      *UserSummaryDTO     `json:"created_by,omitempty"`
	Assignments    []TaskAssignmentDTO `json:"assignments"`
}

// TaskListResponse represents a list of tasks
type TaskListResponse struct {
	Tasks []TaskDTO `json:"tasks"`
	Total int64     `json:"total"`
}

// DashboardDTO represents the task analytics of an organization
type DashboardDTO struct {
	TotalTasks      int                         `json:"total_tasks"`
	TasksByStatus   map[models.TaskStatus]int   `json:"tasks_by_status"`
	TasksByPriority map[models.TaskPriority]int `json:"tasks_by_priority"`
	CompletionRate  float64                     `json:"completion_rate"`
	OverdueTasks    int                         `json:"overdue_tasks"`
	ActiveTasks     int                         `json:"active_tasks"`
	RecentTasks     []TaskDTO                   `json:"recent_tasks"`
}

func summaryIfLoaded(user models.User) *UserSummaryDTO {
	if user.ID == "" {
		return nil
	}
	s := ToUserSummaryDTO(user)
	return &s
}

// ToTaskAssignmentDTO converts a TaskAssignment model
func ToTaskAssignmentDTO(a models.TaskAssignment) TaskAssignmentDTO {
	return TaskAssignmentDTO{
		TaskID:     a.TaskID,
		AssigneeID: a.AssigneeID,
		Assignee:   summaryIfLoaded(a.Assignee),
		AssignedBy: summaryIfLoaded(a.AssignedBy),
		CreatedAt:  a.CreatedAt,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		Priority:       task.Priority,
		DueDate:        task.DueDate,
		OrganizationID: task.OrganizationID,
		CreatedByID:    task.CreatedByID,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
		CreatedBy:      summaryIfLoaded(task.CreatedBy),
		Assignments:    make([]TaskAssignmentDTO, len(task.Assignments)),
	}

	for i, assignment := range task.Assignments {
		dto.Assignments[i] = ToTaskAssignmentDTO(assignment)
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = ToTaskDTO(t)
	}
	return out
}

// ToDashboardDTO converts computed dashboard aggregates
func ToDashboardDTO(d services.Dashboard) DashboardDTO {
	return DashboardDTO{
		TotalTasks:      d.TotalTasks,
		TasksByStatus:   d.TasksByStatus,
		TasksByPriority: d.TasksByPriority,
		CompletionRate:  d.CompletionRate,
		OverdueTasks:    d.OverdueTasks,
		ActiveTasks:     d.ActiveTasks,
		RecentTasks:     ToTaskDTOs(d.RecentTasks),
	}
}
