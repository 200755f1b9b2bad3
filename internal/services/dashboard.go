package services

import (
	"context"
	"sort"
	"time"

	"github.com/yukikurage/team-tasks-api/internal/authz"
	"github.com/yukikurage/team-tasks-api/internal/models"
)

const recentTaskCount = 5

// Dashboard holds aggregates derived from an organization's task list.
type Dashboard struct {
	TotalTasks      int
	TasksByStatus   map[models.TaskStatus]int
	TasksByPriority map[models.TaskPriority]int
	CompletionRate  float64
	OverdueTasks    int
	ActiveTasks     int
	RecentTasks     []models.Task
}

// ComputeDashboard derives the dashboard aggregates from tasks as of now.
// Every status and priority is present in the maps, zero when unused.
func ComputeDashboard(tasks []models.Task, now time.Time) Dashboard {
	d := Dashboard{
		TotalTasks:      len(tasks),
		TasksByStatus:   make(map[models.TaskStatus]int, len(models.TaskStatuses)),
		TasksByPriority: make(map[models.TaskPriority]int, len(models.TaskPriorities)),
	}
	for _, s := range models.TaskStatuses {
		d.TasksByStatus[s] = 0
	}
	for _, p := range models.TaskPriorities {
		d.TasksByPriority[p] = 0
	}

	for _, t := range tasks {
		d.TasksByStatus[t.Status]++
		d.TasksByPriority[t.Priority]++
		if t.DueDate != nil && t.DueDate.Before(now) && t.Status != models.TaskStatusDone {
			d.OverdueTasks++
		}
	}

	if d.TotalTasks > 0 {
		d.CompletionRate = float64(d.TasksByStatus[models.TaskStatusDone]) / float64(d.TotalTasks) * 100
	}
	d.ActiveTasks = d.TasksByStatus[models.TaskStatusInProgress]

	recent := make([]models.Task, len(tasks))
	copy(recent, tasks)
	sort.SliceStable(recent, func(i, j int) bool {
		if !recent[i].CreatedAt.Equal(recent[j].CreatedAt) {
			return recent[i].CreatedAt.After(recent[j].CreatedAt)
		}
		return recent[i].ID < recent[j].ID
	})
	if len(recent) > recentTaskCount {
		recent = recent[:recentTaskCount]
	}
	d.RecentTasks = recent

	return d
}

// DashboardService computes dashboards over the caller's task list.
type DashboardService struct {
	tasks *TaskService
	now   func() time.Time
}

func NewDashboardService(tasks *TaskService) *DashboardService {
	return &DashboardService{tasks: tasks, now: time.Now}
}

// GetDashboard returns the aggregates for the caller's organization.
func (s *DashboardService) GetDashboard(ctx context.Context, principal authz.Principal) (Dashboard, error) {
	tasks, _, err := s.tasks.ListTasks(ctx, principal, ListTasksInput{})
	if err != nil {
		return Dashboard{}, err
	}
	return ComputeDashboard(tasks, s.now()), nil
}
