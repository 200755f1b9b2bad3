package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-tasks-api/internal/dto"
	apierrors "github.com/yukikurage/team-tasks-api/internal/errors"
	"github.com/yukikurage/team-tasks-api/internal/models"
	"github.com/yukikurage/team-tasks-api/internal/repository"
	"github.com/yukikurage/team-tasks-api/internal/services"
)

var listTaskParams = map[string]struct{}{
	"status":     {},
	"priority":   {},
	"sort_by":    {},
	"sort_order": {},
	"page":       {},
	"page_size":  {},
}

// TaskHandler serves task endpoints.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// CreateTask creates a task in the caller's organization.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		Title       string     `json:"title" binding:"required"`
		Description *string    `json:"description"`
		Priority    string     `json:"priority"`
		DueDate     *time.Time `json:"due_date"`
		AssigneeIDs []string   `json:"assignee_ids"`
	}

	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Validation(c, "Invalid request body")
		return
	}

	priority := models.TaskPriority(req.Priority)
	if priority == "" {
		priority = models.TaskPriorityMedium
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), principal, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    priority,
		DueDate:     req.DueDate,
		AssigneeIDs: req.AssigneeIDs,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// ListTasks lists the tasks of the caller's organization.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	query := c.Request.URL.Query()
	for key := range query {
		if _, allowed := listTaskParams[key]; !allowed {
			apierrors.Validation(c, "Unknown query parameter: "+key)
			return
		}
	}

	input := services.ListTasksInput{
		SortBy:    repository.TaskSortField(query.Get("sort_by")),
		SortOrder: repository.SortOrder(query.Get("sort_order")),
	}
	if v := query.Get("status"); v != "" {
		status := models.TaskStatus(v)
		input.Status = &status
	}
	if v := query.Get("priority"); v != "" {
		priority := models.TaskPriority(v)
		input.Priority = &priority
	}

	var err error
	if input.Page, err = intQuery(query.Get("page")); err != nil {
		apierrors.Validation(c, "page must be an integer")
		return
	}
	if input.PageSize, err = intQuery(query.Get("page_size")); err != nil {
		apierrors.Validation(c, "page_size must be an integer")
		return
	}

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), principal, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskListResponse{
		Tasks: dto.ToTaskDTOs(tasks),
		Total: total,
	})
}

func intQuery(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

// GetTask returns a single task.
func (h *TaskHandler) GetTask(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTask replaces the mutable fields of a task.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	type UpdateTaskRequest struct {
		Title       string     `json:"title" binding:"required"`
		Description *string    `json:"description"`
		Status      string     `json:"status" binding:"required"`
		Priority    string     `json:"priority" binding:"required"`
		DueDate     *time.Time `json:"due_date"`
	}

	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Validation(c, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), principal, c.Param("id"), services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatus(req.Status),
		Priority:    models.TaskPriority(req.Priority),
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTaskStatus changes only the status of a task.
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	type UpdateStatusRequest struct {
		Status string `json:"status" binding:"required"`
	}

	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Validation(c, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateStatus(c.Request.Context(), principal, c.Param("id"), models.TaskStatus(req.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// AssignTask assigns a member to a task.
func (h *TaskHandler) AssignTask(c *gin.Context) {
	type AssignRequest struct {
		AssigneeID string `json:"assignee_id" binding:"required"`
	}

	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Validation(c, "Invalid request body")
		return
	}

	assignment, err := h.taskService.AssignUser(c.Request.Context(), principal, c.Param("id"), req.AssigneeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskAssignmentDTO(*assignment))
}

// RemoveAssignment unassigns a member from a task.
func (h *TaskHandler) RemoveAssignment(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.taskService.RemoveAssignment(c.Request.Context(), principal, c.Param("id"), c.Param("assigneeId")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GenerateTasks suggests task drafts from free text.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	type GenerateRequest struct {
		Text string `json:"text" binding:"required"`
	}

	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Validation(c, "Invalid request body")
		return
	}

	drafts, err := h.taskService.GenerateDrafts(c.Request.Context(), principal, req.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": drafts})
}
