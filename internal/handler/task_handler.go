package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"taskpilot/internal/errors"
	"taskpilot/internal/model"
	"taskpilot/internal/service"
)

// TaskHandler handles task endpoints. Every operation is scoped to the
// authenticated owner.
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// CreateTaskRequest represents a task creation request.
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"omitempty,max=2000"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateTaskRequest represents a partial task update. Absent fields are left
// untouched.
type UpdateTaskRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Status      *string    `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	DueDate     *time.Time `json:"due_date"`
}

// ListTasksQuery represents task listing filters and pagination.
type ListTasksQuery struct {
	Status   string `query:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Priority string `query:"priority" validate:"omitempty,oneof=low medium high critical"`
	Limit    int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset   int    `query:"offset" validate:"omitempty,min=0"`
}

// TaskListResponse pairs one page of tasks with the total matching count.
type TaskListResponse struct {
	Tasks      []model.Task `json:"tasks"`
	TotalCount int64        `json:"total_count"`
}

// List godoc
// @Summary List the caller's tasks
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param priority query string false "Filter by priority"
// @Param limit query int false "Page size (default 50, max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {object} TaskListResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var query ListTasksQuery
	if err := c.Bind(&query); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if err := c.Validate(&query); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	listQuery := service.TaskListQuery{Limit: query.Limit, Offset: query.Offset}
	if query.Status != "" {
		status := model.TaskStatus(query.Status)
		listQuery.Status = &status
	}
	if query.Priority != "" {
		priority := model.TaskPriority(query.Priority)
		listQuery.Priority = &priority
	}

	tasks, total, err := h.taskService.List(c.Request().Context(), userID, listQuery)
	if err != nil {
		return toHTTPError(err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return c.JSON(http.StatusOK, TaskListResponse{Tasks: tasks, TotalCount: total})
}

// Create godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTaskRequest true "Task data"
// @Success 201 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.Create(c.Request().Context(), userID, service.TaskCreate{
		Title:       req.Title,
		Description: req.Description,
		Priority:    model.TaskPriority(req.Priority),
		DueDate:     req.DueDate,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, task)
}

// Get godoc
// @Summary Get one task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task id"
// @Success 200 {object} model.Task
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	taskID, ok := parseTaskID(c)
	if !ok {
		return taskNotFound()
	}

	task, err := h.taskService.Get(c.Request().Context(), taskID, userID)
	if err != nil {
		return toHTTPError(err)
	}
	if task == nil {
		return taskNotFound()
	}
	return c.JSON(http.StatusOK, task)
}

// Update godoc
// @Summary Update a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task id"
// @Param request body UpdateTaskRequest true "Fields to update"
// @Success 200 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	taskID, ok := parseTaskID(c)
	if !ok {
		return taskNotFound()
	}

	var req UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	update := service.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if req.Status != nil {
		status := model.TaskStatus(*req.Status)
		update.Status = &status
	}
	if req.Priority != nil {
		priority := model.TaskPriority(*req.Priority)
		update.Priority = &priority
	}

	task, err := h.taskService.Update(c.Request().Context(), taskID, userID, update)
	if err != nil {
		return toHTTPError(err)
	}
	if task == nil {
		return taskNotFound()
	}
	return c.JSON(http.StatusOK, task)
}

// Delete godoc
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task id"
// @Success 200 {object} map[string]string
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	taskID, ok := parseTaskID(c)
	if !ok {
		return taskNotFound()
	}

	deleted, err := h.taskService.Delete(c.Request().Context(), taskID, userID)
	if err != nil {
		return toHTTPError(err)
	}
	if !deleted {
		return taskNotFound()
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "task deleted successfully"})
}

// Complete godoc
// @Summary Mark a task completed
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task id"
// @Success 200 {object} model.Task
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id}/complete [patch]
func (h *TaskHandler) Complete(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	taskID, ok := parseTaskID(c)
	if !ok {
		return taskNotFound()
	}

	task, err := h.taskService.Complete(c.Request().Context(), taskID, userID)
	if err != nil {
		return toHTTPError(err)
	}
	if task == nil {
		return taskNotFound()
	}
	return c.JSON(http.StatusOK, task)
}

// parseTaskID reads the path id. A malformed id cannot exist, so it reads as
// not-found rather than a validation fault.
func parseTaskID(c echo.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func taskNotFound() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusNotFound, errors.ErrorResponse{
		Error: "task not found",
		Code:  "NOT_FOUND",
	})
}
