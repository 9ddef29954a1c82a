package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskpilot/internal/cache"
	apperrors "taskpilot/internal/errors"
	"taskpilot/internal/model"
	"taskpilot/internal/repository"
)

const (
	taskCacheTTL = 5 * time.Minute

	maxTitleLen       = 200
	maxDescriptionLen = 2000

	// DefaultListLimit and MaxListLimit bound task listings.
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// TaskCreate carries input for creating a task. Zero-valued optional fields
// fall back to their defaults.
type TaskCreate struct {
	Title       string
	Description string
	Priority    model.TaskPriority
	DueDate     *time.Time
}

// TaskUpdate carries a partial update. Nil fields are left untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *model.TaskStatus
	Priority    *model.TaskPriority
	DueDate     *time.Time
}

// Empty reports whether no field is set.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.Priority == nil && u.DueDate == nil
}

// TaskListQuery narrows and paginates a listing.
type TaskListQuery struct {
	Status   *model.TaskStatus
	Priority *model.TaskPriority
	Limit    int
	Offset   int
}

// TaskService handles owner-scoped task operations. Lookups where the id
// exists but belongs to another owner return (nil, nil), indistinguishable
// from the id not existing.
type TaskService interface {
	Create(ctx context.Context, ownerID uuid.UUID, input TaskCreate) (*model.Task, error)
	Get(ctx context.Context, taskID, ownerID uuid.UUID) (*model.Task, error)
	List(ctx context.Context, ownerID uuid.UUID, query TaskListQuery) ([]model.Task, int64, error)
	Update(ctx context.Context, taskID, ownerID uuid.UUID, update TaskUpdate) (*model.Task, error)
	Delete(ctx context.Context, taskID, ownerID uuid.UUID) (bool, error)
	Complete(ctx context.Context, taskID, ownerID uuid.UUID) (*model.Task, error)
}

type taskService struct {
	repo  repository.TaskRepository
	cache *cache.Client
}

// NewTaskService creates a new task service.
func NewTaskService(repo repository.TaskRepository, cache *cache.Client) TaskService {
	return &taskService{repo: repo, cache: cache}
}

func (s *taskService) cacheKey(taskID, ownerID uuid.UUID) string {
	return fmt.Sprintf("task:%s:%s", ownerID.String(), taskID.String())
}

// Create validates input and stores a new task owned by ownerID.
func (s *taskService) Create(ctx context.Context, ownerID uuid.UUID, input TaskCreate) (*model.Task, error) {
	if utf8.RuneCountInString(input.Title) == 0 {
		return nil, apperrors.NewValidation("title is required")
	}
	if utf8.RuneCountInString(input.Title) > maxTitleLen {
		return nil, apperrors.NewValidation("title must be at most %d characters", maxTitleLen)
	}
	if utf8.RuneCountInString(input.Description) > maxDescriptionLen {
		return nil, apperrors.NewValidation("description must be at most %d characters", maxDescriptionLen)
	}

	priority := input.Priority
	if priority == "" {
		priority = model.TaskPriorityMedium
	}
	if !priority.IsValid() {
		return nil, apperrors.NewValidation("invalid priority %q", string(priority))
	}

	task := &model.Task{
		UserID:      ownerID,
		Title:       input.Title,
		Description: input.Description,
		Status:      model.TaskStatusPending,
		Priority:    priority,
		DueDate:     input.DueDate,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// Get retrieves a task by id for its owner, with caching.
func (s *taskService) Get(ctx context.Context, taskID, ownerID uuid.UUID) (*model.Task, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(taskID, ownerID)); data != nil {
		var cached model.Task
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	task, err := s.repo.FindByIDAndOwner(ctx, taskID, ownerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("find task: %w", err)
	}

	if payload, err := json.Marshal(task); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(taskID, ownerID), payload, taskCacheTTL)
	}
	return task, nil
}

// List returns one page of the owner's tasks plus the total matching count
// before pagination. Filters are exact-match on enum value.
func (s *taskService) List(ctx context.Context, ownerID uuid.UUID, query TaskListQuery) ([]model.Task, int64, error) {
	if query.Status != nil && !query.Status.IsValid() {
		return nil, 0, apperrors.NewValidation("invalid status %q", string(*query.Status))
	}
	if query.Priority != nil && !query.Priority.IsValid() {
		return nil, 0, apperrors.NewValidation("invalid priority %q", string(*query.Priority))
	}

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	tasks, total, err := s.repo.ListByOwner(ctx, ownerID, repository.TaskFilter{
		Status:   query.Status,
		Priority: query.Priority,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, total, nil
}

// Update applies a partial update. Only fields present in the update change;
// updated_at is always bumped.
func (s *taskService) Update(ctx context.Context, taskID, ownerID uuid.UUID, update TaskUpdate) (*model.Task, error) {
	if update.Empty() {
		return nil, apperrors.NewValidation("no fields provided")
	}
	if update.Title != nil {
		if utf8.RuneCountInString(*update.Title) == 0 {
			return nil, apperrors.NewValidation("title is required")
		}
		if utf8.RuneCountInString(*update.Title) > maxTitleLen {
			return nil, apperrors.NewValidation("title must be at most %d characters", maxTitleLen)
		}
	}
	if update.Description != nil && utf8.RuneCountInString(*update.Description) > maxDescriptionLen {
		return nil, apperrors.NewValidation("description must be at most %d characters", maxDescriptionLen)
	}
	if update.Status != nil && !update.Status.IsValid() {
		return nil, apperrors.NewValidation("invalid status %q", string(*update.Status))
	}
	if update.Priority != nil && !update.Priority.IsValid() {
		return nil, apperrors.NewValidation("invalid priority %q", string(*update.Priority))
	}

	task, err := s.repo.FindByIDAndOwner(ctx, taskID, ownerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("find task: %w", err)
	}

	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.Status != nil {
		task.Status = *update.Status
	}
	if update.Priority != nil {
		task.Priority = *update.Priority
	}
	if update.DueDate != nil {
		task.DueDate = update.DueDate
	}
	task.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(taskID, ownerID))
	return task, nil
}

// Delete removes a task. Deleting a missing or foreign task returns false,
// never an error.
func (s *taskService) Delete(ctx context.Context, taskID, ownerID uuid.UUID) (bool, error) {
	rows, err := s.repo.DeleteByIDAndOwner(ctx, taskID, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(taskID, ownerID))
	return rows > 0, nil
}

// Complete marks a task completed. Equivalent to Update with status=completed.
func (s *taskService) Complete(ctx context.Context, taskID, ownerID uuid.UUID) (*model.Task, error) {
	status := model.TaskStatusCompleted
	return s.Update(ctx, taskID, ownerID, TaskUpdate{Status: &status})
}
