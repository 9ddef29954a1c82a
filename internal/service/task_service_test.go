package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	apperrors "taskpilot/internal/errors"
	"taskpilot/internal/model"
	"taskpilot/internal/repository"
)

// MockTaskRepository is a mock implementation of TaskRepository.
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) Save(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, filter repository.TaskFilter) ([]model.Task, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]model.Task), args.Get(1).(int64), args.Error(2)
}

func (m *MockTaskRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func TestTaskService_Create(t *testing.T) {
	ownerID := uuid.New()

	tests := []struct {
		name        string
		input       TaskCreate
		setupMock   func(*MockTaskRepository)
		wantErr     string
		checkResult func(*testing.T, *model.Task)
	}{
		{
			name:  "defaults applied",
			input: TaskCreate{Title: "Buy milk"},
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)
			},
			checkResult: func(t *testing.T, task *model.Task) {
				assert.Equal(t, "Buy milk", task.Title)
				assert.Equal(t, ownerID, task.UserID)
				assert.Equal(t, model.TaskStatusPending, task.Status)
				assert.Equal(t, model.TaskPriorityMedium, task.Priority)
				assert.Nil(t, task.DueDate)
			},
		},
		{
			name:  "explicit priority kept",
			input: TaskCreate{Title: "Ship release", Priority: model.TaskPriorityHigh},
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)
			},
			checkResult: func(t *testing.T, task *model.Task) {
				assert.Equal(t, model.TaskPriorityHigh, task.Priority)
			},
		},
		{
			name:      "empty title rejected",
			input:     TaskCreate{Title: ""},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   "title is required",
		},
		{
			name:      "title too long",
			input:     TaskCreate{Title: strings.Repeat("x", maxTitleLen+1)},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   "title must be at most 200 characters",
		},
		{
			name:      "description too long",
			input:     TaskCreate{Title: "ok", Description: strings.Repeat("x", maxDescriptionLen+1)},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   "description must be at most 2000 characters",
		},
		{
			name:      "invalid priority",
			input:     TaskCreate{Title: "ok", Priority: "urgent"},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   `invalid priority "urgent"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			service := NewTaskService(mockRepo, nil)
			task, err := service.Create(context.Background(), ownerID, tt.input)

			if tt.wantErr != "" {
				assert.Error(t, err)
				assert.True(t, apperrors.IsValidation(err))
				assert.Equal(t, tt.wantErr, err.Error())
				assert.Nil(t, task)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, task)
				tt.checkResult(t, task)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_Get_NotFoundReadsAsNil(t *testing.T) {
	ownerID := uuid.New()
	taskID := uuid.New()

	mockRepo := new(MockTaskRepository)
	mockRepo.On("FindByIDAndOwner", mock.Anything, taskID, ownerID).Return(nil, gorm.ErrRecordNotFound)

	service := NewTaskService(mockRepo, nil)
	task, err := service.Get(context.Background(), taskID, ownerID)

	assert.NoError(t, err)
	assert.Nil(t, task)
	mockRepo.AssertExpectations(t)
}

func TestTaskService_List(t *testing.T) {
	ownerID := uuid.New()

	t.Run("pagination bounds applied", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("ListByOwner", mock.Anything, ownerID, repository.TaskFilter{Limit: DefaultListLimit}).
			Return([]model.Task{}, int64(0), nil)

		service := NewTaskService(mockRepo, nil)
		_, _, err := service.List(context.Background(), ownerID, TaskListQuery{})
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("limit capped at maximum", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("ListByOwner", mock.Anything, ownerID, repository.TaskFilter{Limit: MaxListLimit}).
			Return([]model.Task{}, int64(0), nil)

		service := NewTaskService(mockRepo, nil)
		_, _, err := service.List(context.Background(), ownerID, TaskListQuery{Limit: 500})
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("total count precedes pagination", func(t *testing.T) {
		status := model.TaskStatusPending
		mockRepo := new(MockTaskRepository)
		mockRepo.On("ListByOwner", mock.Anything, ownerID, repository.TaskFilter{Status: &status, Limit: 2}).
			Return([]model.Task{{Title: "a"}, {Title: "b"}}, int64(5), nil)

		service := NewTaskService(mockRepo, nil)
		tasks, total, err := service.List(context.Background(), ownerID, TaskListQuery{Status: &status, Limit: 2})
		assert.NoError(t, err)
		assert.Len(t, tasks, 2)
		assert.Equal(t, int64(5), total)
		mockRepo.AssertExpectations(t)
	})

	t.Run("invalid status filter", func(t *testing.T) {
		bad := model.TaskStatus("archived")
		service := NewTaskService(new(MockTaskRepository), nil)
		_, _, err := service.List(context.Background(), ownerID, TaskListQuery{Status: &bad})
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestTaskService_Update(t *testing.T) {
	ownerID := uuid.New()
	taskID := uuid.New()

	existing := func() *model.Task {
		return &model.Task{
			ID:          taskID,
			UserID:      ownerID,
			Title:       "Original title",
			Description: "Original description",
			Status:      model.TaskStatusPending,
			Priority:    model.TaskPriorityMedium,
			UpdatedAt:   time.Now().Add(-time.Hour),
		}
	}

	t.Run("partial update leaves other fields intact", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByIDAndOwner", mock.Anything, taskID, ownerID).Return(existing(), nil)
		mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

		service := NewTaskService(mockRepo, nil)
		newStatus := model.TaskStatusInProgress
		before := time.Now()
		task, err := service.Update(context.Background(), taskID, ownerID, TaskUpdate{Status: &newStatus})

		assert.NoError(t, err)
		assert.Equal(t, model.TaskStatusInProgress, task.Status)
		assert.Equal(t, "Original title", task.Title)
		assert.Equal(t, "Original description", task.Description)
		assert.Equal(t, model.TaskPriorityMedium, task.Priority)
		assert.False(t, task.UpdatedAt.Before(before))
		mockRepo.AssertExpectations(t)
	})

	t.Run("empty update rejected", func(t *testing.T) {
		service := NewTaskService(new(MockTaskRepository), nil)
		task, err := service.Update(context.Background(), taskID, ownerID, TaskUpdate{})

		assert.True(t, apperrors.IsValidation(err))
		assert.Equal(t, "no fields provided", err.Error())
		assert.Nil(t, task)
	})

	t.Run("foreign task reads as nil", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByIDAndOwner", mock.Anything, taskID, ownerID).Return(nil, gorm.ErrRecordNotFound)

		service := NewTaskService(mockRepo, nil)
		title := "New title"
		task, err := service.Update(context.Background(), taskID, ownerID, TaskUpdate{Title: &title})

		assert.NoError(t, err)
		assert.Nil(t, task)
		mockRepo.AssertExpectations(t)
	})

	t.Run("invalid status rejected before lookup", func(t *testing.T) {
		service := NewTaskService(new(MockTaskRepository), nil)
		bad := model.TaskStatus("archived")
		task, err := service.Update(context.Background(), taskID, ownerID, TaskUpdate{Status: &bad})

		assert.True(t, apperrors.IsValidation(err))
		assert.Nil(t, task)
	})
}

func TestTaskService_Delete(t *testing.T) {
	ownerID := uuid.New()
	taskID := uuid.New()

	t.Run("deleted", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("DeleteByIDAndOwner", mock.Anything, taskID, ownerID).Return(int64(1), nil)

		service := NewTaskService(mockRepo, nil)
		deleted, err := service.Delete(context.Background(), taskID, ownerID)
		assert.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("missing task is not an error", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("DeleteByIDAndOwner", mock.Anything, taskID, ownerID).Return(int64(0), nil)

		service := NewTaskService(mockRepo, nil)
		deleted, err := service.Delete(context.Background(), taskID, ownerID)
		assert.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestTaskService_Complete(t *testing.T) {
	ownerID := uuid.New()
	taskID := uuid.New()

	mockRepo := new(MockTaskRepository)
	mockRepo.On("FindByIDAndOwner", mock.Anything, taskID, ownerID).Return(&model.Task{
		ID:     taskID,
		UserID: ownerID,
		Title:  "Finish report",
		Status: model.TaskStatusInProgress,
	}, nil)
	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

	service := NewTaskService(mockRepo, nil)
	task, err := service.Complete(context.Background(), taskID, ownerID)

	assert.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, task.Status)
	mockRepo.AssertExpectations(t)
}
