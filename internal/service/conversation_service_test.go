package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"taskpilot/internal/agent"
	apperrors "taskpilot/internal/errors"
	"taskpilot/internal/model"
)

// MockConversationRepository is a mock implementation of ConversationRepository.
type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) Create(ctx context.Context, conversation *model.Conversation) error {
	args := m.Called(ctx, conversation)
	return args.Error(0)
}

func (m *MockConversationRepository) FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*model.Conversation, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *MockConversationRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Conversation, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Conversation), args.Error(1)
}

func (m *MockConversationRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockConversationRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConversationRepository) CreateMessage(ctx context.Context, message *model.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockConversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]model.Message, error) {
	args := m.Called(ctx, conversationID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MockConversationRepository) DeleteMessages(ctx context.Context, conversationID uuid.UUID) error {
	args := m.Called(ctx, conversationID)
	return args.Error(0)
}

// MockClassifier is a mock implementation of agent.Classifier.
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, input string) (*agent.Intent, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agent.Intent), args.Error(1)
}

// MockExecutor is a mock implementation of agent.Executor.
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, op agent.Operation, rawArgs map[string]any, ownerID uuid.UUID) agent.Result {
	args := m.Called(ctx, op, rawArgs, ownerID)
	return args.Get(0).(agent.Result)
}

func newConversationServiceAt(repo *MockConversationRepository, classifier *MockClassifier, executor *MockExecutor, now time.Time) *conversationService {
	return &conversationService{
		repo:       repo,
		classifier: classifier,
		executor:   executor,
		now:        func() time.Time { return now },
	}
}

func TestConversationService_Create(t *testing.T) {
	ownerID := uuid.New()
	now := time.Date(2025, time.March, 4, 10, 30, 0, 0, time.UTC)

	t.Run("explicit title kept", func(t *testing.T) {
		mockRepo := new(MockConversationRepository)
		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Conversation")).Return(nil)

		service := newConversationServiceAt(mockRepo, nil, nil, now)
		conversation, err := service.Create(context.Background(), ownerID, "Planning")

		assert.NoError(t, err)
		assert.Equal(t, "Planning", conversation.Title)
		assert.Equal(t, ownerID, conversation.UserID)
		assert.True(t, conversation.Active)
	})

	t.Run("default title derived from creation time", func(t *testing.T) {
		mockRepo := new(MockConversationRepository)
		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Conversation")).Return(nil)

		service := newConversationServiceAt(mockRepo, nil, nil, now)
		conversation, err := service.Create(context.Background(), ownerID, "")

		assert.NoError(t, err)
		assert.Equal(t, "Conversation Mar 4, 2025 10:30", conversation.Title)
	})
}

func TestConversationService_Delete(t *testing.T) {
	ownerID := uuid.New()
	conversationID := uuid.New()

	t.Run("messages removed before the conversation", func(t *testing.T) {
		mockRepo := new(MockConversationRepository)
		mockRepo.On("FindByIDAndOwner", mock.Anything, conversationID, ownerID).
			Return(&model.Conversation{ID: conversationID, UserID: ownerID}, nil)
		mockRepo.On("DeleteMessages", mock.Anything, conversationID).Return(nil)
		mockRepo.On("DeleteByIDAndOwner", mock.Anything, conversationID, ownerID).Return(int64(1), nil)

		service := newConversationServiceAt(mockRepo, nil, nil, time.Now())
		deleted, err := service.Delete(context.Background(), conversationID, ownerID)

		assert.NoError(t, err)
		assert.True(t, deleted)
		mockRepo.AssertExpectations(t)
	})

	t.Run("foreign conversation leaves messages untouched", func(t *testing.T) {
		mockRepo := new(MockConversationRepository)
		mockRepo.On("FindByIDAndOwner", mock.Anything, conversationID, ownerID).
			Return(nil, gorm.ErrRecordNotFound)

		service := newConversationServiceAt(mockRepo, nil, nil, time.Now())
		deleted, err := service.Delete(context.Background(), conversationID, ownerID)

		assert.NoError(t, err)
		assert.False(t, deleted)
		mockRepo.AssertNotCalled(t, "DeleteMessages", mock.Anything, mock.Anything)
		mockRepo.AssertNotCalled(t, "DeleteByIDAndOwner", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestConversationService_ListMessages(t *testing.T) {
	ownerID := uuid.New()
	conversationID := uuid.New()

	t.Run("ownership checked first", func(t *testing.T) {
		mockRepo := new(MockConversationRepository)
		mockRepo.On("FindByIDAndOwner", mock.Anything, conversationID, ownerID).Return(nil, gorm.ErrRecordNotFound)

		service := newConversationServiceAt(mockRepo, nil, nil, time.Now())
		messages, err := service.ListMessages(context.Background(), conversationID, ownerID, 0)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.Nil(t, messages)
		mockRepo.AssertExpectations(t)
	})

	t.Run("limit forwarded to repository", func(t *testing.T) {
		mockRepo := new(MockConversationRepository)
		mockRepo.On("FindByIDAndOwner", mock.Anything, conversationID, ownerID).
			Return(&model.Conversation{ID: conversationID, UserID: ownerID}, nil)
		mockRepo.On("ListMessages", mock.Anything, conversationID, 10).
			Return([]model.Message{{Content: "hi"}, {Content: "hello"}}, nil)

		service := newConversationServiceAt(mockRepo, nil, nil, time.Now())
		messages, err := service.ListMessages(context.Background(), conversationID, ownerID, 10)

		assert.NoError(t, err)
		assert.Len(t, messages, 2)
		mockRepo.AssertExpectations(t)
	})
}

func TestConversationService_AppendMessage(t *testing.T) {
	conversationID := uuid.New()
	now := time.Now()

	t.Run("stores message and touches conversation", func(t *testing.T) {
		mockRepo := new(MockConversationRepository)
		mockRepo.On("CreateMessage", mock.Anything, mock.AnythingOfType("*model.Message")).Return(nil)
		mockRepo.On("Touch", mock.Anything, conversationID, now).Return(nil)

		service := newConversationServiceAt(mockRepo, nil, nil, now)
		message, err := service.AppendMessage(context.Background(), conversationID, model.SenderUser, "hello", "")

		assert.NoError(t, err)
		assert.Equal(t, model.SenderUser, message.SenderKind)
		assert.Equal(t, "hello", message.Content)
		mockRepo.AssertExpectations(t)
	})

	t.Run("blank content rejected", func(t *testing.T) {
		service := newConversationServiceAt(new(MockConversationRepository), nil, nil, now)
		message, err := service.AppendMessage(context.Background(), conversationID, model.SenderUser, "   ", "")

		assert.True(t, apperrors.IsValidation(err))
		assert.Nil(t, message)
	})

	t.Run("invalid sender kind rejected", func(t *testing.T) {
		service := newConversationServiceAt(new(MockConversationRepository), nil, nil, now)
		message, err := service.AppendMessage(context.Background(), conversationID, model.SenderKind("bot"), "hello", "")

		assert.True(t, apperrors.IsValidation(err))
		assert.Nil(t, message)
	})
}

func TestConversationService_SendMessage(t *testing.T) {
	ownerID := uuid.New()
	conversationID := uuid.New()
	now := time.Now()

	conversation := &model.Conversation{ID: conversationID, UserID: ownerID, Active: true}

	t.Run("tool intent executes through the gateway", func(t *testing.T) {
		mockRepo := new(MockConversationRepository)
		mockRepo.On("FindByIDAndOwner", mock.Anything, conversationID, ownerID).Return(conversation, nil)
		mockRepo.On("CreateMessage", mock.Anything, mock.AnythingOfType("*model.Message")).Return(nil)
		mockRepo.On("Touch", mock.Anything, conversationID, now).Return(nil)

		mockClassifier := new(MockClassifier)
		mockClassifier.On("Classify", mock.Anything, `create a task called "Buy milk"`).Return(&agent.Intent{
			Operation: agent.OpTaskCreate,
			Arguments: map[string]any{"title": "Buy milk"},
		}, nil)

		mockExecutor := new(MockExecutor)
		mockExecutor.On("Execute", mock.Anything, agent.OpTaskCreate, map[string]any{"title": "Buy milk"}, ownerID).
			Return(agent.Result{Success: true, Result: &model.Task{
				ID:       uuid.New(),
				Title:    "Buy milk",
				Priority: model.TaskPriorityMedium,
			}})

		service := newConversationServiceAt(mockRepo, mockClassifier, mockExecutor, now)
		userMsg, assistantMsg, err := service.SendMessage(context.Background(), conversationID, ownerID, `create a task called "Buy milk"`)

		assert.NoError(t, err)
		assert.Equal(t, model.SenderUser, userMsg.SenderKind)
		assert.Equal(t, model.SenderAssistant, assistantMsg.SenderKind)
		assert.Contains(t, assistantMsg.Content, `Created task "Buy milk"`)
		assert.Contains(t, assistantMsg.Metadata, `"operation":"task_create"`)
		assert.Contains(t, assistantMsg.Metadata, `"success":true`)

		mockRepo.AssertExpectations(t)
		mockClassifier.AssertExpectations(t)
		mockExecutor.AssertExpectations(t)
	})

	t.Run("conversational intent skips the gateway", func(t *testing.T) {
		mockRepo := new(MockConversationRepository)
		mockRepo.On("FindByIDAndOwner", mock.Anything, conversationID, ownerID).Return(conversation, nil)
		mockRepo.On("CreateMessage", mock.Anything, mock.AnythingOfType("*model.Message")).Return(nil)
		mockRepo.On("Touch", mock.Anything, conversationID, now).Return(nil)

		mockClassifier := new(MockClassifier)
		mockClassifier.On("Classify", mock.Anything, "hello").Return(&agent.Intent{
			Message: "Hello! What would you like to do?",
		}, nil)

		mockExecutor := new(MockExecutor)

		service := newConversationServiceAt(mockRepo, mockClassifier, mockExecutor, now)
		_, assistantMsg, err := service.SendMessage(context.Background(), conversationID, ownerID, "hello")

		assert.NoError(t, err)
		assert.Equal(t, "Hello! What would you like to do?", assistantMsg.Content)
		assert.Empty(t, assistantMsg.Metadata)
		mockExecutor.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("classifier outage degrades to a canned reply", func(t *testing.T) {
		mockRepo := new(MockConversationRepository)
		mockRepo.On("FindByIDAndOwner", mock.Anything, conversationID, ownerID).Return(conversation, nil)
		mockRepo.On("CreateMessage", mock.Anything, mock.AnythingOfType("*model.Message")).Return(nil)
		mockRepo.On("Touch", mock.Anything, conversationID, now).Return(nil)

		mockClassifier := new(MockClassifier)
		mockClassifier.On("Classify", mock.Anything, "list my tasks").Return(nil, errors.New("upstream timeout"))

		service := newConversationServiceAt(mockRepo, mockClassifier, new(MockExecutor), now)
		userMsg, assistantMsg, err := service.SendMessage(context.Background(), conversationID, ownerID, "list my tasks")

		assert.NoError(t, err)
		assert.NotNil(t, userMsg)
		assert.Contains(t, assistantMsg.Content, "trouble reaching my assistant")
		assert.Contains(t, assistantMsg.Metadata, `"success":false`)
	})

	t.Run("foreign conversation reads as not found", func(t *testing.T) {
		mockRepo := new(MockConversationRepository)
		mockRepo.On("FindByIDAndOwner", mock.Anything, conversationID, ownerID).Return(nil, gorm.ErrRecordNotFound)

		service := newConversationServiceAt(mockRepo, new(MockClassifier), new(MockExecutor), now)
		userMsg, assistantMsg, err := service.SendMessage(context.Background(), conversationID, ownerID, "hello")

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.Nil(t, userMsg)
		assert.Nil(t, assistantMsg)
	})
}

func TestRenderResult(t *testing.T) {
	t.Run("failure echoes the envelope error", func(t *testing.T) {
		reply := renderResult(agent.OpTaskDelete, agent.Result{Success: false, Error: "task not found or not owned by caller"})
		assert.Equal(t, "task not found or not owned by caller", reply)
	})

	t.Run("empty listing", func(t *testing.T) {
		reply := renderResult(agent.OpTaskList, agent.Result{Success: true, Result: map[string]any{
			"tasks":       []model.Task{},
			"total_count": int64(0),
		}})
		assert.Equal(t, "You have no matching tasks.", reply)
	})

	t.Run("listing summarizes titles and total", func(t *testing.T) {
		reply := renderResult(agent.OpTaskList, agent.Result{Success: true, Result: map[string]any{
			"tasks":       []model.Task{{Title: "a", Status: model.TaskStatusPending}},
			"total_count": int64(3),
		}})
		assert.Contains(t, reply, "3 matching task(s)")
		assert.Contains(t, reply, `"a" (pending)`)
	})
}
