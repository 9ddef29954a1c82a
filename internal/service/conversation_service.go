package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskpilot/internal/agent"
	apperrors "taskpilot/internal/errors"
	"taskpilot/internal/model"
	"taskpilot/internal/repository"
)

const maxMessageLen = 5000

// ConversationService owns conversations and their ordered message logs, and
// drives the chat turn: persist the user message, route it through the
// classifier and the tool gateway, persist the assistant reply.
type ConversationService interface {
	Create(ctx context.Context, ownerID uuid.UUID, title string) (*model.Conversation, error)
	Get(ctx context.Context, conversationID, ownerID uuid.UUID) (*model.Conversation, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Conversation, error)
	Delete(ctx context.Context, conversationID, ownerID uuid.UUID) (bool, error)
	ListMessages(ctx context.Context, conversationID, ownerID uuid.UUID, limit int) ([]model.Message, error)
	AppendMessage(ctx context.Context, conversationID uuid.UUID, kind model.SenderKind, content, metadata string) (*model.Message, error)
	SendMessage(ctx context.Context, conversationID, ownerID uuid.UUID, content string) (userMsg, assistantMsg *model.Message, err error)
}

type conversationService struct {
	repo       repository.ConversationRepository
	classifier agent.Classifier
	executor   agent.Executor
	now        func() time.Time
}

// NewConversationService creates a new conversation service.
func NewConversationService(repo repository.ConversationRepository, classifier agent.Classifier, executor agent.Executor) ConversationService {
	return &conversationService{
		repo:       repo,
		classifier: classifier,
		executor:   executor,
		now:        time.Now,
	}
}

// Create starts a conversation. When no title is given one is derived from
// the creation time.
func (s *conversationService) Create(ctx context.Context, ownerID uuid.UUID, title string) (*model.Conversation, error) {
	if title == "" {
		title = "Conversation " + s.now().Format("Jan 2, 2006 15:04")
	}
	conversation := &model.Conversation{
		UserID: ownerID,
		Title:  title,
		Active: true,
	}
	if err := s.repo.Create(ctx, conversation); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conversation, nil
}

// Get returns the conversation, or nil when it is absent or owned by someone
// else.
func (s *conversationService) Get(ctx context.Context, conversationID, ownerID uuid.UUID) (*model.Conversation, error) {
	conversation, err := s.repo.FindByIDAndOwner(ctx, conversationID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return conversation, nil
}

// ListByOwner returns the owner's conversations, most recently updated first.
func (s *conversationService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Conversation, error) {
	conversations, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}

// Delete removes a conversation together with its message log. Messages never
// outlive their conversation. Missing or foreign conversations return false,
// never an error, and leave no messages touched.
func (s *conversationService) Delete(ctx context.Context, conversationID, ownerID uuid.UUID) (bool, error) {
	conversation, err := s.Get(ctx, conversationID, ownerID)
	if err != nil {
		return false, err
	}
	if conversation == nil {
		return false, nil
	}

	if err := s.repo.DeleteMessages(ctx, conversationID); err != nil {
		return false, fmt.Errorf("delete messages: %w", err)
	}
	if _, err := s.repo.DeleteByIDAndOwner(ctx, conversationID, ownerID); err != nil {
		return false, fmt.Errorf("delete conversation: %w", err)
	}
	return true, nil
}

// ListMessages returns messages ascending by creation time. A positive limit
// selects the most recent N, still ascending. Foreign conversations read as
// not-found.
func (s *conversationService) ListMessages(ctx context.Context, conversationID, ownerID uuid.UUID, limit int) ([]model.Message, error) {
	conversation, err := s.Get(ctx, conversationID, ownerID)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, apperrors.ErrNotFound
	}

	messages, err := s.repo.ListMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// AppendMessage validates and stores one immutable turn, bumping the
// conversation's updated_at.
func (s *conversationService) AppendMessage(ctx context.Context, conversationID uuid.UUID, kind model.SenderKind, content, metadata string) (*model.Message, error) {
	if !kind.IsValid() {
		return nil, apperrors.NewValidation("invalid sender kind %q", string(kind))
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidation("message content is required")
	}
	if utf8.RuneCountInString(content) > maxMessageLen {
		return nil, apperrors.NewValidation("message content must be at most %d characters", maxMessageLen)
	}

	message := &model.Message{
		ConversationID: conversationID,
		SenderKind:     kind,
		Content:        content,
		Metadata:       metadata,
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	if err := s.repo.Touch(ctx, conversationID, s.now()); err != nil {
		log.Printf("touch conversation %s: %v", conversationID, err)
	}
	return message, nil
}

// SendMessage runs one chat turn for the owner: the user message is stored,
// routed through the intent classifier, executed through the gateway when it
// maps to an operation, and answered with a stored assistant message. A
// classifier outage degrades to a canned reply, never a dropped turn.
func (s *conversationService) SendMessage(ctx context.Context, conversationID, ownerID uuid.UUID, content string) (*model.Message, *model.Message, error) {
	conversation, err := s.Get(ctx, conversationID, ownerID)
	if err != nil {
		return nil, nil, err
	}
	if conversation == nil {
		return nil, nil, apperrors.ErrNotFound
	}

	userMsg, err := s.AppendMessage(ctx, conversationID, model.SenderUser, content, "")
	if err != nil {
		return nil, nil, err
	}

	reply, metadata := s.runIntent(ctx, ownerID, content)

	assistantMsg, err := s.AppendMessage(ctx, conversationID, model.SenderAssistant, reply, metadata)
	if err != nil {
		return nil, nil, err
	}
	return userMsg, assistantMsg, nil
}

// runIntent classifies the utterance and executes the resulting operation,
// returning the assistant reply text and its metadata JSON.
func (s *conversationService) runIntent(ctx context.Context, ownerID uuid.UUID, content string) (string, string) {
	intent, err := s.classifier.Classify(ctx, content)
	if err != nil {
		log.Printf("classify intent: %v", err)
		return "I'm having trouble reaching my assistant right now, please try again in a moment.",
			toolMetadata("", false, apperrors.ErrNetwork.Error())
	}

	if !intent.IsToolCall() {
		return intent.Message, ""
	}

	result := s.executor.Execute(ctx, intent.Operation, intent.Arguments, ownerID)
	return renderResult(intent.Operation, result), toolMetadata(intent.Operation, result.Success, result.Error)
}

// renderResult turns a tool envelope into a short human-readable reply.
func renderResult(op agent.Operation, result agent.Result) string {
	if !result.Success {
		return result.Error
	}

	switch op {
	case agent.OpTaskCreate:
		if task, ok := result.Result.(*model.Task); ok {
			return fmt.Sprintf("Created task %q with %s priority (id %s).", task.Title, task.Priority, task.ID)
		}
	case agent.OpTaskList:
		if data, ok := result.Result.(map[string]any); ok {
			tasks, _ := data["tasks"].([]model.Task)
			total, _ := data["total_count"].(int64)
			if total == 0 {
				return "You have no matching tasks."
			}
			titles := make([]string, 0, len(tasks))
			for _, task := range tasks {
				titles = append(titles, fmt.Sprintf("%q (%s)", task.Title, task.Status))
			}
			return fmt.Sprintf("You have %d matching task(s): %s", total, strings.Join(titles, ", "))
		}
	case agent.OpTaskUpdate:
		if task, ok := result.Result.(*model.Task); ok {
			return fmt.Sprintf("Updated task %q.", task.Title)
		}
	case agent.OpTaskDelete:
		return "Task deleted."
	case agent.OpTaskComplete:
		if task, ok := result.Result.(*model.Task); ok {
			return fmt.Sprintf("Marked %q as completed.", task.Title)
		}
	}
	return "Done."
}

// toolMetadata records the envelope outcome on the assistant message.
func toolMetadata(op agent.Operation, success bool, errMsg string) string {
	payload := map[string]any{"success": success}
	if op != "" {
		payload["operation"] = string(op)
	}
	if errMsg != "" {
		payload["error"] = errMsg
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(data)
}
