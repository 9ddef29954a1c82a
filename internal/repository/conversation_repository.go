package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskpilot/internal/model"
)

// ConversationRepository defines conversation and message persistence.
// Conversation lookups are owner-scoped; messages hang off their conversation
// by foreign key only, never a live back-pointer graph.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *model.Conversation) error
	FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*model.Conversation, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Conversation, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (int64, error)
	CreateMessage(ctx context.Context, message *model.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]model.Message, error)
	DeleteMessages(ctx context.Context, conversationID uuid.UUID) error
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository builds a GORM-backed repository.
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(ctx context.Context, conversation *model.Conversation) error {
	return r.db.WithContext(ctx).Create(conversation).Error
}

func (r *conversationRepository) FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*model.Conversation, error) {
	var conversation model.Conversation
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Conversation, error) {
	var conversations []model.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

// Touch bumps a conversation's updated_at so owner listings reflect activity.
func (r *conversationRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", at).Error
}

func (r *conversationRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&model.Conversation{})
	return res.RowsAffected, res.Error
}

func (r *conversationRepository) CreateMessage(ctx context.Context, message *model.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// ListMessages returns messages in ascending creation order. A positive limit
// selects the most recent N, still returned ascending.
func (r *conversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]model.Message, error) {
	var messages []model.Message
	query := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)

	if limit > 0 {
		err := query.Order("created_at DESC").Limit(limit).Find(&messages).Error
		if err != nil {
			return nil, err
		}
		// Flip back to ascending order.
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
		return messages, nil
	}

	if err := query.Order("created_at ASC").Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *conversationRepository) DeleteMessages(ctx context.Context, conversationID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Delete(&model.Message{}).Error
}
