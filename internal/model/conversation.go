package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SenderKind identifies who produced a message.
type SenderKind string

const (
	SenderUser      SenderKind = "user"
	SenderAssistant SenderKind = "assistant"
	SenderSystem    SenderKind = "system"
)

// IsValid reports whether k is one of the accepted sender kinds.
func (k SenderKind) IsValid() bool {
	switch k {
	case SenderUser, SenderAssistant, SenderSystem:
		return true
	}
	return false
}

// Conversation is a thread of chat turns owned by one user.
type Conversation struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:char(36);not null;index"`
	Title     string    `json:"title" gorm:"size:255"`
	Active    bool      `json:"active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Message is one immutable turn inside a conversation, strictly ordered by
// creation time. Metadata holds optional structured data as a JSON string.
type Message struct {
	ID             uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	ConversationID uuid.UUID  `json:"conversation_id" gorm:"type:char(36);not null;index"`
	SenderKind     SenderKind `json:"sender_kind" gorm:"type:varchar(20);not null"`
	Content        string     `json:"content" gorm:"size:5000;not null"`
	Metadata       string     `json:"metadata,omitempty" gorm:"type:text"`
	CreatedAt      time.Time  `json:"created_at" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
