package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Chat message roles, mirroring the generation backend's convention.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ChatMessage is a single turn of a conversation session.
type ChatMessage struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Role      string
	Content   string
	CreatedAt time.Time
}

// ConversationRepository persists chat history per session.
type ConversationRepository interface {
	SaveMessage(ctx context.Context, msg *ChatMessage) error
	// RecentMessages returns up to limit messages for the session in
	// chronological order.
	RecentMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]ChatMessage, error)
}
