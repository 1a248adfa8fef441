package chat

import (
	"seswa/internal/domain/chat"
)

type CreateChatRequest struct {
	ParticipantIDs []string        `json:"participantIds" validate:"omitempty,dive,required,max=64"`
	Name           string          `json:"name" validate:"required,max=120"`
	Type           chat.ThreadType `json:"type" validate:"omitempty,oneof=direct group mentorship"`
}

type SendMessageRequest struct {
	Content string           `json:"content" validate:"required,max=4000"`
	Type    chat.MessageType `json:"type" validate:"omitempty,oneof=text image file"`
}

type SetActiveRequest struct {
	ChatID string `json:"chatId" validate:"required"`
}

type UnreadResponse struct {
	UnreadCount int            `json:"unreadCount"`
	ByChat      map[string]int `json:"byChat"`
}
