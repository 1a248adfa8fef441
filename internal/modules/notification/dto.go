package notification

import (
	"seswa/internal/domain/notification"
)

// CreateNotificationRequest adds a notification for the caller.
type CreateNotificationRequest struct {
	Type      notification.Type     `json:"type" validate:"omitempty,oneof=event message mentorship contribution system reminder"`
	Title     string                `json:"title" validate:"required,max=200"`
	Message   string                `json:"message" validate:"max=2000"`
	Priority  notification.Priority `json:"priority" validate:"omitempty,oneof=low normal high"`
	ActionURL string                `json:"actionUrl" validate:"omitempty,max=500"`
	Data      map[string]any        `json:"data"`
}

// BroadcastRequest sends a system notification to every open session.
type BroadcastRequest struct {
	Title    string                `json:"title" validate:"required,max=200"`
	Message  string                `json:"message" validate:"max=2000"`
	Priority notification.Priority `json:"priority" validate:"omitempty,oneof=low normal high"`
}

type ListResponse struct {
	Notifications []notification.Notification `json:"notifications"`
	UnreadCount   int                         `json:"unreadCount"`
}
