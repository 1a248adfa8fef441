package notification

import "time"

// Type is the notification category.
type Type string

const (
	TypeEvent        Type = "event"
	TypeMessage      Type = "message"
	TypeMentorship   Type = "mentorship"
	TypeContribution Type = "contribution"
	TypeSystem       Type = "system"
	TypeReminder     Type = "reminder"
)

// Valid reports whether t is one of the known categories.
func (t Type) Valid() bool {
	switch t {
	case TypeEvent, TypeMessage, TypeMentorship, TypeContribution, TypeSystem, TypeReminder:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityNormal || p == PriorityHigh
}

// Notification is a single alert shown to the user.
type Notification struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Priority  Priority       `json:"priority"`
	Read      bool           `json:"read"`
	Timestamp time.Time      `json:"timestamp"`
	ActionURL string         `json:"actionUrl,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Input carries the caller supplied part of a new notification.
// ID, Timestamp and Read are always assigned by the machine.
type Input struct {
	Type      Type
	Title     string
	Message   string
	Priority  Priority
	ActionURL string
	Data      map[string]any
}
