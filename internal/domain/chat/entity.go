package chat

import "time"

// ThreadType distinguishes one-to-one, group and mentorship conversations.
type ThreadType string

const (
	ThreadDirect     ThreadType = "direct"
	ThreadGroup      ThreadType = "group"
	ThreadMentorship ThreadType = "mentorship"
)

func (t ThreadType) Valid() bool {
	return t == ThreadDirect || t == ThreadGroup || t == ThreadMentorship
}

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
	// MessageSystem is generated by the association rather than a member.
	MessageSystem MessageType = "system"
)

// Message is a single entry of a thread. Read is only meaningful for
// messages the session owner did not write.
type Message struct {
	ID         string      `json:"id"`
	SenderID   string      `json:"senderId"`
	SenderName string      `json:"senderName"`
	Content    string      `json:"content"`
	Type       MessageType `json:"type"`
	Timestamp  time.Time   `json:"timestamp"`
	Read       bool        `json:"read"`
}

// Thread is an ordered conversation. Messages are in insertion order;
// LastMessage always mirrors the final element.
type Thread struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Type         ThreadType `json:"type"`
	Participants []string   `json:"participants"`
	Messages     []Message  `json:"messages"`
	LastMessage  *Message   `json:"lastMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// HasParticipant reports whether userID takes part in the thread.
func (t Thread) HasParticipant(userID string) bool {
	for _, p := range t.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// UnreadFor counts messages not written by userID that are still unread.
func (t Thread) UnreadFor(userID string) int {
	n := 0
	for _, m := range t.Messages {
		if m.SenderID != userID && !m.Read {
			n++
		}
	}
	return n
}
