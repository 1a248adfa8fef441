package chat

import (
	"time"

	"github.com/google/uuid"

	"seswa/internal/domain"
)

// Well-known participants of the default threads.
const (
	MentorID      = "mentor_1"
	StudentID     = "student_1"
	AssociationID = "seswa_team"
	SystemSender  = "system"
)

var displayNames = map[string]string{
	MentorID:      "Dr. Sarah Johnson",
	StudentID:     "Alex Kumar",
	AssociationID: "SESWA Team",
	SystemSender:  "SESWA",
}

// DisplayName returns the name shown for a well-known participant, or the id
// itself when the participant is unknown.
func DisplayName(userID string) string {
	if n, ok := displayNames[userID]; ok {
		return n
	}
	return userID
}

// DefaultThreads returns the threads a user starts with, chosen by role.
func DefaultThreads(owner domain.User, now time.Time) []Thread {
	switch owner.Role {
	case domain.RoleStudent:
		welcome := Message{
			ID:         uuid.NewString(),
			SenderID:   MentorID,
			SenderName: DisplayName(MentorID),
			Content:    "Welcome to SESWA mentorship! Feel free to ask me anything about your studies or career.",
			Type:       MessageText,
			Timestamp:  now,
		}
		return []Thread{
			newThread("Mentor Support", ThreadMentorship, owner.ID, []string{MentorID}, now, welcome),
			newThread("SESWA Students", ThreadGroup, owner.ID, []string{AssociationID}, now),
		}
	case domain.RoleAlumni:
		return []Thread{
			newThread("Alumni Network", ThreadGroup, owner.ID, []string{AssociationID}, now),
			newThread("Mentorship Requests", ThreadMentorship, owner.ID, []string{StudentID}, now),
		}
	default:
		return []Thread{
			newThread("SESWA Announcements", ThreadGroup, owner.ID, []string{AssociationID}, now),
		}
	}
}

func newThread(name string, typ ThreadType, ownerID string, others []string, now time.Time, msgs ...Message) Thread {
	if msgs == nil {
		msgs = []Message{}
	}
	return Thread{
		ID:           uuid.NewString(),
		Name:         name,
		Type:         typ,
		Participants: withOwner(ownerID, others),
		Messages:     msgs,
		LastMessage:  lastOf(msgs),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
