package notification

import (
	"fmt"
	"time"
)

const previewLength = 100

// Event describes an association event a notification points to.
type Event struct {
	ID    string
	Title string
	Date  time.Time
}

func (m *Machine) CreateEventNotification(ev Event) Notification {
	msg := fmt.Sprintf("%s has been scheduled.", ev.Title)
	if !ev.Date.IsZero() {
		msg = fmt.Sprintf("%s is scheduled for %s.", ev.Title, ev.Date.Format("Jan 2, 2006"))
	}
	return m.AddNotification(Input{
		Type:      TypeEvent,
		Title:     "New event: " + ev.Title,
		Message:   msg,
		Priority:  PriorityNormal,
		ActionURL: linkTo("/events", ev.ID),
		Data:      map[string]any{"eventId": ev.ID},
	})
}

func (m *Machine) CreateMessageNotification(senderName, content, chatID string) Notification {
	return m.AddNotification(Input{
		Type:      TypeMessage,
		Title:     "New message from " + senderName,
		Message:   preview(content),
		Priority:  PriorityNormal,
		ActionURL: linkTo("/chat", chatID),
		Data:      map[string]any{"chatId": chatID, "senderName": senderName},
	})
}

func (m *Machine) CreateMentorshipNotification(title, message, mentorshipID string) Notification {
	return m.AddNotification(Input{
		Type:      TypeMentorship,
		Title:     title,
		Message:   message,
		Priority:  PriorityHigh,
		ActionURL: linkTo("/mentorship", mentorshipID),
		Data:      map[string]any{"mentorshipId": mentorshipID},
	})
}

func (m *Machine) CreateContributionNotification(title, message, contributionID string) Notification {
	return m.AddNotification(Input{
		Type:      TypeContribution,
		Title:     title,
		Message:   message,
		Priority:  PriorityNormal,
		ActionURL: linkTo("/contributions", contributionID),
		Data:      map[string]any{"contributionId": contributionID},
	})
}

func (m *Machine) CreateSystemNotification(title, message string, priority Priority) Notification {
	return m.AddNotification(Input{
		Type:     TypeSystem,
		Title:    title,
		Message:  message,
		Priority: priority,
	})
}

// CreateReminderNotification reminds the user about something due at remindAt.
func (m *Machine) CreateReminderNotification(title, message string, remindAt time.Time, actionURL string) Notification {
	var data map[string]any
	if !remindAt.IsZero() {
		data = map[string]any{"remindAt": remindAt.UTC().Format(time.RFC3339)}
	}
	return m.AddNotification(Input{
		Type:      TypeReminder,
		Title:     title,
		Message:   message,
		Priority:  PriorityHigh,
		ActionURL: actionURL,
		Data:      data,
	})
}

func linkTo(base, id string) string {
	if id == "" {
		return base
	}
	return base + "/" + id
}

func preview(content string) string {
	r := []rune(content)
	if len(r) <= previewLength {
		return content
	}
	return string(r[:previewLength]) + "..."
}
