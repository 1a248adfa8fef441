package chat

import "time"

// State holds every thread of the session owner plus the selected thread.
type State struct {
	Chats        []Thread `json:"chats"`
	ActiveChatID string   `json:"activeChatId,omitempty"`
}

type Action interface {
	isAction()
}

type (
	// Loaded replaces the thread list.
	Loaded struct{ Chats []Thread }
	// Created appends a new thread.
	Created struct{ Thread Thread }
	// MessageAppended appends Message to thread ChatID; At is the mutation time.
	MessageAppended struct {
		ChatID  string
		Message Message
		At      time.Time
	}
	// MessagesRead marks every message in ChatID not written by ReaderID as read.
	MessagesRead struct {
		ChatID   string
		ReaderID string
	}
	// ActiveSet selects ChatID; an empty ChatID clears the selection.
	ActiveSet struct{ ChatID string }
)

func (Loaded) isAction()          {}
func (Created) isAction()         {}
func (MessageAppended) isAction() {}
func (MessagesRead) isAction()    {}
func (ActiveSet) isAction()       {}

// Reduce returns the state that results from applying a to s without
// modifying s.
func Reduce(s State, a Action) State {
	next, _ := apply(s, a)
	return next
}

func apply(s State, a Action) (State, bool) {
	switch a := a.(type) {
	case Loaded:
		chats := make([]Thread, len(a.Chats))
		copy(chats, a.Chats)
		for i := range chats {
			chats[i].LastMessage = lastOf(chats[i].Messages)
		}
		active := s.ActiveChatID
		if indexOf(chats, active) < 0 {
			active = ""
		}
		return State{Chats: chats, ActiveChatID: active}, true

	case Created:
		chats := make([]Thread, 0, len(s.Chats)+1)
		chats = append(chats, s.Chats...)
		chats = append(chats, a.Thread)
		return State{Chats: chats, ActiveChatID: s.ActiveChatID}, true

	case MessageAppended:
		i := indexOf(s.Chats, a.ChatID)
		if i < 0 {
			return s, false
		}
		chats := make([]Thread, len(s.Chats))
		copy(chats, s.Chats)

		t := chats[i]
		msgs := make([]Message, 0, len(t.Messages)+1)
		msgs = append(msgs, t.Messages...)
		msgs = append(msgs, a.Message)
		t.Messages = msgs
		t.LastMessage = lastOf(msgs)
		if a.At.After(t.UpdatedAt) {
			t.UpdatedAt = a.At
		}
		chats[i] = t
		return State{Chats: chats, ActiveChatID: s.ActiveChatID}, true

	case MessagesRead:
		i := indexOf(s.Chats, a.ChatID)
		if i < 0 || s.Chats[i].UnreadFor(a.ReaderID) == 0 {
			return s, false
		}
		chats := make([]Thread, len(s.Chats))
		copy(chats, s.Chats)

		t := chats[i]
		msgs := make([]Message, len(t.Messages))
		for j, m := range t.Messages {
			if m.SenderID != a.ReaderID {
				m.Read = true
			}
			msgs[j] = m
		}
		t.Messages = msgs
		t.LastMessage = lastOf(msgs)
		chats[i] = t
		return State{Chats: chats, ActiveChatID: s.ActiveChatID}, true

	case ActiveSet:
		if a.ChatID == s.ActiveChatID {
			return s, false
		}
		if a.ChatID != "" && indexOf(s.Chats, a.ChatID) < 0 {
			return s, false
		}
		return State{Chats: s.Chats, ActiveChatID: a.ChatID}, true
	}
	return s, false
}

func indexOf(chats []Thread, id string) int {
	if id == "" {
		return -1
	}
	for i := range chats {
		if chats[i].ID == id {
			return i
		}
	}
	return -1
}

func lastOf(msgs []Message) *Message {
	if len(msgs) == 0 {
		return nil
	}
	last := msgs[len(msgs)-1]
	return &last
}
