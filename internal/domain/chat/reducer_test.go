package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func thread(id string, msgs ...Message) Thread {
	if msgs == nil {
		msgs = []Message{}
	}
	return Thread{ID: id, Name: id, Type: ThreadDirect, Participants: []string{"me", "you"}, Messages: msgs, CreatedAt: t0, UpdatedAt: t0}
}

func msg(id, sender string, read bool) Message {
	return Message{ID: id, SenderID: sender, Content: id, Type: MessageText, Timestamp: t0, Read: read}
}

func TestLoadedRecomputesLastMessage(t *testing.T) {
	th := thread("c1", msg("m1", "you", false), msg("m2", "me", true))
	th.LastMessage = nil

	s := Reduce(State{}, Loaded{Chats: []Thread{th}})

	require.NotNil(t, s.Chats[0].LastMessage)
	assert.Equal(t, "m2", s.Chats[0].LastMessage.ID)
}

func TestLoadedDropsDanglingActiveChat(t *testing.T) {
	s := State{Chats: []Thread{thread("c1")}, ActiveChatID: "c1"}

	s = Reduce(s, Loaded{Chats: []Thread{thread("c2")}})
	assert.Empty(t, s.ActiveChatID)
}

func TestMessageAppendedKeepsLastMessageInSync(t *testing.T) {
	s := Reduce(State{}, Loaded{Chats: []Thread{thread("c1"), thread("c2")}})

	prev := s.Chats[0].UpdatedAt
	for i, at := range []time.Time{t0.Add(time.Minute), t0.Add(2 * time.Minute), t0.Add(time.Second)} {
		m := msg(string(rune('a'+i)), "you", false)
		s = Reduce(s, MessageAppended{ChatID: "c1", Message: m, At: at})

		c := s.Chats[0]
		require.NotNil(t, c.LastMessage)
		assert.Equal(t, c.Messages[len(c.Messages)-1], *c.LastMessage)
		assert.False(t, c.UpdatedAt.Before(prev))
		prev = c.UpdatedAt
	}
	assert.Equal(t, t0.Add(2*time.Minute), s.Chats[0].UpdatedAt)
	assert.Empty(t, s.Chats[1].Messages, "other threads untouched")
}

func TestMessageAppendedUnknownChat(t *testing.T) {
	s := Reduce(State{}, Loaded{Chats: []Thread{thread("c1")}})

	next, changed := apply(s, MessageAppended{ChatID: "nope", Message: msg("m", "you", false), At: t0})
	assert.False(t, changed)
	assert.Equal(t, s, next)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := Reduce(State{}, Loaded{Chats: []Thread{thread("c1", msg("m1", "you", false))}})

	_ = Reduce(s, MessageAppended{ChatID: "c1", Message: msg("m2", "you", false), At: t0.Add(time.Minute)})
	_ = Reduce(s, MessagesRead{ChatID: "c1", ReaderID: "me"})

	assert.Len(t, s.Chats[0].Messages, 1)
	assert.False(t, s.Chats[0].Messages[0].Read)
}

func TestMessagesReadOnlyTouchesOthers(t *testing.T) {
	s := Reduce(State{}, Loaded{Chats: []Thread{thread("c1", msg("m1", "you", false), msg("m2", "me", false))}})

	s = Reduce(s, MessagesRead{ChatID: "c1", ReaderID: "me"})

	assert.True(t, s.Chats[0].Messages[0].Read)
	assert.False(t, s.Chats[0].Messages[1].Read)
	assert.Equal(t, 0, s.Chats[0].UnreadFor("me"))
	assert.Equal(t, t0, s.Chats[0].UpdatedAt)

	_, changed := apply(s, MessagesRead{ChatID: "c1", ReaderID: "me"})
	assert.False(t, changed)
}

func TestActiveSet(t *testing.T) {
	s := Reduce(State{}, Loaded{Chats: []Thread{thread("c1")}})

	s = Reduce(s, ActiveSet{ChatID: "missing"})
	assert.Empty(t, s.ActiveChatID)

	s = Reduce(s, ActiveSet{ChatID: "c1"})
	assert.Equal(t, "c1", s.ActiveChatID)

	s = Reduce(s, ActiveSet{})
	assert.Empty(t, s.ActiveChatID)
}

func TestCreatedAppends(t *testing.T) {
	s := Reduce(State{}, Created{Thread: thread("c1")})
	s = Reduce(s, Created{Thread: thread("c2")})

	require.Len(t, s.Chats, 2)
	assert.Equal(t, "c2", s.Chats[1].ID)
}
