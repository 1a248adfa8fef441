package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"seswa/internal/domain"
	"seswa/internal/domain/events"
	"seswa/internal/metrics"
	"seswa/internal/pkg/id"
	"seswa/internal/pkg/logger"
	"seswa/internal/store"
)

// Store is the durable slot holding the owner's threads.
type Store interface {
	Load(ctx context.Context, userID string) ([]Thread, bool)
	store.Saver[[]Thread]
}

type Options struct {
	Logger      *zap.Logger
	Now         func() time.Time
	NewID       func() string
	NewThreadID func() string
	// Seed builds the first threads of a user that has nothing persisted.
	// Nil disables seeding.
	Seed func(owner domain.User, now time.Time) []Thread
}

// Machine owns the conversations of one user.
type Machine struct {
	owner       domain.User
	log         *zap.Logger
	now         func() time.Time
	newID       func() string
	newThreadID func() string
	writer      *store.Writer[[]Thread]

	mu    sync.Mutex
	pubMu sync.Mutex
	state State

	changes  *events.Bus[State]
	received *events.Bus[events.MessageReceived]

	srcMu   sync.Mutex
	stops   []func()
	closed  bool
	closeMu sync.Once
}

func NewMachine(ctx context.Context, owner domain.User, st Store, opts Options) *Machine {
	m := &Machine{
		owner:       owner,
		log:         logger.OrNop(opts.Logger).With(zap.String("user_id", owner.ID), zap.String("machine", "chat")),
		now:         opts.Now,
		newID:       opts.NewID,
		newThreadID: opts.NewThreadID,
		state:       State{Chats: []Thread{}},
		changes:     events.NewBus[State](),
		received:    events.NewBus[events.MessageReceived](),
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = id.New
	}
	if m.newThreadID == nil {
		m.newThreadID = uuid.NewString
	}
	m.writer = store.NewWriter[[]Thread](st, owner.ID, m.log)

	chats, ok := st.Load(ctx, owner.ID)
	switch {
	case ok:
		m.state, _ = apply(m.state, Loaded{Chats: chats})
		m.log.Debug("loaded chats", zap.Int("count", len(chats)))
	case opts.Seed != nil:
		seeded := opts.Seed(owner, m.now().UTC())
		m.state, _ = apply(m.state, Loaded{Chats: seeded})
		m.writer.Submit(store.NextVersion(), m.state.Chats)
		m.log.Info("seeded default chats", zap.Int("count", len(seeded)), zap.String("role", string(owner.Role)))
	}
	return m
}

// Owner returns the user whose threads this machine holds.
func (m *Machine) Owner() domain.User {
	return m.owner
}

func (m *Machine) Dispatch(a Action) State {
	s, _ := m.dispatch(a)
	return s
}

func (m *Machine) dispatch(a Action) (State, bool) {
	m.mu.Lock()
	next, changed := apply(m.state, a)
	if !changed {
		m.mu.Unlock()
		return next, false
	}
	m.state = next
	m.writer.Submit(store.NextVersion(), next.Chats)

	m.pubMu.Lock()
	m.mu.Unlock()
	defer m.pubMu.Unlock()
	m.changes.Publish(next)
	return next, true
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn for every new state. fn must not dispatch back into
// this machine synchronously.
func (m *Machine) Subscribe(fn func(State)) (unsubscribe func()) {
	return m.changes.Subscribe(fn)
}

// OnMessageReceived registers fn for messages appended by someone other than
// the owner.
func (m *Machine) OnMessageReceived(fn func(events.MessageReceived)) (unsubscribe func()) {
	return m.received.Subscribe(fn)
}

// CreateChat starts a new thread. The owner is always a participant.
func (m *Machine) CreateChat(participantIDs []string, name string, typ ThreadType) Thread {
	if typ == "" {
		typ = ThreadDirect
	}
	now := m.now().UTC()
	t := Thread{
		ID:           m.newThreadID(),
		Name:         name,
		Type:         typ,
		Participants: withOwner(m.owner.ID, participantIDs),
		Messages:     []Message{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.dispatch(Created{Thread: t})
	m.log.Debug("chat created", zap.String("chat_id", t.ID), zap.String("type", string(typ)))
	return t
}

// SendMessage appends a message written by the owner. ok is false when
// chatID matches no thread.
func (m *Machine) SendMessage(chatID, content string, typ MessageType) (msg Message, ok bool) {
	if typ == "" {
		typ = MessageText
	}
	now := m.now().UTC()
	msg = Message{
		ID:         m.newID(),
		SenderID:   m.owner.ID,
		SenderName: m.owner.FullName(),
		Content:    content,
		Type:       typ,
		Timestamp:  now,
		Read:       true,
	}
	if _, ok = m.dispatch(MessageAppended{ChatID: chatID, Message: msg, At: now}); !ok {
		m.log.Warn("send to unknown chat ignored", zap.String("chat_id", chatID))
		return Message{}, false
	}
	metrics.ChatMessages.WithLabelValues("sent").Inc()
	return msg, true
}

// AddMessage appends an already formed message, typically one delivered by a
// Source. Missing ID, type or timestamp are filled in. Messages from anyone
// but the owner are announced through OnMessageReceived.
func (m *Machine) AddMessage(chatID string, msg Message) bool {
	now := m.now().UTC()
	if msg.ID == "" {
		msg.ID = m.newID()
	}
	if msg.Type == "" {
		msg.Type = MessageText
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}

	next, ok := m.dispatch(MessageAppended{ChatID: chatID, Message: msg, At: now})
	if !ok {
		m.log.Warn("message for unknown chat ignored", zap.String("chat_id", chatID), zap.String("message_id", msg.ID))
		return false
	}

	if msg.SenderID == m.owner.ID {
		metrics.ChatMessages.WithLabelValues("sent").Inc()
		return true
	}
	metrics.ChatMessages.WithLabelValues("received").Inc()

	name := ""
	if i := indexOf(next.Chats, chatID); i >= 0 {
		name = next.Chats[i].Name
	}
	m.received.Publish(events.MessageReceived{
		ChatID:     chatID,
		ChatName:   name,
		MessageID:  msg.ID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Content:    msg.Content,
		At:         now,
	})
	return true
}

// MarkMessagesAsRead marks every message in chatID written by others as read.
func (m *Machine) MarkMessagesAsRead(chatID string) bool {
	_, changed := m.dispatch(MessagesRead{ChatID: chatID, ReaderID: m.owner.ID})
	return changed
}

// SetActiveChat selects chatID and acknowledges its messages. It returns
// false when chatID is unknown.
func (m *Machine) SetActiveChat(chatID string) bool {
	if _, ok := m.Chat(chatID); !ok {
		m.log.Debug("select unknown chat ignored", zap.String("chat_id", chatID))
		return false
	}
	m.dispatch(ActiveSet{ChatID: chatID})
	m.MarkMessagesAsRead(chatID)
	return true
}

// ActiveChat returns the selected thread, if any.
func (m *Machine) ActiveChat() (Thread, bool) {
	s := m.State()
	if i := indexOf(s.Chats, s.ActiveChatID); i >= 0 {
		return s.Chats[i], true
	}
	return Thread{}, false
}

func (m *Machine) Chat(chatID string) (Thread, bool) {
	s := m.State()
	if i := indexOf(s.Chats, chatID); i >= 0 {
		return s.Chats[i], true
	}
	return Thread{}, false
}

func (m *Machine) Chats() []Thread {
	return m.State().Chats
}

// UnreadCount sums unread messages from others across every thread.
func (m *Machine) UnreadCount() int {
	total := 0
	for _, t := range m.Chats() {
		total += t.UnreadFor(m.owner.ID)
	}
	return total
}

// UnreadCountFor is UnreadCount restricted to one thread.
func (m *Machine) UnreadCountFor(chatID string) int {
	t, ok := m.Chat(chatID)
	if !ok {
		return 0
	}
	return t.UnreadFor(m.owner.ID)
}

// Attach starts delivery from src into AddMessage. Close stops it.
func (m *Machine) Attach(src Source) {
	m.srcMu.Lock()
	defer m.srcMu.Unlock()
	if m.closed {
		return
	}
	stop := src.OnMessage(func(in Inbound) {
		m.AddMessage(in.ChatID, in.Message)
	})
	m.stops = append(m.stops, stop)
}

func (m *Machine) Flush(ctx context.Context) error {
	return m.writer.Flush(ctx)
}

// Close stops every attached source, then persists pending state. No source
// delivery happens after Close returns.
func (m *Machine) Close() {
	m.closeMu.Do(func() {
		m.srcMu.Lock()
		m.closed = true
		stops := m.stops
		m.stops = nil
		m.srcMu.Unlock()

		for _, stop := range stops {
			stop()
		}
	})
	m.writer.Close()
}

func withOwner(ownerID string, ids []string) []string {
	out := []string{ownerID}
	seen := map[string]bool{ownerID: true}
	for _, p := range ids {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
