package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"seswa/internal/domain/events"
	"seswa/internal/metrics"
	"seswa/internal/pkg/id"
	"seswa/internal/pkg/logger"
	"seswa/internal/store"
)

// Store is the durable slot the machine loads from and writes to.
type Store interface {
	Load(ctx context.Context, userID string) ([]Notification, bool)
	store.Saver[[]Notification]
}

type Options struct {
	Logger *zap.Logger
	Now    func() time.Time
	NewID  func() string
}

// Machine owns the notification state of one user. Every mutation goes
// through Dispatch, which applies the reducer, queues a snapshot write and
// notifies subscribers.
type Machine struct {
	userID string
	log    *zap.Logger
	now    func() time.Time
	newID  func() string
	writer *store.Writer[[]Notification]

	mu      sync.Mutex
	pubMu   sync.Mutex
	state   State
	changes *events.Bus[State]
}

// NewMachine loads the user's persisted notifications and returns a ready
// machine. Missing or corrupt data yields an empty list.
func NewMachine(ctx context.Context, userID string, st Store, opts Options) *Machine {
	m := &Machine{
		userID:  userID,
		log:     logger.OrNop(opts.Logger).With(zap.String("user_id", userID), zap.String("machine", "notification")),
		now:     opts.Now,
		newID:   opts.NewID,
		changes: events.NewBus[State](),
		state:   State{Notifications: []Notification{}},
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = id.New
	}
	m.writer = store.NewWriter[[]Notification](st, userID, m.log)

	if list, ok := st.Load(ctx, userID); ok {
		m.state, _ = apply(m.state, Loaded{Notifications: list})
		m.log.Debug("loaded notifications", zap.Int("count", len(list)), zap.Int("unread", m.state.UnreadCount))
	}
	return m
}

// Dispatch applies a and returns the resulting state.
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
	m.writer.Submit(store.NextVersion(), next.Notifications)

	// pubMu is taken before mu is released so subscribers observe states in
	// dispatch order.
	m.pubMu.Lock()
	m.mu.Unlock()
	defer m.pubMu.Unlock()
	m.changes.Publish(next)
	return next, true
}

// State returns the current state. The returned slices must not be modified.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn to receive every new state. fn must not dispatch
// back into this machine synchronously.
func (m *Machine) Subscribe(fn func(State)) (unsubscribe func()) {
	return m.changes.Subscribe(fn)
}

// AddNotification builds a notification from in and prepends it.
func (m *Machine) AddNotification(in Input) Notification {
	n := Notification{
		ID:        m.newID(),
		Type:      in.Type,
		Title:     in.Title,
		Message:   in.Message,
		Priority:  in.Priority,
		Read:      false,
		Timestamp: m.now().UTC(),
		ActionURL: in.ActionURL,
		Data:      in.Data,
	}
	if n.Type == "" {
		n.Type = TypeSystem
	}
	if n.Priority == "" {
		n.Priority = PriorityNormal
	}

	m.dispatch(Added{Notification: n})
	metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
	return n
}

// MarkAsRead reports whether an unread notification with id was found.
func (m *Machine) MarkAsRead(id string) bool {
	_, changed := m.dispatch(MarkedRead{ID: id})
	if !changed {
		m.log.Debug("mark as read ignored", zap.String("notification_id", id))
	}
	return changed
}

func (m *Machine) MarkAllAsRead() {
	m.dispatch(MarkedAllRead{})
}

// RemoveNotification reports whether a notification with id was removed.
func (m *Machine) RemoveNotification(id string) bool {
	_, changed := m.dispatch(Removed{ID: id})
	if !changed {
		m.log.Debug("remove ignored, unknown notification", zap.String("notification_id", id))
	}
	return changed
}

func (m *Machine) ClearAll() {
	m.dispatch(Cleared{})
}

func (m *Machine) Notifications() []Notification {
	return m.State().Notifications
}

func (m *Machine) UnreadCount() int {
	return m.State().UnreadCount
}

// ByType returns the notifications of type t, most recent first.
func (m *Machine) ByType(t Type) []Notification {
	return filter(m.Notifications(), func(n Notification) bool { return n.Type == t })
}

// Unread returns the unread notifications, most recent first.
func (m *Machine) Unread() []Notification {
	return filter(m.Notifications(), func(n Notification) bool { return !n.Read })
}

// HandleMessageReceived turns a chat event into a message notification.
func (m *Machine) HandleMessageReceived(ev events.MessageReceived) {
	m.CreateMessageNotification(ev.SenderName, ev.Content, ev.ChatID)
}

// Flush waits until the latest state has been handed to the store.
func (m *Machine) Flush(ctx context.Context) error {
	return m.writer.Flush(ctx)
}

// Close persists pending state and stops the background writer.
func (m *Machine) Close() {
	m.writer.Close()
}

func filter(list []Notification, keep func(Notification) bool) []Notification {
	out := make([]Notification, 0)
	for _, n := range list {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}
