// Package session owns the per-user notification and chat machines for the
// lifetime of a login and wires them to each other and to realtime clients.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"seswa/internal/domain"
	"seswa/internal/domain/chat"
	"seswa/internal/domain/events"
	"seswa/internal/domain/notification"
	"seswa/internal/pkg/logger"
	"seswa/internal/pkg/validator"
	"seswa/internal/realtime"
)

var ErrNotAuthenticated = errors.New("session: no authenticated user")

// Client frame types handled by HandleFrame.
const (
	FrameChatSend         = "chat.send"
	FrameChatRead         = "chat.read"
	FrameChatActive       = "chat.active"
	FrameNotificationRead = "notification.read"
	FrameNotificationsAll = "notification.read_all"
)

// Deps are shared by every session a Manager opens.
type Deps struct {
	Chats         chat.Store
	Notifications notification.Store
	// Hub, when set, receives a frame for every state change.
	Hub *realtime.Hub
	// Sources builds the inbound message sources attached to a new chat
	// machine. Nil attaches none.
	Sources      func(*chat.Machine) []chat.Source
	SeedDefaults bool
	// IdleTimeout is how long a session may go unused before Manager.Sweep
	// closes it. Zero keeps sessions open until closed explicitly.
	IdleTimeout time.Duration
	Logger      *zap.Logger
	Now         func() time.Time
}

// Session holds one user's machines.
type Session struct {
	User          domain.User
	Notifications *notification.Machine
	Chats         *chat.Machine

	log    *zap.Logger
	unsubs []func()
	once   sync.Once
}

// ChatsPayload is pushed with realtime.EventChatsUpdated.
type ChatsPayload struct {
	Chats        []chat.Thread `json:"chats"`
	ActiveChatID string        `json:"activeChatId,omitempty"`
	UnreadCount  int           `json:"unreadCount"`
}

// Open loads both machines for cu. It fails with ErrNotAuthenticated when cu
// is not an active user; no storage is touched in that case.
func Open(ctx context.Context, deps Deps, cu domain.CurrentUser) (*Session, error) {
	if !cu.Active() {
		return nil, ErrNotAuthenticated
	}
	u := cu.User
	log := logger.OrNop(deps.Logger).With(zap.String("user_id", u.ID))

	chatOpts := chat.Options{Logger: log, Now: deps.Now}
	if deps.SeedDefaults {
		chatOpts.Seed = chat.DefaultThreads
	}

	s := &Session{
		User:          u,
		Notifications: notification.NewMachine(ctx, u.ID, deps.Notifications, notification.Options{Logger: log, Now: deps.Now}),
		Chats:         chat.NewMachine(ctx, u, deps.Chats, chatOpts),
		log:           log,
	}

	s.unsubs = append(s.unsubs, s.Chats.OnMessageReceived(s.Notifications.HandleMessageReceived))
	if deps.Hub != nil {
		s.publishTo(deps.Hub)
	}
	if deps.Sources != nil {
		for _, src := range deps.Sources(s.Chats) {
			s.Chats.Attach(src)
		}
	}

	log.Info("session opened",
		zap.Int("chats", len(s.Chats.Chats())),
		zap.Int("notifications", len(s.Notifications.Notifications())),
	)
	return s, nil
}

func (s *Session) publishTo(hub *realtime.Hub) {
	userID := s.User.ID
	s.unsubs = append(s.unsubs,
		s.Notifications.Subscribe(func(st notification.State) {
			hub.Publish(userID, realtime.Event{Type: realtime.EventNotificationsUpdated, Payload: st})
		}),
		s.Chats.Subscribe(func(st chat.State) {
			hub.Publish(userID, realtime.Event{Type: realtime.EventChatsUpdated, Payload: chatsPayload(userID, st)})
		}),
		s.Chats.OnMessageReceived(func(ev events.MessageReceived) {
			hub.Publish(userID, realtime.Event{Type: realtime.EventNewMessage, Payload: ev})
		}),
	)
}

// Snapshot returns the current state of both machines as realtime events.
func (s *Session) Snapshot() []realtime.Event {
	return []realtime.Event{
		{Type: realtime.EventNotificationsUpdated, Payload: s.Notifications.State()},
		{Type: realtime.EventChatsUpdated, Payload: chatsPayload(s.User.ID, s.Chats.State())},
	}
}

func chatsPayload(userID string, st chat.State) ChatsPayload {
	unread := 0
	for _, t := range st.Chats {
		unread += t.UnreadFor(userID)
	}
	return ChatsPayload{Chats: st.Chats, ActiveChatID: st.ActiveChatID, UnreadCount: unread}
}

type sendFrame struct {
	ChatID  string `validate:"required"`
	Content string `validate:"required,max=4000"`
}

// HandleFrame applies a client frame received over the realtime socket.
// Unknown frame types and ids are ignored.
func (s *Session) HandleFrame(f realtime.ClientFrame) {
	switch f.Type {
	case FrameChatSend:
		msg := sendFrame{ChatID: f.ChatID, Content: f.Content}
		if errs := validator.Validate(msg); errs != nil {
			s.log.Debug("invalid chat.send frame", zap.Any("errors", errs))
			return
		}
		s.Chats.SendMessage(msg.ChatID, msg.Content, chat.MessageText)
	case FrameChatRead:
		s.Chats.MarkMessagesAsRead(f.ChatID)
	case FrameChatActive:
		s.Chats.SetActiveChat(f.ChatID)
	case FrameNotificationRead:
		s.Notifications.MarkAsRead(f.ID)
	case FrameNotificationsAll:
		s.Notifications.MarkAllAsRead()
	default:
		s.log.Debug("unknown client frame", zap.String("type", f.Type))
	}
}

// Flush waits until both machines have persisted their current state.
func (s *Session) Flush(ctx context.Context) error {
	if err := s.Chats.Flush(ctx); err != nil {
		return err
	}
	return s.Notifications.Flush(ctx)
}

// Close stops inbound delivery and persists pending state. It is safe to
// call more than once.
func (s *Session) Close() {
	s.once.Do(func() {
		s.Chats.Close()
		for _, unsub := range s.unsubs {
			unsub()
		}
		s.Notifications.Close()
		s.log.Info("session closed")
	})
}
