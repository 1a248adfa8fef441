package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"seswa/internal/domain"
	"seswa/internal/domain/chat"
	"seswa/internal/realtime"
	"seswa/internal/store"
)

func TestManagerReusesOpenSession(t *testing.T) {
	m := NewManager(testDeps(store.NewMemoryKV()))
	defer m.CloseAll()

	a, err := m.GetOrOpen(context.Background(), student)
	require.NoError(t, err)
	b, err := m.GetOrOpen(context.Background(), student)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, m.Len())

	got, ok := m.Get("u1")
	assert.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, []*Session{a}, m.Sessions())
}

func TestManagerRejectsAnonymous(t *testing.T) {
	m := NewManager(testDeps(store.NewMemoryKV()))

	_, err := m.GetOrOpen(context.Background(), domain.CurrentUser{})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, 0, m.Len())
}

func TestManagerCloseAndReopen(t *testing.T) {
	m := NewManager(testDeps(store.NewMemoryKV()))

	s, err := m.GetOrOpen(context.Background(), student)
	require.NoError(t, err)
	s.Chats.CreateChat([]string{chat.MentorID}, "x", chat.ThreadDirect)

	assert.True(t, m.Close("u1"))
	assert.False(t, m.Close("u1"))
	assert.Equal(t, 0, m.Len())

	reopened, err := m.GetOrOpen(context.Background(), student)
	require.NoError(t, err)
	assert.NotSame(t, s, reopened)
	assert.Len(t, reopened.Chats.Chats(), 1)

	m.CloseAll()
	assert.Equal(t, 0, m.Len())
}

func simulatedSources(m *chat.Machine) []chat.Source {
	return []chat.Source{chat.NewSimulator(m, chat.SimulatorConfig{Interval: 5 * time.Millisecond, Probability: 1})}
}

func TestManagerSweepClosesIdleSessionAndStopsDelivery(t *testing.T) {
	deps := testDeps(store.NewMemoryKV())
	deps.IdleTimeout = 10 * time.Minute
	deps.Sources = simulatedSources
	m := NewManager(deps)
	defer m.CloseAll()

	s, err := m.GetOrOpen(context.Background(), student)
	require.NoError(t, err)
	s.Chats.CreateChat([]string{chat.MentorID}, "Mentor", chat.ThreadMentorship)
	require.Eventually(t, func() bool { return s.Notifications.UnreadCount() > 0 }, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, m.Sweep(fixedNow.Add(5*time.Minute)))
	assert.Equal(t, 1, m.Len())

	assert.Equal(t, 1, m.Sweep(fixedNow.Add(11*time.Minute)))
	assert.Equal(t, 0, m.Len())
	_, ok := m.Get("u1")
	assert.False(t, ok)

	delivered := len(s.Notifications.Notifications())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, delivered, len(s.Notifications.Notifications()), "closed session must not receive messages")
}

func TestManagerSweepWithoutIdleTimeoutKeepsSessions(t *testing.T) {
	m := NewManager(testDeps(store.NewMemoryKV()))
	defer m.CloseAll()

	_, err := m.GetOrOpen(context.Background(), student)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Sweep(fixedNow.Add(24*time.Hour)))
	assert.Equal(t, 1, m.Len())
}

func TestManagerSweepKeepsUsersWithRealtimeConnection(t *testing.T) {
	hub := realtime.NewHub(zap.NewNop())
	deps := testDeps(store.NewMemoryKV())
	deps.IdleTimeout = time.Minute
	deps.Hub = hub
	m := NewManager(deps)
	defer m.CloseAll()

	_, err := m.GetOrOpen(context.Background(), student)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := realtime.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.ServeWS(conn, "u1", nil, nil)
	}))
	defer srv.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Connections("u1") == 1 }, time.Second, 5*time.Millisecond)

	later := fixedNow.Add(time.Hour)
	assert.Equal(t, 0, m.Sweep(later))
	assert.Equal(t, 1, m.Len())

	conn.Close()
	require.Eventually(t, func() bool { return hub.Connections("u1") == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, m.Sweep(later.Add(30*time.Second)), "idle time counts from the last sweep that saw a connection")
	assert.Equal(t, 1, m.Sweep(later.Add(2*time.Minute)))
}

func TestManagerRunSweepsUntilCancelled(t *testing.T) {
	deps := testDeps(store.NewMemoryKV())
	deps.IdleTimeout = time.Nanosecond
	deps.Now = time.Now
	m := NewManager(deps)
	defer m.CloseAll()

	_, err := m.GetOrOpen(context.Background(), student)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, 5*time.Millisecond)
		close(done)
	}()
	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

// gatedKV blocks reads of one key until release is closed.
type gatedKV struct {
	*store.MemoryKV
	key     string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedKV) Get(ctx context.Context, key string) ([]byte, error) {
	if key == g.key {
		g.once.Do(func() { close(g.entered) })
		<-g.release
	}
	return g.MemoryKV.Get(ctx, key)
}

func TestManagerSlowOpenDoesNotBlockOtherUsers(t *testing.T) {
	kv := &gatedKV{
		MemoryKV: store.NewMemoryKV(),
		key:      "seswa_chats_slow",
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	m := NewManager(testDeps(kv))
	defer m.CloseAll()

	slow := domain.CurrentUser{User: domain.User{ID: "slow", Role: domain.RoleStudent}, Authenticated: true}
	type result struct {
		s   *Session
		err error
	}
	results := make(chan result, 2)
	for i := 0; i < 2; i++ {
		go func() {
			s, err := m.GetOrOpen(context.Background(), slow)
			results <- result{s, err}
		}()
	}
	<-kv.entered

	fast, err := m.GetOrOpen(context.Background(), student)
	require.NoError(t, err)
	assert.Equal(t, "u1", fast.User.ID)
	_, ok := m.Get("slow")
	assert.False(t, ok, "a session still opening is not visible")
	assert.Equal(t, 1, m.Len())

	close(kv.release)
	a, b := <-results, <-results
	require.NoError(t, a.err)
	require.NoError(t, b.err)
	assert.Same(t, a.s, b.s)
	assert.Equal(t, 2, m.Len())
}

func TestManagerWaiterHonorsContext(t *testing.T) {
	kv := &gatedKV{
		MemoryKV: store.NewMemoryKV(),
		key:      "seswa_chats_u1",
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	m := NewManager(testDeps(kv))
	defer m.CloseAll()

	opened := make(chan error, 1)
	go func() {
		_, err := m.GetOrOpen(context.Background(), student)
		opened <- err
	}()
	<-kv.entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.GetOrOpen(ctx, student)
	assert.ErrorIs(t, err, context.Canceled)

	close(kv.release)
	require.NoError(t, <-opened)
	assert.Equal(t, 1, m.Len())
}
