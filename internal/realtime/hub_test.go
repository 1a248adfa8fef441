package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T, userID string, frames chan<- ClientFrame) (*Hub, string) {
	t.Helper()
	hub := NewHub(zap.NewNop())
	return hub, serveHub(t, hub, userID, frames, func() []Event { return []Event{{Type: "hello"}} })
}

func serveHub(t *testing.T, hub *Hub, userID string, frames chan<- ClientFrame, snapshot func() []Event) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.ServeWS(conn, userID, func(f ClientFrame) { frames <- f }, snapshot)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestPublishReachesEveryConnectionOfUser(t *testing.T) {
	hub, url := startHub(t, "u1", make(chan ClientFrame, 1))

	a, b := dial(t, url), dial(t, url)
	defer a.Close()
	defer b.Close()
	require.Eventually(t, func() bool { return hub.Connections("u1") == 2 }, time.Second, 5*time.Millisecond)

	hub.Publish("u1", Event{Type: EventChatsUpdated, Payload: map[string]int{"unreadCount": 3}})
	hub.Publish("u2", Event{Type: EventChatsUpdated})

	for _, c := range []*websocket.Conn{a, b} {
		c.SetReadDeadline(time.Now().Add(time.Second))
		var hello Event
		require.NoError(t, c.ReadJSON(&hello))
		assert.Equal(t, "hello", hello.Type)

		var got struct {
			Type    string         `json:"type"`
			Payload map[string]int `json:"payload"`
		}
		require.NoError(t, c.ReadJSON(&got))
		assert.Equal(t, EventChatsUpdated, got.Type)
		assert.Equal(t, 3, got.Payload["unreadCount"])
	}
}

func TestClientFramesAreForwarded(t *testing.T) {
	frames := make(chan ClientFrame, 1)
	_, url := startHub(t, "u1", frames)

	c := dial(t, url)
	defer c.Close()
	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, c.WriteJSON(ClientFrame{Type: "chat.read", ChatID: "c1"}))

	select {
	case f := <-frames:
		assert.Equal(t, ClientFrame{Type: "chat.read", ChatID: "c1"}, f)
	case <-time.After(time.Second):
		t.Fatal("frame not forwarded")
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	hub, url := startHub(t, "u1", make(chan ClientFrame, 1))

	c := dial(t, url)
	require.Eventually(t, func() bool { return hub.Connections("u1") == 1 }, time.Second, 5*time.Millisecond)

	c.Close()
	assert.Eventually(t, func() bool { return hub.Connections("u1") == 0 }, time.Second, 5*time.Millisecond)

	hub.Publish("u1", Event{Type: EventNotificationsUpdated})
}

func TestShutdownDisconnectsClients(t *testing.T) {
	hub, url := startHub(t, "u1", make(chan ClientFrame, 1))

	c := dial(t, url)
	defer c.Close()
	require.Eventually(t, func() bool { return hub.Connections("u1") == 1 }, time.Second, 5*time.Millisecond)

	hub.Shutdown()
	assert.Eventually(t, func() bool { return hub.Connections("u1") == 0 }, time.Second, 5*time.Millisecond)
}

func TestSnapshotTakenAfterRegistration(t *testing.T) {
	hub := NewHub(zap.NewNop())
	registered := make(chan int, 1)
	url := serveHub(t, hub, "u1", make(chan ClientFrame, 1), func() []Event {
		registered <- hub.Connections("u1")
		// a change landing while the snapshot is read must still reach the client
		hub.Publish("u1", Event{Type: EventNotificationsUpdated})
		return []Event{{Type: EventChatsUpdated}}
	})

	c := dial(t, url)
	defer c.Close()
	assert.Equal(t, 1, <-registered)

	var types []string
	c.SetReadDeadline(time.Now().Add(time.Second))
	for i := 0; i < 2; i++ {
		var ev Event
		require.NoError(t, c.ReadJSON(&ev))
		types = append(types, ev.Type)
	}
	assert.ElementsMatch(t, []string{EventNotificationsUpdated, EventChatsUpdated}, types)
}
