package chat

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"seswa/internal/pkg/logger"
)

// FrameChatMessage is the only frame type WebSocketSource acts on.
const FrameChatMessage = "chat.message"

// Frame is the JSON envelope read from the upstream socket.
type Frame struct {
	Type    string  `json:"type"`
	ChatID  string  `json:"chat_id"`
	Message Message `json:"message"`
}

type WebSocketConfig struct {
	URL        string
	Header     http.Header
	Dialer     *websocket.Dialer
	Logger     *zap.Logger
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// WebSocketSource reads chat frames from a remote socket and reconnects with
// exponential backoff when the connection drops.
type WebSocketSource struct {
	cfg WebSocketConfig
	log *zap.Logger
}

func NewWebSocketSource(cfg WebSocketConfig) *WebSocketSource {
	if cfg.Dialer == nil {
		cfg.Dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = time.Second
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = 30 * time.Second
	}
	return &WebSocketSource{
		cfg: cfg,
		log: logger.OrNop(cfg.Logger).With(zap.String("source", "websocket"), zap.String("url", cfg.URL)),
	}
}

func (s *WebSocketSource) OnMessage(handler func(Inbound)) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		s.run(ctx, handler)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

func (s *WebSocketSource) run(ctx context.Context, handler func(Inbound)) {
	backoff := s.cfg.MinBackoff
	for {
		conn, _, err := s.cfg.Dialer.DialContext(ctx, s.cfg.URL, s.cfg.Header)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn("dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > s.cfg.MaxBackoff {
				backoff = s.cfg.MaxBackoff
			}
			continue
		}

		s.log.Info("connected")
		backoff = s.cfg.MinBackoff
		s.read(ctx, conn, handler)
		if ctx.Err() != nil {
			return
		}
		s.log.Warn("connection lost, reconnecting", zap.Duration("retry_in", backoff))
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

func (s *WebSocketSource) read(ctx context.Context, conn *websocket.Conn, handler func(Inbound)) {
	readDone := make(chan struct{})
	defer close(readDone)
	go func() {
		select {
		case <-ctx.Done():
		case <-readDone:
		}
		conn.Close()
	}()

	for {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() == nil {
				s.log.Debug("read failed", zap.Error(err))
			}
			return
		}
		if f.Type != FrameChatMessage || f.ChatID == "" {
			s.log.Debug("frame ignored", zap.String("type", f.Type))
			continue
		}
		if ctx.Err() != nil {
			return
		}
		handler(Inbound{ChatID: f.ChatID, Message: f.Message})
	}
}
