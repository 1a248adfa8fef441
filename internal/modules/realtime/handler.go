package realtime

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"seswa/internal/pkg/logger"
	"seswa/internal/realtime"
	"seswa/internal/session"
)

type Handler struct {
	hub *realtime.Hub
	log *zap.Logger
}

func NewHandler(hub *realtime.Hub, log *zap.Logger) *Handler {
	return &Handler{hub: hub, log: logger.OrNop(log)}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.GET("/ws", h.ServeWS)
}

// ServeWS upgrades the request and streams the caller's state changes. The
// current state is sent once the connection is registered.
func (h *Handler) ServeWS(c *gin.Context) {
	s := session.FromContext(c.Request.Context())

	conn, err := realtime.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.String("user_id", s.User.ID), zap.Error(err))
		return
	}

	h.hub.ServeWS(conn, s.User.ID, s.HandleFrame, s.Snapshot)
}
