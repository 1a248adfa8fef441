package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"seswa/internal/domain/notification"
	"seswa/internal/pkg/response"
	"seswa/internal/pkg/validator"
	"seswa/internal/session"
)

type Handler struct {
	sessions *session.Manager
}

func NewHandler(sessions *session.Manager) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes mounts the caller's notification routes. protected must
// already carry JWT auth and the session middleware.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	g := protected.Group("/notifications")
	{
		g.GET("", h.List)
		g.GET("/unread-count", h.UnreadCount)
		g.POST("", h.Create)
		g.PATCH("/:id/read", h.MarkAsRead)
		g.POST("/read-all", h.MarkAllAsRead)
		g.DELETE("/:id", h.Remove)
		g.DELETE("", h.Clear)
	}
}

// RegisterAdminRoutes mounts admin only routes.
func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.POST("/notifications/broadcast", h.Broadcast)
}

func machine(c *gin.Context) *notification.Machine {
	return session.FromContext(c.Request.Context()).Notifications
}

func (h *Handler) List(c *gin.Context) {
	m := machine(c)

	list := m.Notifications()
	if c.Query("unread") == "true" {
		list = m.Unread()
	}

	if t := notification.Type(c.Query("type")); t != "" {
		if !t.Valid() {
			response.Error(c, http.StatusBadRequest, "INVALID_TYPE", "Unknown notification type")
			return
		}
		filtered := make([]notification.Notification, 0, len(list))
		for _, n := range list {
			if n.Type == t {
				filtered = append(filtered, n)
			}
		}
		list = filtered
	}

	response.Success(c, http.StatusOK, ListResponse{Notifications: list, UnreadCount: m.UnreadCount()})
}

func (h *Handler) UnreadCount(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"unreadCount": machine(c).UnreadCount()})
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid notification", errs)
		return
	}

	n := machine(c).AddNotification(notification.Input{
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		Priority:  req.Priority,
		ActionURL: req.ActionURL,
		Data:      req.Data,
	})
	response.Success(c, http.StatusCreated, n)
}

func (h *Handler) MarkAsRead(c *gin.Context) {
	changed := machine(c).MarkAsRead(c.Param("id"))
	response.Success(c, http.StatusOK, gin.H{"status": "read", "changed": changed})
}

func (h *Handler) MarkAllAsRead(c *gin.Context) {
	machine(c).MarkAllAsRead()
	response.Success(c, http.StatusOK, gin.H{"status": "all_read"})
}

func (h *Handler) Remove(c *gin.Context) {
	removed := machine(c).RemoveNotification(c.Param("id"))
	response.Success(c, http.StatusOK, gin.H{"removed": removed})
}

func (h *Handler) Clear(c *gin.Context) {
	machine(c).ClearAll()
	response.Success(c, http.StatusOK, gin.H{"status": "cleared"})
}

func (h *Handler) Broadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid notification", errs)
		return
	}
	if req.Priority == "" {
		req.Priority = notification.PriorityNormal
	}

	sessions := h.sessions.Sessions()
	for _, s := range sessions {
		s.Notifications.CreateSystemNotification(req.Title, req.Message, req.Priority)
	}
	response.Success(c, http.StatusOK, gin.H{"delivered": len(sessions)})
}
