package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"seswa/internal/domain/chat"
	"seswa/internal/pkg/response"
	"seswa/internal/pkg/validator"
	"seswa/internal/session"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes mounts the caller's chat routes. protected must already
// carry JWT auth and the session middleware.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	g := protected.Group("/chats")
	{
		g.GET("", h.List)
		g.POST("", h.Create)
		g.GET("/unread", h.Unread)
		g.GET("/active", h.Active)
		g.PUT("/active", h.SetActive)
		g.POST("/:id/messages", h.SendMessage)
		g.POST("/:id/read", h.MarkAsRead)
	}
}

func machine(c *gin.Context) *chat.Machine {
	return session.FromContext(c.Request.Context()).Chats
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", errs)
		return false
	}
	return true
}

func (h *Handler) List(c *gin.Context) {
	m := machine(c)
	s := m.State()
	response.Success(c, http.StatusOK, session.ChatsPayload{
		Chats:        s.Chats,
		ActiveChatID: s.ActiveChatID,
		UnreadCount:  m.UnreadCount(),
	})
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateChatRequest
	if !bind(c, &req) {
		return
	}
	t := machine(c).CreateChat(req.ParticipantIDs, req.Name, req.Type)
	response.Success(c, http.StatusCreated, t)
}

func (h *Handler) Unread(c *gin.Context) {
	m := machine(c)
	byChat := make(map[string]int)
	for _, t := range m.Chats() {
		byChat[t.ID] = m.UnreadCountFor(t.ID)
	}
	response.Success(c, http.StatusOK, UnreadResponse{UnreadCount: m.UnreadCount(), ByChat: byChat})
}

func (h *Handler) Active(c *gin.Context) {
	t, ok := machine(c).ActiveChat()
	if !ok {
		response.Error(c, http.StatusNotFound, "NO_ACTIVE_CHAT", "No chat selected")
		return
	}
	response.Success(c, http.StatusOK, t)
}

func (h *Handler) SetActive(c *gin.Context) {
	var req SetActiveRequest
	if !bind(c, &req) {
		return
	}
	m := machine(c)
	if !m.SetActiveChat(req.ChatID) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Chat not found")
		return
	}
	t, _ := m.ActiveChat()
	response.Success(c, http.StatusOK, t)
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if !bind(c, &req) {
		return
	}
	msg, ok := machine(c).SendMessage(c.Param("id"), req.Content, req.Type)
	if !ok {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Chat not found")
		return
	}
	response.Success(c, http.StatusCreated, msg)
}

func (h *Handler) MarkAsRead(c *gin.Context) {
	m := machine(c)
	id := c.Param("id")
	if _, ok := m.Chat(id); !ok {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Chat not found")
		return
	}
	m.MarkMessagesAsRead(id)
	response.Success(c, http.StatusOK, gin.H{"status": "read"})
}
