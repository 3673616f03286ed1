package conversation

import (
	"errors"
	"net/http"
	"strconv"

	"fixhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser origins are already filtered by the CORS middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	service *Service
	hub     *Hub
	log     zerolog.Logger
}

func NewHandler(service *Service, hub *Hub, log zerolog.Logger) *Handler {
	return &Handler{service: service, hub: hub, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/conversations", h.ListMine)
	rg.GET("/conversations/:id/messages", h.ListMessages)
	rg.POST("/conversations/:id/messages", h.SendMessage)
	rg.GET("/ws", h.WebSocket)
}

type sendMessageInput struct {
	Body string `json:"body" binding:"required"`
}

func (h *Handler) ListMine(c *gin.Context) {
	list, err := h.service.ListMine(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"conversations": list})
}

func (h *Handler) ListMessages(c *gin.Context) {
	id, ok := h.conversationID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	msgs, err := h.service.ListMessages(c.Request.Context(), c.GetInt64("user_id"), id, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"messages": msgs})
}

func (h *Handler) SendMessage(c *gin.Context) {
	id, ok := h.conversationID(c)
	if !ok {
		return
	}

	var in sendMessageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), c.GetInt64("user_id"), id, in.Body)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"message": msg})
}

// WebSocket upgrades the connection and keeps it registered until the
// client goes away. Delivery is push-only; incoming frames are discarded.
func (h *Handler) WebSocket(c *gin.Context) {
	userID := c.GetInt64("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Int64("user_id", userID).Msg("websocket upgrade failed")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) conversationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrConversationNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
	case errors.Is(err, ErrNotParticipant):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this conversation")
	case errors.Is(err, ErrEmptyBody):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Message body cannot be empty")
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("conversation handler failure")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}
