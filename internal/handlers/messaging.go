package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/middleware"
	"github.com/lndnexus/marketplace/backend/internal/services"
	"github.com/lndnexus/marketplace/backend/pkg/response"
)

type MessagingHandler struct {
	messagingService *services.MessagingService
}

func NewMessagingHandler(messagingService *services.MessagingService) *MessagingHandler {
	return &MessagingHandler{messagingService: messagingService}
}

// ListConversations returns the caller's conversations, latest first
// GET /api/conversations
func (h *MessagingHandler) ListConversations(c *gin.Context) {
	conversations, err := h.messagingService.ListConversations(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, conversations)
}

// GetOrCreate returns the caller's conversation with another user,
// opening it on first contact
// POST /api/conversations
func (h *MessagingHandler) GetOrCreate(c *gin.Context) {
	var req services.ConversationRequest
	if !bindJSON(c, &req) {
		return
	}

	conversation, err := h.messagingService.GetOrCreateConversation(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, conversation)
}

// ListMessages
// GET /api/conversations/:id/messages
func (h *MessagingHandler) ListMessages(c *gin.Context) {
	messages, err := h.messagingService.ListMessages(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, messages)
}

// MarkRead marks the other participant's messages as read
// POST /api/conversations/:id/read
func (h *MessagingHandler) MarkRead(c *gin.Context) {
	updated, err := h.messagingService.MarkRead(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"updated": updated})
}

// Send posts a message as the caller
// POST /api/messages
func (h *MessagingHandler) Send(c *gin.Context) {
	var req services.MessageRequest
	if !bindJSON(c, &req) {
		return
	}

	message, err := h.messagingService.CreateMessage(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, message)
}
