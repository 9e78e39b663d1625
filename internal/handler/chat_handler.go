package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/AhmadJamshaid/nust-marketplace/internal/model"
	"github.com/AhmadJamshaid/nust-marketplace/internal/repo"
	"github.com/AhmadJamshaid/nust-marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

// Caller identity headers, filled by the authentication layer in front of this
// service. The engine consumes them as-is and never validates credentials.
const (
	HeaderUserAddress = "X-User-Address"
	HeaderUserName    = "X-User-Name"
)

type ChatHandler interface {
	SendMessage(c *gin.Context)
	OpenConversation(c *gin.Context)
	GetConversationMessages(c *gin.Context)
	MarkRead(c *gin.Context)
	DeleteConversation(c *gin.Context)
	GetInbox(c *gin.Context)
}

type chatHandler struct {
	chat service.ChatService
}

func NewChatHandler(chat service.ChatService) ChatHandler {
	return &chatHandler{chat: chat}
}

type participantPayload struct {
	Address     string `json:"address" binding:"required"`
	DisplayName string `json:"displayName"`
}

type sourcePayload struct {
	ID    string             `json:"id" binding:"required"`
	Type  string             `json:"type" binding:"required"`
	Name  string             `json:"name"`
	Owner participantPayload `json:"owner"`
}

type sendPayload struct {
	Text            string              `json:"text" binding:"required"`
	ClientTimestamp int64               `json:"clientTimestamp"`
	ConversationID  string              `json:"conversationId"`
	Counterpart     *participantPayload `json:"counterpart"`
	Source          *sourcePayload      `json:"source"`
}

func (h *chatHandler) SendMessage(c *gin.Context) {
	sender, ok := callerIdentity(c)
	if !ok {
		return
	}

	var payload sendPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := service.SendInput{
		Sender:         sender,
		Text:           payload.Text,
		ConversationID: payload.ConversationID,
	}
	if payload.ClientTimestamp > 0 {
		in.ClientTimestamp = time.UnixMilli(payload.ClientTimestamp).UTC()
	}
	if payload.Counterpart != nil {
		in.Counterpart = &model.Participant{
			Address:     payload.Counterpart.Address,
			DisplayName: payload.Counterpart.DisplayName,
		}
	}
	if payload.Source != nil {
		in.Source = &service.SourceRef{
			ID:   payload.Source.ID,
			Type: payload.Source.Type,
			Name: payload.Source.Name,
			Owner: model.Participant{
				Address:     payload.Source.Owner.Address,
				DisplayName: payload.Source.Owner.DisplayName,
			},
		}
	}

	msg, err := h.chat.SendMessage(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

type openPayload struct {
	Counterpart *participantPayload `json:"counterpart"`
	Source      *sourcePayload      `json:"source"`
}

func (h *chatHandler) OpenConversation(c *gin.Context) {
	viewer, ok := callerIdentity(c)
	if !ok {
		return
	}

	var payload openPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := service.OpenInput{Viewer: viewer}
	if payload.Counterpart != nil {
		in.Counterpart = &model.Participant{
			Address:     payload.Counterpart.Address,
			DisplayName: payload.Counterpart.DisplayName,
		}
	}
	if payload.Source != nil {
		in.Source = &service.SourceRef{
			ID:   payload.Source.ID,
			Type: payload.Source.Type,
			Name: payload.Source.Name,
			Owner: model.Participant{
				Address:     payload.Source.Owner.Address,
				DisplayName: payload.Source.Owner.DisplayName,
			},
		}
	}

	result, err := h.chat.OpenConversation(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *chatHandler) GetConversationMessages(c *gin.Context) {
	conversationID := c.Param("conversationId")
	page := c.DefaultQuery("page", "1")
	pageNumber, err := strconv.ParseInt(page, 10, 64)
	if err != nil || pageNumber < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page number"})
		return
	}

	msgs, err := h.chat.ConversationMessages(c.Request.Context(), conversationID, pageNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *chatHandler) MarkRead(c *gin.Context) {
	viewer, ok := callerIdentity(c)
	if !ok {
		return
	}

	count, err := h.chat.MarkRead(c.Request.Context(), c.Param("conversationId"), viewer.Address)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"markedRead": count})
}

func (h *chatHandler) DeleteConversation(c *gin.Context) {
	viewer, ok := callerIdentity(c)
	if !ok {
		return
	}

	err := h.chat.DeleteForUser(c.Request.Context(), c.Param("conversationId"), viewer.Address)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *chatHandler) GetInbox(c *gin.Context) {
	viewer, ok := callerIdentity(c)
	if !ok {
		return
	}

	entries, err := h.chat.InboxSnapshot(c.Request.Context(), viewer.Address)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"inbox": entries})
}

func callerIdentity(c *gin.Context) (model.Participant, bool) {
	address := c.GetHeader(HeaderUserAddress)
	if address == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return model.Participant{}, false
	}
	return model.Participant{
		Address:     address,
		DisplayName: c.GetHeader(HeaderUserName),
	}, true
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repo.ErrEmptyText),
		errors.Is(err, repo.ErrInvalidConversationID),
		errors.Is(err, repo.ErrInvalidAddress),
		errors.Is(err, service.ErrSelfConversation),
		errors.Is(err, service.ErrNoTarget):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repo.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case repo.IsTransient(err),
		errors.Is(err, repo.ErrOperationTimeout):
		// retryable by the caller; the engine never retries beyond its own
		// bounded write attempts
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store temporarily unavailable, retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
