package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"taskpilot/internal/errors"
	"taskpilot/internal/model"
	"taskpilot/internal/service"
)

// ChatHandler handles conversation and message endpoints.
type ChatHandler struct {
	conversations service.ConversationService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(conversations service.ConversationService) *ChatHandler {
	return &ChatHandler{conversations: conversations}
}

// CreateConversationRequest represents a conversation creation request.
type CreateConversationRequest struct {
	Title string `json:"title" validate:"omitempty,max=255"`
}

// SendMessageRequest represents one chat turn from the user.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

// SendMessageResponse returns both sides of the turn.
type SendMessageResponse struct {
	UserMessage      *model.Message `json:"user_message"`
	AssistantMessage *model.Message `json:"assistant_message"`
}

// ListMessagesQuery limits a message listing to the most recent N.
type ListMessagesQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1"`
}

// CreateConversation godoc
// @Summary Start a conversation
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateConversationRequest false "Optional title"
// @Success 201 {object} model.Conversation
// @Failure 401 {object} errors.ErrorResponse
// @Router /chat/conversations [post]
func (h *ChatHandler) CreateConversation(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	conversation, err := h.conversations.Create(c.Request().Context(), userID, req.Title)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, conversation)
}

// ListConversations godoc
// @Summary List the caller's conversations, most recently updated first
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Conversation
// @Failure 401 {object} errors.ErrorResponse
// @Router /chat/conversations [get]
func (h *ChatHandler) ListConversations(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	conversations, err := h.conversations.ListByOwner(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}
	if conversations == nil {
		conversations = []model.Conversation{}
	}
	return c.JSON(http.StatusOK, conversations)
}

// DeleteConversation godoc
// @Summary Delete a conversation and all of its messages
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation id"
// @Success 200 {object} map[string]string
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /chat/conversations/{id} [delete]
func (h *ChatHandler) DeleteConversation(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	conversationID, ok := parseConversationID(c)
	if !ok {
		return conversationNotFound()
	}

	deleted, err := h.conversations.Delete(c.Request().Context(), conversationID, userID)
	if err != nil {
		return toHTTPError(err)
	}
	if !deleted {
		return conversationNotFound()
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "conversation deleted successfully",
	})
}

// SendMessage godoc
// @Summary Send a message and get the assistant's reply
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation id"
// @Param request body SendMessageRequest true "Message content"
// @Success 200 {object} SendMessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /chat/conversations/{id}/messages [post]
func (h *ChatHandler) SendMessage(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	conversationID, ok := parseConversationID(c)
	if !ok {
		return conversationNotFound()
	}

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	userMsg, assistantMsg, err := h.conversations.SendMessage(c.Request().Context(), conversationID, userID, req.Content)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, SendMessageResponse{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	})
}

// ListMessages godoc
// @Summary List a conversation's messages in ascending creation order
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation id"
// @Param limit query int false "Return only the most recent N messages"
// @Success 200 {array} model.Message
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /chat/conversations/{id}/messages [get]
func (h *ChatHandler) ListMessages(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	conversationID, ok := parseConversationID(c)
	if !ok {
		return conversationNotFound()
	}

	var query ListMessagesQuery
	if err := c.Bind(&query); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if err := c.Validate(&query); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	messages, err := h.conversations.ListMessages(c.Request().Context(), conversationID, userID, query.Limit)
	if err != nil {
		return toHTTPError(err)
	}
	if messages == nil {
		messages = []model.Message{}
	}
	return c.JSON(http.StatusOK, messages)
}

// parseConversationID reads the path id; a malformed id reads as not-found.
func parseConversationID(c echo.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func conversationNotFound() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusNotFound, errors.ErrorResponse{
		Error: "conversation not found",
		Code:  "NOT_FOUND",
	})
}
