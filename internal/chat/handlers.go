package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/chatforge/backend/internal/auth"
	"github.com/chatforge/backend/internal/db"
	apperrors "github.com/chatforge/backend/internal/errors"
)

// SendRequest is the HTTP chat message request body.
type SendRequest struct {
	Content string `json:"content"`
}

type Handlers struct {
	service *Service
	hub     *Hub
}

func NewHandlers(service *Service, hub *Hub) *Handlers {
	return &Handlers{service: service, hub: hub}
}

func writeSendError(w http.ResponseWriter, requestID string, err error) {
	switch {
	case errors.Is(err, ErrEmptyMessage):
		apperrors.WriteError(w, requestID, apperrors.ValidationError("message content is empty"))
	case errors.Is(err, db.ErrChatbotNotFound):
		apperrors.WriteError(w, requestID, apperrors.ChatbotNotFound())
	case errors.Is(err, ErrNotOwner):
		apperrors.WriteError(w, requestID, apperrors.Forbidden("cannot chat with another user's chatbot"))
	case errors.Is(err, ErrReplyFailed):
		apperrors.WriteError(w, requestID, apperrors.ResponderError("failed to generate reply"))
	default:
		apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to send message"))
	}
}

// Send accepts a message over plain HTTP and returns the stored exchange.
// WebSocket clients connected as the same user see the exchange too.
func (h *Handlers) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := apperrors.GetRequestID(ctx)

	userCtx := auth.GetUserFromContext(ctx)
	if userCtx == nil {
		apperrors.WriteError(w, requestID, apperrors.Unauthorized("not authenticated"))
		return
	}

	chatbotID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid chatbot ID"))
		return
	}

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid JSON body"))
		return
	}

	exchange, err := h.service.Send(ctx, userCtx.UserID, chatbotID, req.Content)
	if err != nil {
		writeSendError(w, requestID, err)
		return
	}

	if h.hub.ClientCount(userCtx.UserID) > 0 {
		h.hub.Broadcast(&Event{Type: "message", UserID: userCtx.UserID, Message: exchange.UserMessage})
		h.hub.Broadcast(&Event{Type: "message", UserID: userCtx.UserID, Message: exchange.Reply})
	}

	apperrors.WriteJSON(w, requestID, http.StatusCreated, exchange)
}

// History returns the conversation with a chatbot, oldest first.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := apperrors.GetRequestID(ctx)

	userCtx := auth.GetUserFromContext(ctx)
	if userCtx == nil {
		apperrors.WriteError(w, requestID, apperrors.Unauthorized("not authenticated"))
		return
	}

	chatbotID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid chatbot ID"))
		return
	}

	messages, err := h.service.History(ctx, userCtx.UserID, chatbotID)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrChatbotNotFound):
			apperrors.WriteError(w, requestID, apperrors.ChatbotNotFound())
		case errors.Is(err, ErrNotOwner):
			apperrors.WriteError(w, requestID, apperrors.Forbidden("cannot read another user's conversation"))
		default:
			apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to load history"))
		}
		return
	}

	apperrors.WriteJSON(w, requestID, http.StatusOK, map[string]any{
		"messages": messages,
	})
}
