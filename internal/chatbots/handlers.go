package chatbots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chatforge/backend/internal/auth"
	"github.com/chatforge/backend/internal/db"
	apperrors "github.com/chatforge/backend/internal/errors"
	"github.com/chatforge/backend/internal/logger"
)

const cacheTTL = 5 * time.Minute

// ChatbotInfo is the public shape of a chatbot.
type ChatbotInfo struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Name      string          `json:"name"`
	Kind      string          `json:"kind"`
	Settings  json.RawMessage `json:"settings"`
	CreatedAt time.Time       `json:"created_at"`
	Status    int16           `json:"status"`
}

func NewChatbotInfo(bot *db.Chatbot) *ChatbotInfo {
	return &ChatbotInfo{
		ID:        bot.ID,
		UserID:    bot.UserID,
		Name:      bot.Name,
		Kind:      bot.Kind,
		Settings:  bot.Settings,
		CreatedAt: bot.CreatedAt,
		Status:    bot.Status,
	}
}

// CreateRequest is the chatbot creation request body.
type CreateRequest struct {
	Name     string          `json:"name"`
	Kind     string          `json:"kind"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

// UpdateRequest is the partial update request body. Absent fields keep
// their stored value.
type UpdateRequest struct {
	Name     *string         `json:"name,omitempty"`
	Kind     *string         `json:"kind,omitempty"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

// chatbotStore is the slice of db.ChatbotRepository the handlers need.
type chatbotStore interface {
	Create(ctx context.Context, bot *db.Chatbot) error
	GetByID(ctx context.Context, id int64) (*db.Chatbot, error)
	Update(ctx context.Context, id int64, name, kind *string, settings json.RawMessage) (*db.Chatbot, error)
	Delete(ctx context.Context, id int64) error
}

// botCache is the slice of cache.Cache the handlers need.
type botCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Handlers struct {
	chatbots chatbotStore
	cache    botCache
}

func NewHandlers(chatbots chatbotStore, c botCache) *Handlers {
	return &Handlers{chatbots: chatbots, cache: c}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("chatbot:%d", id)
}

// Create registers a chatbot for the authenticated user. One chatbot per
// user, enforced by a unique index on user_id.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := apperrors.GetRequestID(ctx)

	userCtx := auth.GetUserFromContext(ctx)
	if userCtx == nil {
		apperrors.WriteError(w, requestID, apperrors.Unauthorized("not authenticated"))
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid JSON body"))
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 255 {
		apperrors.WriteError(w, requestID, apperrors.ValidationError("name must be between 1 and 255 characters"))
		return
	}

	bot := &db.Chatbot{
		UserID:   userCtx.UserID,
		Name:     name,
		Kind:     req.Kind,
		Settings: req.Settings,
	}

	if err := h.chatbots.Create(ctx, bot); err != nil {
		if errors.Is(err, db.ErrChatbotExists) {
			apperrors.WriteError(w, requestID, apperrors.ChatbotExists())
			return
		}
		logger.Error(ctx, "Failed to create chatbot", err, map[string]any{
			"component": "chatbots",
			"user_id":   userCtx.UserID,
		})
		apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to create chatbot"))
		return
	}

	apperrors.WriteJSON(w, requestID, http.StatusCreated, NewChatbotInfo(bot))
}

// Get returns a chatbot by ID, serving from cache when possible.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := apperrors.GetRequestID(ctx)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid chatbot ID"))
		return
	}

	if cached, ok := h.cache.Get(ctx, cacheKey(id)); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		if requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
		}
		w.Write([]byte(cached))
		return
	}

	bot, err := h.chatbots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrChatbotNotFound) {
			apperrors.WriteError(w, requestID, apperrors.ChatbotNotFound())
			return
		}
		apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to load chatbot"))
		return
	}

	info := NewChatbotInfo(bot)
	if body, err := json.Marshal(info); err == nil {
		h.cache.Set(ctx, cacheKey(id), string(body), cacheTTL)
	}

	apperrors.WriteJSON(w, requestID, http.StatusOK, info)
}

// Update applies a partial update to the caller's chatbot and invalidates
// the cache entry.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := apperrors.GetRequestID(ctx)

	userCtx := auth.GetUserFromContext(ctx)
	if userCtx == nil {
		apperrors.WriteError(w, requestID, apperrors.Unauthorized("not authenticated"))
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid chatbot ID"))
		return
	}

	existing, err := h.chatbots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrChatbotNotFound) {
			apperrors.WriteError(w, requestID, apperrors.ChatbotNotFound())
			return
		}
		apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to load chatbot"))
		return
	}
	if existing.UserID != userCtx.UserID {
		apperrors.WriteError(w, requestID, apperrors.Forbidden("cannot modify another user's chatbot"))
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid JSON body"))
		return
	}

	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" || len(trimmed) > 255 {
			apperrors.WriteError(w, requestID, apperrors.ValidationError("name must be between 1 and 255 characters"))
			return
		}
		req.Name = &trimmed
	}

	bot, err := h.chatbots.Update(ctx, id, req.Name, req.Kind, req.Settings)
	if err != nil {
		if errors.Is(err, db.ErrChatbotNotFound) {
			apperrors.WriteError(w, requestID, apperrors.ChatbotNotFound())
			return
		}
		apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to update chatbot"))
		return
	}

	h.cache.Delete(ctx, cacheKey(id))

	apperrors.WriteJSON(w, requestID, http.StatusOK, NewChatbotInfo(bot))
}

// Delete removes the caller's chatbot and invalidates the cache entry.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := apperrors.GetRequestID(ctx)

	userCtx := auth.GetUserFromContext(ctx)
	if userCtx == nil {
		apperrors.WriteError(w, requestID, apperrors.Unauthorized("not authenticated"))
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid chatbot ID"))
		return
	}

	existing, err := h.chatbots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrChatbotNotFound) {
			apperrors.WriteError(w, requestID, apperrors.ChatbotNotFound())
			return
		}
		apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to load chatbot"))
		return
	}
	if existing.UserID != userCtx.UserID {
		apperrors.WriteError(w, requestID, apperrors.Forbidden("cannot delete another user's chatbot"))
		return
	}

	if err := h.chatbots.Delete(ctx, id); err != nil {
		if errors.Is(err, db.ErrChatbotNotFound) {
			apperrors.WriteError(w, requestID, apperrors.ChatbotNotFound())
			return
		}
		apperrors.WriteError(w, requestID, apperrors.DatabaseError("failed to delete chatbot"))
		return
	}

	h.cache.Delete(ctx, cacheKey(id))

	logger.Info(ctx, "Chatbot deleted", map[string]any{
		"component":  "chatbots",
		"chatbot_id": id,
	})

	w.WriteHeader(http.StatusNoContent)
}
