package chat

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/chatforge/backend/internal/auth"
	"github.com/chatforge/backend/internal/logger"
	"github.com/chatforge/backend/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Configure allowed origins for production
		return true
	},
}

// WSHandler upgrades chat WebSocket connections.
type WSHandler struct {
	hub         *Hub
	service     *Service
	authService *auth.Service
	metrics     *metrics.Metrics
}

func NewWSHandler(hub *Hub, service *Service, authService *auth.Service, m *metrics.Metrics) *WSHandler {
	return &WSHandler{
		hub:         hub,
		service:     service,
		authService: authService,
		metrics:     m,
	}
}

// ServeWS handles WebSocket requests from clients.
// Authentication is done via query parameter: ?token=<jwt_token>
// This is necessary because browser WebSocket API doesn't support custom headers.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, `{"code":"UNAUTHORIZED","message":"missing token parameter"}`, http.StatusUnauthorized)
		return
	}

	user, err := h.authService.CurrentUser(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			http.Error(w, `{"code":"TOKEN_EXPIRED","message":"access token has expired"}`, http.StatusUnauthorized)
			return
		}
		http.Error(w, `{"code":"UNAUTHORIZED","message":"invalid access token"}`, http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error(r.Context(), "WebSocket upgrade failed", err, map[string]any{
			"component": "chat",
		})
		return
	}

	client := NewClient(h.hub, conn, h.service, user.ID)
	h.hub.register <- client

	h.metrics.IncWSConnections()

	go client.WritePump()
	go func() {
		// ReadPump returns when the connection dies, which is the one
		// reliable place to release the gauge.
		defer h.metrics.DecWSConnections()
		client.ReadPump()
	}()
}

// GetHub returns the hub instance for external access.
func (h *WSHandler) GetHub() *Hub {
	return h.hub
}
