package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chatforge/backend/internal/db"
	"github.com/chatforge/backend/internal/logger"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size.
	maxMessageSize = 8192

	// Outbound buffer per client.
	sendBufferSize = 16
)

// inboundFrame is the client-to-server chat frame.
type inboundFrame struct {
	ChatbotID int64  `json:"chatbot_id"`
	Content   string `json:"content"`
}

// Client is a single WebSocket connection owned by one user.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	service *Service
	userID  int64
	send    chan *Event
}

func NewClient(hub *Hub, conn *websocket.Conn, service *Service, userID int64) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		service: service,
		userID:  userID,
		send:    make(chan *Event, sendBufferSize),
	}
}

// ReadPump reads inbound frames, runs each through the chat service and
// fans the resulting exchange out to all of the user's connections.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn(context.Background(), "WebSocket read error", map[string]any{
					"component": "chat",
					"user_id":   c.userID,
				})
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.sendError("invalid message format")
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		exchange, err := c.service.Send(ctx, c.userID, frame.ChatbotID, frame.Content)
		cancel()
		if err != nil {
			c.sendError(sendErrorText(err))
			continue
		}

		c.hub.Broadcast(&Event{Type: "message", UserID: c.userID, Message: exchange.UserMessage})
		c.hub.Broadcast(&Event{Type: "message", UserID: c.userID, Message: exchange.Reply})
	}
}

func sendErrorText(err error) string {
	switch {
	case errors.Is(err, ErrEmptyMessage):
		return "message content is empty"
	case errors.Is(err, ErrNotOwner), errors.Is(err, db.ErrChatbotNotFound):
		return "chatbot not found"
	case errors.Is(err, ErrReplyFailed):
		return "failed to generate reply"
	default:
		return "failed to send message"
	}
}

// sendError delivers an error frame to this connection only.
func (c *Client) sendError(msg string) {
	select {
	case c.send <- &Event{Type: "error", UserID: c.userID, Error: msg}:
	default:
	}
}

// WritePump writes events from the send channel to the connection and keeps
// it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
