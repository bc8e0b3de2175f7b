package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chatforge/backend/internal/db"
	"github.com/chatforge/backend/internal/logger"
	"github.com/chatforge/backend/internal/metrics"
	"github.com/chatforge/backend/internal/responder"
)

var (
	ErrEmptyMessage = errors.New("message content is empty")
	ErrNotOwner     = errors.New("chatbot belongs to another user")
	ErrReplyFailed  = errors.New("failed to generate reply")
)

// MessageInfo is the public shape of a chat message.
type MessageInfo struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	ChatbotID     int64     `json:"chatbot_id"`
	Content       string    `json:"content"`
	IsUserMessage bool      `json:"is_user_message"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewMessageInfo(msg *db.Message) *MessageInfo {
	return &MessageInfo{
		ID:            msg.ID,
		UserID:        msg.UserID,
		ChatbotID:     msg.ChatbotID,
		Content:       msg.Content,
		IsUserMessage: msg.IsUserMessage,
		CreatedAt:     msg.CreatedAt,
	}
}

// Exchange is one request/reply pair.
type Exchange struct {
	UserMessage *MessageInfo `json:"user_message"`
	Reply       *MessageInfo `json:"reply"`
}

// messageStore is the slice of db.MessageRepository the service needs.
type messageStore interface {
	Create(ctx context.Context, msg *db.Message) error
	History(ctx context.Context, userID, chatbotID int64) ([]*db.Message, error)
}

// chatbotStore is the slice of db.ChatbotRepository the service needs.
type chatbotStore interface {
	GetByID(ctx context.Context, id int64) (*db.Chatbot, error)
}

// Service implements chat semantics: persist the user's message, generate
// a reply, persist the reply.
type Service struct {
	messages  messageStore
	chatbots  chatbotStore
	responder responder.Responder
	metrics   *metrics.Metrics
}

func NewService(messages messageStore, chatbots chatbotStore, rsp responder.Responder, m *metrics.Metrics) *Service {
	return &Service{
		messages:  messages,
		chatbots:  chatbots,
		responder: rsp,
		metrics:   m,
	}
}

// loadOwnedChatbot returns the chatbot if it exists and belongs to userID.
func (s *Service) loadOwnedChatbot(ctx context.Context, userID, chatbotID int64) (*db.Chatbot, error) {
	bot, err := s.chatbots.GetByID(ctx, chatbotID)
	if err != nil {
		return nil, err
	}
	if bot.UserID != userID {
		return nil, ErrNotOwner
	}
	return bot, nil
}

// Send persists the user's message, asks the responder for a reply and
// persists that too. The user's message survives even when the reply fails,
// so the conversation record stays truthful.
func (s *Service) Send(ctx context.Context, userID, chatbotID int64, content string) (*Exchange, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	bot, err := s.loadOwnedChatbot(ctx, userID, chatbotID)
	if err != nil {
		return nil, err
	}

	userMsg := &db.Message{
		UserID:        userID,
		ChatbotID:     chatbotID,
		Content:       content,
		IsUserMessage: true,
	}
	if err := s.messages.Create(ctx, userMsg); err != nil {
		return nil, err
	}

	s.metrics.IncCounter(metrics.CounterMessagesSent)

	replyText, err := s.responder.Reply(ctx, bot, content)
	if err != nil {
		s.metrics.IncCounter(metrics.CounterRepliesFailed)
		logger.Error(ctx, "Responder failed", err, map[string]any{
			"component":  "chat",
			"chatbot_id": chatbotID,
		})
		return nil, fmt.Errorf("%w: %v", ErrReplyFailed, err)
	}

	replyMsg := &db.Message{
		UserID:        userID,
		ChatbotID:     chatbotID,
		Content:       replyText,
		IsUserMessage: false,
	}
	if err := s.messages.Create(ctx, replyMsg); err != nil {
		return nil, err
	}

	return &Exchange{
		UserMessage: NewMessageInfo(userMsg),
		Reply:       NewMessageInfo(replyMsg),
	}, nil
}

// History returns the full conversation between the user and the chatbot,
// oldest first.
func (s *Service) History(ctx context.Context, userID, chatbotID int64) ([]*MessageInfo, error) {
	if _, err := s.loadOwnedChatbot(ctx, userID, chatbotID); err != nil {
		return nil, err
	}

	messages, err := s.messages.History(ctx, userID, chatbotID)
	if err != nil {
		return nil, err
	}

	infos := make([]*MessageInfo, 0, len(messages))
	for _, msg := range messages {
		infos = append(infos, NewMessageInfo(msg))
	}
	return infos, nil
}
