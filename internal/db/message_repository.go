package db

import (
	"context"
)

// Message is one chat utterance. An exchange writes two rows: the user's
// message and the chatbot's reply, distinguished by IsUserMessage.
type Message struct {
	Record
	UserID        int64
	ChatbotID     int64
	Content       string
	IsUserMessage bool
}

type MessageRepository struct {
	db *DB
}

func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO messages (user_id, chatbot_id, content, is_user_message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, status
	`

	return r.db.QueryRowContext(ctx, query,
		msg.UserID, msg.ChatbotID, msg.Content, msg.IsUserMessage,
	).Scan(&msg.ID, &msg.CreatedAt, &msg.Status)
}

// History returns the conversation between a user and a chatbot in send
// order.
func (r *MessageRepository) History(ctx context.Context, userID, chatbotID int64) ([]*Message, error) {
	query := `
		SELECT id, user_id, chatbot_id, content, is_user_message, created_at, status
		FROM messages
		WHERE user_id = $1 AND chatbot_id = $2
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, userID, chatbotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg := &Message{}
		if err := rows.Scan(
			&msg.ID, &msg.UserID, &msg.ChatbotID, &msg.Content, &msg.IsUserMessage, &msg.CreatedAt, &msg.Status,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
