package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

var ErrChatbotNotFound = errors.New("chatbot not found")
var ErrChatbotExists = errors.New("user already has a chatbot")

type Chatbot struct {
	Record
	UserID   int64
	Name     string
	Kind     string
	Settings json.RawMessage
}

type ChatbotRepository struct {
	db *DB
}

func NewChatbotRepository(db *DB) *ChatbotRepository {
	return &ChatbotRepository{db: db}
}

func (r *ChatbotRepository) Create(ctx context.Context, bot *Chatbot) error {
	if len(bot.Settings) == 0 {
		bot.Settings = json.RawMessage(`{}`)
	}

	query := `
		INSERT INTO chatbots (user_id, name, kind, settings)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, status
	`

	err := r.db.QueryRowContext(ctx, query,
		bot.UserID, bot.Name, bot.Kind, []byte(bot.Settings),
	).Scan(&bot.ID, &bot.CreatedAt, &bot.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrChatbotExists
		}
		return err
	}

	return nil
}

func (r *ChatbotRepository) GetByID(ctx context.Context, id int64) (*Chatbot, error) {
	query := `
		SELECT id, user_id, name, kind, settings, created_at, status
		FROM chatbots
		WHERE id = $1
	`

	return r.scanChatbot(r.db.QueryRowContext(ctx, query, id))
}

// Update applies a partial update; nil fields keep their stored value.
func (r *ChatbotRepository) Update(ctx context.Context, id int64, name, kind *string, settings json.RawMessage) (*Chatbot, error) {
	query := `
		UPDATE chatbots
		SET name     = COALESCE($2, name),
		    kind     = COALESCE($3, kind),
		    settings = COALESCE($4, settings)
		WHERE id = $1
		RETURNING id, user_id, name, kind, settings, created_at, status
	`

	var settingsArg any
	if len(settings) > 0 {
		settingsArg = []byte(settings)
	}

	return r.scanChatbot(r.db.QueryRowContext(ctx, query,
		id, nullableString(name), nullableString(kind), settingsArg,
	))
}

// Delete removes the row. Chatbots are hard-deleted, unlike users and data
// sources.
func (r *ChatbotRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM chatbots WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrChatbotNotFound
	}

	return nil
}

func (r *ChatbotRepository) scanChatbot(row *sql.Row) (*Chatbot, error) {
	bot := &Chatbot{}
	var settings []byte
	err := row.Scan(
		&bot.ID, &bot.UserID, &bot.Name, &bot.Kind, &settings, &bot.CreatedAt, &bot.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChatbotNotFound
		}
		return nil, err
	}
	bot.Settings = json.RawMessage(settings)
	return bot, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
