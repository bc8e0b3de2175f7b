package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// DB owns the process-wide connection pool. It is created once at startup and
// injected into repositories; request handlers never touch it directly.
type DB struct {
	pool *sql.DB
}

func New(host, port, user, password, dbname string) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname,
	)

	pool, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := pool.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() error {
	return db.pool.Close()
}

// Pool exposes the underlying *sql.DB for health checks.
func (db *DB) Pool() *sql.DB {
	return db.pool
}

// ExecContext routes through the request-scoped session when one is present
// in the context, otherwise through the shared pool.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s := SessionFromContext(ctx); s != nil {
		return s.conn.ExecContext(ctx, query, args...)
	}
	return db.pool.ExecContext(ctx, query, args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if s := SessionFromContext(ctx); s != nil {
		return s.conn.QueryContext(ctx, query, args...)
	}
	return db.pool.QueryContext(ctx, query, args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	if s := SessionFromContext(ctx); s != nil {
		return s.conn.QueryRowContext(ctx, query, args...)
	}
	return db.pool.QueryRowContext(ctx, query, args...)
}

func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	if s := SessionFromContext(ctx); s != nil {
		return s.conn.BeginTx(ctx, opts)
	}
	return db.pool.BeginTx(ctx, opts)
}

func (db *DB) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		status SMALLINT NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	CREATE INDEX IF NOT EXISTS idx_users_name ON users(name);

	CREATE TABLE IF NOT EXISTS chatbots (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		name VARCHAR(255) NOT NULL,
		kind VARCHAR(50) NOT NULL,
		settings JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		status SMALLINT NOT NULL DEFAULT 1
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_chatbots_user_id ON chatbots(user_id);

	CREATE TABLE IF NOT EXISTS data_sources (
		id BIGSERIAL PRIMARY KEY,
		chatbot_id BIGINT NOT NULL REFERENCES chatbots(id) ON DELETE CASCADE,
		data_type VARCHAR(50) NOT NULL,
		object_key VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		status SMALLINT NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_data_sources_chatbot_id ON data_sources(chatbot_id);

	CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		chatbot_id BIGINT NOT NULL,
		content TEXT NOT NULL,
		is_user_message BOOLEAN NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		status SMALLINT NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_messages_user_chatbot ON messages(user_id, chatbot_id);
	`

	_, err := db.pool.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
