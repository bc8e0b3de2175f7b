package db

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"sync"

	apperrors "github.com/chatforge/backend/internal/errors"
	"github.com/chatforge/backend/internal/logger"
)

type contextKey string

const sessionContextKey contextKey = "db_session"

// Session is a connection checked out of the pool for the lifetime of a
// single request. It is owned exclusively by that request and must never be
// shared; Release returns the connection to the pool and is safe to call
// more than once.
type Session struct {
	conn *sql.Conn
	once sync.Once
}

// Acquire checks a dedicated connection out of the pool.
func (db *DB) Acquire(ctx context.Context) (*Session, error) {
	conn, err := db.pool.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{conn: conn}, nil
}

// Release returns the connection to the pool. Idempotent.
func (s *Session) Release() {
	if s == nil || s.conn == nil {
		return
	}
	s.once.Do(func() {
		s.conn.Close()
	})
}

// WithSession attaches a session to the context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// SessionFromContext returns the request's session, or nil when none was
// acquired.
func SessionFromContext(ctx context.Context) *Session {
	s, ok := ctx.Value(sessionContextKey).(*Session)
	if !ok {
		return nil
	}
	return s
}

// SessionMiddleware acquires a scoped session per request and guarantees its
// release on every exit path, panics included. The deferred Release runs
// after any recovery middleware further down the chain has written its
// response.
func SessionMiddleware(database *DB) func(http.Handler) http.Handler {
	log := logger.Default().WithComponent("db")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Probes and metrics must answer even when the pool is dry.
			if r.URL.Path == "/metrics" || strings.HasPrefix(r.URL.Path, "/health") {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := database.Acquire(r.Context())
			if err != nil {
				requestID := apperrors.GetRequestID(r.Context())
				log.Error(r.Context(), "failed to acquire database session", err)
				apperrors.WriteError(w, requestID,
					apperrors.New(apperrors.CodeDatabaseError, "database unavailable",
						apperrors.CategoryServer, http.StatusServiceUnavailable))
				return
			}
			defer sess.Release()

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}
