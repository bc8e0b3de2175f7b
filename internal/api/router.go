package api

import (
	"net/http"

	"github.com/chatforge/backend/internal/auth"
	"github.com/chatforge/backend/internal/chat"
	"github.com/chatforge/backend/internal/chatbots"
	"github.com/chatforge/backend/internal/datasources"
	"github.com/chatforge/backend/internal/db"
	apperrors "github.com/chatforge/backend/internal/errors"
	"github.com/chatforge/backend/internal/health"
	"github.com/chatforge/backend/internal/logger"
	"github.com/chatforge/backend/internal/metrics"
	"github.com/chatforge/backend/internal/middleware"
	"github.com/chatforge/backend/internal/users"
)

type Router struct {
	mux                *http.ServeMux
	database           *db.DB
	authService        *auth.Service
	authHandlers       *auth.Handlers
	userHandlers       *users.Handlers
	chatbotHandlers    *chatbots.Handlers
	datasourceHandlers *datasources.Handlers
	chatHandlers       *chat.Handlers
	wsHandler          *chat.WSHandler
	healthHandler      *health.Handler
	metrics            *metrics.Metrics
	allowedOrigins     []string
}

type RouterConfig struct {
	Database           *db.DB
	AuthService        *auth.Service
	AuthHandlers       *auth.Handlers
	UserHandlers       *users.Handlers
	ChatbotHandlers    *chatbots.Handlers
	DatasourceHandlers *datasources.Handlers
	ChatHandlers       *chat.Handlers
	WSHandler          *chat.WSHandler
	HealthHandler      *health.Handler
	Metrics            *metrics.Metrics
	AllowedOrigins     []string
}

func NewRouter(cfg *RouterConfig) *Router {
	r := &Router{
		mux:                http.NewServeMux(),
		database:           cfg.Database,
		authService:        cfg.AuthService,
		authHandlers:       cfg.AuthHandlers,
		userHandlers:       cfg.UserHandlers,
		chatbotHandlers:    cfg.ChatbotHandlers,
		datasourceHandlers: cfg.DatasourceHandlers,
		chatHandlers:       cfg.ChatHandlers,
		wsHandler:          cfg.WSHandler,
		healthHandler:      cfg.HealthHandler,
		metrics:            cfg.Metrics,
		allowedOrigins:     cfg.AllowedOrigins,
	}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// Health and metrics
	r.mux.HandleFunc("GET /health", r.healthHandler.HealthHandler)
	r.mux.HandleFunc("GET /health/live", r.healthHandler.LivenessHandler)
	r.mux.HandleFunc("GET /health/ready", r.healthHandler.ReadinessHandler)
	r.mux.HandleFunc("GET /metrics", r.metrics.Handler())

	// Auth routes (no auth required)
	r.mux.HandleFunc("POST /api/v1/auth/token", r.authHandlers.Token)
	r.mux.HandleFunc("POST /api/v1/users", r.userHandlers.Register)

	// Auth routes (auth required)
	r.mux.HandleFunc("GET /api/v1/auth/me", r.withAuth(r.authHandlers.Me))

	// User routes
	r.mux.HandleFunc("GET /api/v1/users/{id}", r.withAuth(r.userHandlers.Get))
	r.mux.HandleFunc("DELETE /api/v1/users/{id}", r.withAuth(r.userHandlers.Delete))
	r.mux.HandleFunc("PATCH /api/v1/users/me/password", r.withAuth(r.userHandlers.UpdatePassword))

	// Chatbot routes
	r.mux.HandleFunc("POST /api/v1/chatbots", r.withAuth(r.chatbotHandlers.Create))
	r.mux.HandleFunc("GET /api/v1/chatbots/{id}", r.withAuth(r.chatbotHandlers.Get))
	r.mux.HandleFunc("PATCH /api/v1/chatbots/{id}", r.withAuth(r.chatbotHandlers.Update))
	r.mux.HandleFunc("DELETE /api/v1/chatbots/{id}", r.withAuth(r.chatbotHandlers.Delete))

	// Data source routes
	r.mux.HandleFunc("POST /api/v1/chatbots/{id}/datasources", r.withAuth(r.datasourceHandlers.Create))
	r.mux.HandleFunc("GET /api/v1/datasources/{id}", r.withAuth(r.datasourceHandlers.Get))
	r.mux.HandleFunc("GET /api/v1/datasources/{id}/url", r.withAuth(r.datasourceHandlers.DownloadURL))
	r.mux.HandleFunc("DELETE /api/v1/datasources/{id}", r.withAuth(r.datasourceHandlers.Delete))

	// Chat routes
	r.mux.HandleFunc("POST /api/v1/chatbots/{id}/messages", r.withAuth(r.chatHandlers.Send))
	r.mux.HandleFunc("GET /api/v1/chatbots/{id}/messages", r.withAuth(r.chatHandlers.History))

	// WebSocket endpoint authenticates via query parameter
	r.mux.HandleFunc("GET /api/v1/chat/ws", r.wsHandler.ServeWS)
}

func (r *Router) withAuth(next http.HandlerFunc) http.HandlerFunc {
	mw := auth.Middleware(r.authService)
	return func(w http.ResponseWriter, req *http.Request) {
		mw(http.HandlerFunc(next)).ServeHTTP(w, req)
	}
}

// Handler returns the router wrapped in the full middleware chain. The
// session middleware sits innermost so every request below it runs on one
// checked-out database connection.
func (r *Router) Handler() http.Handler {
	return middleware.Chain(
		r.mux,
		apperrors.RequestIDMiddleware,
		logger.LoggingMiddleware,
		logger.RecoveryMiddleware,
		middleware.CORS(r.allowedOrigins),
		metrics.Middleware(r.metrics),
		middleware.Timing,
		db.SessionMiddleware(r.database),
	)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}
