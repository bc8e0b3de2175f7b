package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/chatforge/backend/internal/api"
	"github.com/chatforge/backend/internal/auth"
	"github.com/chatforge/backend/internal/cache"
	"github.com/chatforge/backend/internal/chat"
	"github.com/chatforge/backend/internal/chatbots"
	"github.com/chatforge/backend/internal/config"
	"github.com/chatforge/backend/internal/datasources"
	"github.com/chatforge/backend/internal/db"
	"github.com/chatforge/backend/internal/health"
	"github.com/chatforge/backend/internal/metrics"
	"github.com/chatforge/backend/internal/responder"
	"github.com/chatforge/backend/internal/storage"
	"github.com/chatforge/backend/internal/users"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	database, err := db.New(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisCache, err := cache.New(cfg.RedisAddr)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	store, err := storage.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create storage client: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.EnsureBucket(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to ensure storage bucket: %v", err)
	}
	cancel()
	presigner := storage.NewPresigner(cfg)

	userRepo := db.NewUserRepository(database)
	chatbotRepo := db.NewChatbotRepository(database)
	datasourceRepo := db.NewDataSourceRepository(database)
	messageRepo := db.NewMessageRepository(database)

	tokenService := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL)
	authService := auth.NewService(userRepo, tokenService, cfg.AuthRecheckStatus)

	m := metrics.Default()

	chatService := chat.NewService(messageRepo, chatbotRepo, responder.NewStatic(), m)
	hub := chat.NewHub()
	go hub.Run()

	checker := health.NewChecker(&health.CheckerConfig{
		DB:           database,
		Cache:        redisCache,
		StorageCheck: store.Ping,
		Version:      version,
	})

	router := api.NewRouter(&api.RouterConfig{
		Database:           database,
		AuthService:        authService,
		AuthHandlers:       auth.NewHandlers(authService, tokenService, m),
		UserHandlers:       users.NewHandlers(userRepo, cfg.BcryptCost, m),
		ChatbotHandlers:    chatbots.NewHandlers(chatbotRepo, redisCache),
		DatasourceHandlers: datasources.NewHandlers(datasourceRepo, chatbotRepo, store, presigner, m),
		ChatHandlers:       chat.NewHandlers(chatService, hub),
		WSHandler:          chat.NewWSHandler(hub, chatService, authService, m),
		HealthHandler:      health.NewHandler(checker),
		Metrics:            m,
		AllowedOrigins:     []string{"*"},
	})

	log.Printf("Starting server on %s", cfg.ServerAddr)
	if err := http.ListenAndServe(cfg.ServerAddr, router.Handler()); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
