package main

import (
	"context"
	"log"
	"net/http"

	_ "taskpilot/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"taskpilot/internal/agent"
	"taskpilot/internal/auth"
	"taskpilot/internal/cache"
	"taskpilot/internal/config"
	"taskpilot/internal/db"
	"taskpilot/internal/handler"
	"taskpilot/internal/model"
	"taskpilot/internal/repository"
	"taskpilot/internal/router"
	"taskpilot/internal/service"
)

// @title TaskPilot API
// @version 1.0
// @description Task management API with JWT authentication and a natural-language chat interface.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Session{},
		&model.Task{},
		&model.Conversation{},
		&model.Message{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	sessionRepo := repository.NewSessionRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)
	conversationRepo := repository.NewConversationRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	sessionService := service.NewSessionService(sessionRepo)
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, sessionService)
	taskService := service.NewTaskService(taskRepo, cacheClient)

	// The Gemini classifier needs an API key; without one the deterministic
	// pattern classifier handles chat turns.
	var classifier agent.Classifier
	if cfg.GeminiAPIKey != "" {
		geminiClassifier, err := agent.NewGeminiClassifier(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			log.Fatalf("gemini init: %v", err)
		}
		defer geminiClassifier.Close()
		classifier = geminiClassifier
	} else {
		log.Println("GEMINI_API_KEY not set, using the pattern classifier")
		classifier = agent.NewPatternClassifier()
	}

	gateway := service.NewToolGateway(taskService)
	conversationService := service.NewConversationService(conversationRepo, classifier, gateway)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	taskHandler := handler.NewTaskHandler(taskService)
	chatHandler := handler.NewChatHandler(conversationService)

	// Register routes
	router.Register(
		e,
		cfg,
		jwtService,
		tokenStore,
		authHandler,
		taskHandler,
		chatHandler,
	)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
