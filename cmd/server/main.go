package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"skill_swap/internal/config"
	"skill_swap/internal/delivery"
	"skill_swap/internal/handler"
	"skill_swap/internal/middleware"
	"skill_swap/internal/repository"
	"skill_swap/internal/service"
	"skill_swap/internal/storage"
	"skill_swap/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	appLogger := logger.New(cfg.Log.Level)

	// Подключение к PostgreSQL
	dbPool, err := pgxpool.New(context.Background(), cfg.Database.DSN)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", "error", err)
	}
	defer dbPool.Close()

	// Проверка подключения к БД
	if err := dbPool.Ping(context.Background()); err != nil {
		appLogger.Fatal("Failed to ping database", "error", err)
	}
	appLogger.Info("Database connection established")

	// Подключение к Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// Проверка подключения к Redis
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		appLogger.Fatal("Failed to connect to Redis", "error", err)
	}
	appLogger.Info("Redis connection established")

	// Инициализация репозиториев и инфраструктуры доставки
	repos := repository.NewRepositories(dbPool, rdb, appLogger)
	bus := delivery.NewRedisEventBus(rdb, appLogger)
	objectStorage := storage.NewCloudinaryStorage(cfg.Storage, appLogger)

	// Инициализация сервисов
	services := service.NewServices(repos, bus, objectStorage, echoReply, cfg, appLogger)

	// Инициализация middleware
	authMiddleware := middleware.NewAuthMiddleware(services.Auth, appLogger)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(services.RateLimit, appLogger)

	// Инициализация handlers
	handlers := handler.NewHandlers(services, bus, cfg, appLogger)

	// Настройка роутера
	router := setupRouter(handlers, authMiddleware, rateLimitMiddleware, cfg, appLogger)

	// Запуск HTTP сервера
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		appLogger.Info("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Ожидание сигнала для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", "error", err)
	}

	appLogger.Info("Server exited")
}

// echoReply — ответ ассистента по умолчанию, пока не подключен
// внешний генератор
func echoReply(lastMessage string, history []string) string {
	text := strings.TrimSpace(lastMessage)
	if text == "" {
		return "How can I help you with your skill swap?"
	}
	return fmt.Sprintf("You said: %s", text)
}

func setupRouter(
	handlers *handler.Handlers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	cfg *config.Config,
	appLogger logger.Logger,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(appLogger))
	router.Use(middleware.ErrorHandler(appLogger))

	// Health check
	router.GET("/health", handlers.Health.Check)

	// Сессия доставки: токен проверяется внутри (query, не заголовок)
	router.GET("/ws/conversations/:id", handlers.WebSocket.HandleConversation)

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Публичные endpoints
		public := v1.Group("/auth")
		{
			// Попытки входа дешевле всего ограничить жестко
			public.POST("/register", rateLimitMiddleware.Limit(10, 60), handlers.Auth.Register)
			public.POST("/login", rateLimitMiddleware.Limit(10, 60), handlers.Auth.Login)
			public.POST("/refresh", handlers.Auth.RefreshToken)
		}

		// Защищенные endpoints
		protected := v1.Group("")
		protected.Use(authMiddleware.RequireAuth())
		{
			// Разговоры и сообщения
			conversations := protected.Group("/conversations")
			{
				conversations.GET("", handlers.Conversation.List)
				conversations.POST("", handlers.Conversation.Open)
				conversations.GET("/:id/messages", handlers.Message.List)
				conversations.POST("/:id/messages", rateLimitMiddleware.Limit(60, 60), handlers.Message.Send)
				conversations.POST("/:id/read", handlers.Message.MarkRead)
				conversations.PUT("/:id/flags", handlers.Conversation.SetFlags)
			}

			// Предложения обмена
			offers := protected.Group("/offers")
			{
				offers.POST("", rateLimitMiddleware.Limit(30, 60), handlers.Offer.Create)
				offers.POST("/:id/accept", handlers.Offer.Accept)
				offers.POST("/:id/reject", handlers.Offer.Reject)
				offers.GET("/conversation/:id", handlers.Offer.ListByConversation)
			}

			// Присутствие
			presence := protected.Group("/presence")
			{
				presence.GET("/online", handlers.Presence.Online)
			}

			// Уведомления
			protected.GET("/notifications", handlers.Notification.Recent)
		}
	}

	return router
}
