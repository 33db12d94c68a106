package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nischal-exe/Synapse/internal/config"
	"github.com/Nischal-exe/Synapse/internal/database"
	"github.com/Nischal-exe/Synapse/internal/handler"
	"github.com/Nischal-exe/Synapse/internal/middleware"
	"github.com/Nischal-exe/Synapse/internal/repository"
	"github.com/Nischal-exe/Synapse/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()

	// Database
	db, err := database.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations applied successfully")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	chatRepo := repository.NewChatRepository(db)

	// Services
	authSvc := service.NewAuthService(userRepo, sessionRepo, cfg.JWTSecret)
	registry := service.NewChatRegistry()
	cooldown := newCooldownStore(cfg.RedisURL)

	// Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1MB
	})

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health
	healthH := handler.NewHealthHandler(db, registry)
	app.Get("/health", healthH.Health)
	app.Get("/ready", healthH.Ready)

	// API v1
	v1 := app.Group("/api/v1")

	// Auth (public)
	authH := handler.NewAuthHandler(authSvc)
	auth := v1.Group("/auth")
	auth.Post("/register", middleware.RateLimit(5, time.Minute), authH.Register)
	auth.Post("/login", middleware.RateLimit(10, time.Minute), authH.Login)
	auth.Post("/refresh", middleware.RateLimit(20, time.Minute), authH.Refresh)
	auth.Post("/logout", authH.Logout)

	// Room-scoped websocket chat. Token rides in the query string, so this
	// sits outside the JWT header middleware.
	chatWSH := handler.NewChatWSHandler(registry, cooldown, authSvc, roomRepo, chatRepo, cfg.ChatCooldown)
	app.Get("/rooms/:id/ws", chatWSH.Upgrade)

	// JWT-protected routes
	protected := v1.Group("", middleware.Auth(cfg.JWTSecret))

	// Logout-all needs the caller's identity, not a refresh token
	protected.Post("/auth/logout_all", authH.LogoutAll)

	// Rooms
	roomH := handler.NewRoomHandler(roomRepo)
	rooms := protected.Group("/rooms")
	rooms.Get("/", roomH.List)
	rooms.Post("/", roomH.Create)
	rooms.Get("/:id", roomH.Get)
	rooms.Post("/:id/join", roomH.Join)
	rooms.Post("/:id/leave", roomH.Leave)

	// Chat history
	chatH := handler.NewChatHandler(chatRepo, roomRepo)
	rooms.Get("/:id/messages", chatH.GetHistory)

	// Posts & comments
	postH := handler.NewPostHandler(postRepo, likeRepo)
	rooms.Get("/:id/posts", postH.ListByRoom)
	rooms.Post("/:id/posts", postH.Create)

	commentH := handler.NewCommentHandler(commentRepo)
	posts := protected.Group("/posts")
	posts.Get("/:id", postH.Get)
	posts.Delete("/:id", postH.Delete)
	posts.Post("/:id/like", postH.ToggleLike)
	posts.Get("/:id/comments", commentH.ListByPost)
	posts.Post("/:id/comments", commentH.Create)

	// Background maintenance
	stopJanitor := make(chan struct{})
	go janitor(chatRepo, sessionRepo, cfg.ChatRetention, stopJanitor)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Printf("Synapse backend running on :%s (%s)", cfg.Port, cfg.Env)

	<-quit
	log.Println("Shutting down...")
	close(stopJanitor)
	_ = app.ShutdownWithTimeout(5 * time.Second)
	registry.Shutdown()
	log.Println("Server stopped")
}

// newCooldownStore picks the chat cooldown backend: Redis when configured,
// otherwise the in-process map.
func newCooldownStore(redisURL string) service.CooldownStore {
	if redisURL == "" {
		log.Println("Using in-memory chat cooldown store")
		return service.NewMemoryCooldownStore()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("Invalid REDIS_URL (%v), falling back to in-memory cooldown store", err)
		return service.NewMemoryCooldownStore()
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis unreachable (%v), falling back to in-memory cooldown store", err)
		return service.NewMemoryCooldownStore()
	}

	log.Println("Using Redis chat cooldown store")
	return service.NewRedisCooldownStore(client)
}

// janitor runs daily maintenance: expired refresh tokens always, old chat
// messages only when a retention window is configured.
func janitor(chatRepo *repository.ChatRepository, sessionRepo *repository.SessionRepository, retentionDays int, stop <-chan struct{}) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := sessionRepo.CleanupExpired(ctx); err != nil {
				log.Printf("[Janitor] refresh token cleanup failed: %v", err)
			}
			if retentionDays > 0 {
				if n, err := chatRepo.DeleteOlderThan(ctx, retentionDays); err != nil {
					log.Printf("[Janitor] chat retention sweep failed: %v", err)
				} else if n > 0 {
					log.Printf("[Janitor] deleted %d chat messages older than %d days", n, retentionDays)
				}
			}
			cancel()
		}
	}
}
