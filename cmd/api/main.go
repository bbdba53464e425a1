package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"taskboard-chat/config"
	"taskboard-chat/internal/events"
	"taskboard-chat/internal/handler"
	"taskboard-chat/internal/middleware"
	"taskboard-chat/internal/redis"
	"taskboard-chat/internal/repository"
	"taskboard-chat/internal/services"
	"taskboard-chat/internal/storage"
	"taskboard-chat/internal/websocket"
	"taskboard-chat/pkg/database"
	"taskboard-chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}

	log := logger.New(cfg.Server.Environment)
	logger.SetGlobalLogger(log)
	defer log.Logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Errorf("connect database: %v", err)
		return
	}

	redisClient := redis.NewClient(redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	// With fan-out enabled every instance publishes to redis and feeds its
	// own hub from a pattern subscription, so room membership is shared
	// across processes. Without it delivery stays in-process.
	var transport events.Transport
	if cfg.Redis.FanOut {
		transport = events.NewRedisTransport(redis.NewPublisher(redisClient), log)
		bridge := websocket.NewBridge(redis.NewSubscriber(redisClient), hub)
		go func() {
			if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("redis bridge stopped: %v", err)
			}
		}()
	} else {
		transport = websocket.NewLocalTransport(hub, log)
	}
	// Presence is always answered by the local hub. Under fan-out this is
	// an approximation: a member viewing the chat on another instance may
	// still get a notification.
	presence := websocket.NewLocalTransport(hub, log)

	chatRepo := repository.NewChatRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	directory := repository.NewDirectory(db)

	dispatcher := services.NewNotificationDispatcher(notifRepo, transport, directory, nil, log, cfg.Chat.DueSoonWindow)
	chatService := services.NewChatService(chatRepo, msgRepo, directory, dispatcher, transport, presence, log, cfg.Chat.PageSize, cfg.Chat.PreviewRunes)

	var store *storage.Client
	if cfg.S3.Bucket != "" {
		store, err = storage.NewClient(ctx, storage.S3Config{
			Region:     cfg.S3.Region,
			Bucket:     cfg.S3.Bucket,
			AccessKey:  cfg.S3.AccessKey,
			SecretKey:  cfg.S3.SecretKey,
			Endpoint:   cfg.S3.Endpoint,
			PublicBase: cfg.S3.PublicBase,
			PresignTTL: cfg.S3.PresignTTL,
		})
		if err != nil {
			log.Errorf("init s3 client: %v", err)
			return
		}
	}

	auth := middleware.NewAuthenticator(cfg.Auth.JWTSecret)
	limiter := redis.NewRateLimiter(redisClient, redis.RateLimitConfig{
		MessageLimit:  cfg.Chat.MessagesPerMinute,
		MessageWindow: time.Minute,
	})

	chatHandler := handler.NewChatHandler(chatService)
	messageHandler := handler.NewMessageHandler(chatService)
	notificationHandler := handler.NewNotificationHandler(dispatcher)
	uploadHandler := handler.NewUploadHandler(store)
	wsHandler := websocket.NewHandler(auth, hub, websocket.NewRoomAuthorizer(chatRepo), transport, log)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(log))
	r.Use(middleware.ErrorHandler(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", wsHandler.Connect)

	api := r.Group("/api", middleware.AuthMiddleware(auth))
	{
		api.GET("/chats", chatHandler.List)
		api.POST("/chats", chatHandler.Create)
		api.GET("/chats/:id/messages", chatHandler.Messages)
		api.POST("/chats/:id/messages", middleware.MessageRateLimitMiddleware(limiter), chatHandler.Send)
		api.PATCH("/chats/:id/read", chatHandler.MarkRead)
		api.PATCH("/messages/:id", messageHandler.Edit)
		api.DELETE("/messages/:id", messageHandler.Delete)
		api.GET("/notifications", notificationHandler.List)
		api.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
		api.POST("/notifications/read-all", notificationHandler.MarkAllRead)
		api.POST("/attachments/presign", uploadHandler.Presign)
	}

	internal := r.Group("/internal", middleware.InternalTokenMiddleware(cfg.Server.InternalToken))
	{
		internal.POST("/deadline-scan", notificationHandler.DeadlineScan)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Infof("listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Infof("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}
