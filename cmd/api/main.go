package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-utang-ledger/internal/config"
	"go-utang-ledger/internal/event"
	"go-utang-ledger/internal/handler"
	"go-utang-ledger/internal/middleware"
	"go-utang-ledger/internal/model"
	"go-utang-ledger/internal/repository"
	"go-utang-ledger/internal/service"
	"go-utang-ledger/internal/session"
	"go-utang-ledger/internal/ws"
	"go-utang-ledger/pkg/database"
	"go-utang-ledger/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// 1. Load Env
	cfg := config.Load()
	jwt.Configure(cfg.JWTSecret, cfg.JWTTTL)

	// 2. Setup Database
	db := database.ConnectDB(cfg.DSN(), cfg.DBLogLevel)
	if cfg.AutoMigrate {
		if err := model.Migrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	// 3. Optional session cache
	var versionCache session.VersionCache
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := session.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		cancel()
		if err != nil {
			log.Printf("Warning: Redis unavailable, sessions are checked against the database: %v", err)
		} else {
			defer client.Close()
			versionCache = session.NewRedisCache(client, cfg.SessionCacheTTL)
		}
	}

	// 4. Setup WebSocket Hub and change events
	wsHub := ws.NewHub()
	go wsHub.Run()

	var publisher event.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := event.NewKafkaProducer(cfg.KafkaBrokers, 5)
		if err != nil {
			log.Printf("Warning: Kafka unavailable, events stay local: %v", err)
		} else {
			defer producer.Close()
			publisher = producer
		}
	}

	// 5. Dependency Injection (Wiring Layers)
	userRepo := repository.NewUserRepo(db)
	ledgerRepo := repository.NewLedgerRepo(db)
	summaryRepo := repository.NewSummaryRepo(db)
	registry := repository.NewRegistry(db)

	resolver := session.NewResolver(userRepo, versionCache)
	dispatcher := event.NewDispatcher(wsHub, publisher, ledgerRepo, cfg.KafkaTopicPrefix)

	resourceService := service.NewResourceService(registry, ledgerRepo, userRepo, dispatcher)
	dashService := service.NewDashboardService(summaryRepo, ledgerRepo)
	authService := service.NewAuthService(userRepo, resolver)

	resourceHandler := handler.NewResourceHandler(resourceService)
	dashHandler := handler.NewDashboardHandler(dashService)
	authHandler := handler.NewAuthHandler(authService)
	wsHandler := handler.NewWSHandler(wsHub, resolver)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Utang Ledger v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSAllowOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "x-total-count",
	}))

	// 7. Routes
	wsHandler.Register(app)

	api := app.Group("/api", middleware.Session(resolver))
	authHandler.Register(api)
	dashHandler.Register(api)
	// Generic resource routes last; they match any /api/:resource path
	resourceHandler.Register(api)

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	wsHub.Stop()

	log.Println("Server exited")
}
