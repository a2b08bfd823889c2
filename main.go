package main

import (
	"context"
	"log"

	"fitlink/server/internal/config"
	"fitlink/server/internal/database"
	"fitlink/server/internal/handlers"
	"fitlink/server/internal/notify"
	"fitlink/server/internal/realtime"
	"fitlink/server/internal/routes"
	"fitlink/server/internal/store"
	"fitlink/server/internal/ws"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	cfg := config.Load()

	// Connect to database and apply migrations
	pool, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(cfg.DatabaseURL, "migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Profile cache is an enhancement: without Redis every name lookup
	// falls through to Postgres.
	cache, err := store.OpenRedis(cfg.RedisURL)
	if err != nil {
		log.Printf("Profile cache disabled: %v", err)
		cache = nil
	}

	messageStore := store.NewPostgres(pool, cfg.QueryTimeout, cfg.ThreadFetchLimit)
	profiles := store.NewProfiles(pool, cache, cfg.QueryTimeout)

	// Realtime is an enhancement too: without NATS the API still serves
	// reads and writes, clients fall back to manual refresh.
	bus, err := realtime.Connect(cfg.NatsURL)
	if err != nil {
		log.Printf("Realtime disabled: %v", err)
		bus = nil
	} else {
		defer bus.Close()
	}

	// Offline notification queue shares the Redis instance.
	var notifier *notify.Notifier
	if cache != nil {
		notifier, err = notify.NewNotifier(cfg.RedisURL)
		if err != nil {
			log.Printf("Offline notifications disabled: %v", err)
		} else {
			defer notifier.Close()
		}

		worker, err := notify.NewWorker(cfg.RedisURL, profiles)
		if err != nil {
			log.Printf("Notification worker disabled: %v", err)
		} else if err := worker.Start(); err != nil {
			log.Printf("Notification worker failed to start: %v", err)
		} else {
			defer worker.Shutdown()
		}
	}

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	messageHandler := &handlers.MessageHandler{
		Store:    messageStore,
		Profiles: profiles,
		Bus:      bus,
		Hub:      hub,
		Notifier: notifier,
	}
	wsHandler := &handlers.WSHandler{
		Store:    messageStore,
		Profiles: profiles,
		Bus:      bus,
		Hub:      hub,
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "FitLink Messaging API v1.0",
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowCredentials: true,
	}))

	// Setup routes
	routes.SetupRoutes(app, messageHandler, wsHandler)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
