package routes

import (
	"fitlink/server/internal/handlers"
	"fitlink/server/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, msg *handlers.MessageHandler, wsh *handlers.WSHandler) {
	// API v1 group
	api := app.Group("/api/v1")

	// Health check (public)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "FitLink messaging API is running",
		})
	})

	// Message routes (protected)
	messages := api.Group("/messages", middleware.AuthMiddleware)
	messages.Get("/conversations", msg.Conversations)
	messages.Post("/", middleware.SendRateLimiter(), msg.Send)
	messages.Put("/read", msg.MarkRead)
	messages.Get("/:counterpartyId", msg.Thread)

	// WebSocket route (protected)
	api.Get("/ws", middleware.AuthMiddleware, wsh.Upgrade, websocket.New(wsh.Handle))

	// WebSocket stats (protected, for debugging)
	api.Get("/ws/stats", middleware.AuthMiddleware, wsh.Stats)
}
