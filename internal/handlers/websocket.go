package handlers

import (
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"fitlink/server/internal/models"
	"fitlink/server/internal/realtime"
	"fitlink/server/internal/store"
	"fitlink/server/internal/ws"
)

// WSHandler upgrades authenticated connections and wires each session to
// the hub and its realtime bridge.
type WSHandler struct {
	Store    store.MessageStore
	Profiles store.ProfileDirectory
	Bus      *realtime.Bus
	Hub      *ws.Hub
}

// Upgrade checks if the request should be upgraded to WebSocket
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}

	return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{
		"success": false,
		"error":   "WebSocket upgrade required",
	})
}

// Stats returns live session statistics, for debugging.
func (h *WSHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"onlineUsers": h.Hub.OnlineCount(),
		},
	})
}

// Handle runs one WebSocket session: register, subscribe, pump, teardown.
func (h *WSHandler) Handle(conn *websocket.Conn) {
	viewerID, ok := conn.Locals("userID").(string)
	if !ok || viewerID == "" {
		conn.Close()
		return
	}

	client := ws.NewClient(viewerID, conn, h.Hub)

	bridge := realtime.NewBridge(viewerID, h.Store, h.Profiles,
		func(conversations []models.Conversation) {
			client.SendEnvelope(ws.NewEnvelope(ws.EventConversationList, conversations))
		},
		func(counterpartyID string, messages []models.Message) {
			client.SendEnvelope(ws.NewEnvelope(ws.EventThreadMessages, ws.ThreadPayload{
				CounterpartyID: counterpartyID,
				Messages:       messages,
			}))
		},
		func(msg models.Message) {
			client.SendEnvelope(ws.NewEnvelope(ws.EventMessageReceived, msg))
		},
	)
	client.Tracker = bridge

	// One unsubscribe per subscribe: Close runs when the session ends, and
	// the handle itself tolerates a second call.
	defer bridge.Close()

	if h.Bus != nil {
		if err := bridge.Start(h.Bus); err != nil {
			// The session still works on manual refresh.
			log.Printf("realtime subscribe for %s: %v", viewerID, err)
			client.SendEnvelope(ws.NewEnvelope(ws.EventError, ws.ErrorPayload{
				Code:    "realtime_unavailable",
				Message: "Live updates unavailable, refresh manually",
			}))
		}
	}

	h.Hub.Register <- client

	// Seed the session with the current conversation list.
	bridge.RefreshConversations()

	go client.WritePump()
	client.ReadPump() // blocks until the connection closes
}
