package handlers

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"fitlink/server/internal/chat"
	"fitlink/server/internal/middleware"
	"fitlink/server/internal/notify"
	"fitlink/server/internal/realtime"
	"fitlink/server/internal/store"
	"fitlink/server/internal/ws"
)

// SendMessageRequest represents the send message request body
type SendMessageRequest struct {
	RecipientID string `json:"recipientId"`
	Content     string `json:"content"`
}

// MarkReadRequest represents the mark as read request body
type MarkReadRequest struct {
	CounterpartyID string `json:"counterpartyId"`
}

// MessageHandler serves the messaging surface: send, thread fetch,
// conversation list, mark-read.
type MessageHandler struct {
	Store    store.MessageStore
	Profiles store.ProfileDirectory
	Bus      *realtime.Bus
	Hub      *ws.Hub
	Notifier *notify.Notifier
}

// Send persists a direct message and emits its realtime insert event.
func (h *MessageHandler) Send(c *fiber.Ctx) error {
	viewerID := middleware.GetUserID(c)

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	// Validation happens before any store call.
	if req.RecipientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Recipient ID is required",
		})
	}
	if strings.TrimSpace(req.Content) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Message content must not be empty",
		})
	}

	message, err := h.Store.Send(context.Background(), viewerID, req.RecipientID, req.Content)
	if err != nil {
		if errors.Is(err, store.ErrEmptyContent) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Message content must not be empty",
			})
		}
		// The client keeps its optimistic copy flagged failed and may retry.
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success":   false,
			"error":     "Failed to send message",
			"retryable": true,
		})
	}

	// Realtime and notification are enhancements; their failures never
	// fail a persisted send.
	if h.Bus != nil {
		if err := h.Bus.PublishMessage(message); err != nil {
			log.Printf("publish message %s: %v", message.ID, err)
		}
	}
	if h.Hub == nil || !h.Hub.IsUserOnline(message.RecipientID) {
		h.Notifier.NotifyOffline(context.Background(), message)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    message,
	})
}

// Conversations returns the viewer's aggregated conversation list, newest
// activity first.
func (h *MessageHandler) Conversations(c *fiber.Ctx) error {
	viewerID := middleware.GetUserID(c)

	ctx := context.Background()
	messages, err := h.Store.FetchInvolving(ctx, viewerID)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "Message store unavailable",
		})
	}

	conversations := chat.Aggregate(messages, viewerID)
	chat.DecorateNames(ctx, h.Profiles, conversations)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    conversations,
	})
}

// Thread returns the message history with one counterparty in display
// order, oldest first.
func (h *MessageHandler) Thread(c *fiber.Ctx) error {
	viewerID := middleware.GetUserID(c)
	counterpartyID := c.Params("counterpartyId")

	messages, err := h.Store.FetchBetween(context.Background(), viewerID, counterpartyID)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "Message store unavailable",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"counterpartyId": counterpartyID,
			"messages":       chat.Chronological(messages),
		},
	})
}

// MarkRead flips every unread message from the counterparty to read. It is
// called once per thread open and never blocks the viewer's flow: a store
// failure is reported in the payload, not as an error status.
func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	viewerID := middleware.GetUserID(c)

	var req MarkReadRequest
	if err := c.BodyParser(&req); err != nil || req.CounterpartyID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Counterparty ID is required",
		})
	}

	updated := h.Store.MarkRead(context.Background(), viewerID, req.CounterpartyID)

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"updated": updated,
		},
	})
}
