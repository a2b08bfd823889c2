package store

import (
	"context"

	"fitlink/server/internal/models"
)

// MessageStore translates messaging intents into datastore operations. It
// carries no business logic beyond filter construction; the viewer id is
// always an explicit argument, never ambient state.
type MessageStore interface {
	// FetchBetween returns all messages exchanged between the two users,
	// newest first. An empty thread yields an empty slice, never nil and
	// never an error.
	FetchBetween(ctx context.Context, userA, userB string) ([]models.Message, error)

	// FetchInvolving returns all messages where the user is sender or
	// recipient. This is the raw input to conversation aggregation.
	FetchInvolving(ctx context.Context, userID string) ([]models.Message, error)

	// Send persists one message and returns it with the store-assigned id
	// and timestamp. Content must be non-empty after trimming.
	Send(ctx context.Context, senderID, recipientID, content string) (models.Message, error)

	// MarkRead flips every unread message from senderID to recipientID to
	// read. It is idempotent and never fails the caller: errors are logged
	// and reported as false.
	MarkRead(ctx context.Context, recipientID, senderID string) bool
}
