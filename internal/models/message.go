package models

import "time"

// Message is one row of the append-only message log between a trainer and
// a client. Messages are never edited or deleted; the only mutation is the
// read flag flipping from false to true.
type Message struct {
	ID          string    `json:"id" db:"id"`
	SenderID    string    `json:"senderId" db:"sender_id"`
	RecipientID string    `json:"recipientId" db:"recipient_id"`
	Content     string    `json:"content" db:"content"`
	Read        bool      `json:"read" db:"read"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Conversation is a derived summary of all messages between a viewer and
// one counterparty. It is recomputed from the message log on every read
// cycle and never persisted.
type Conversation struct {
	CounterpartyID string    `json:"counterpartyId"`
	DisplayName    string    `json:"displayName"`
	LastMessage    string    `json:"lastMessage"`
	LastMessageAt  time.Time `json:"lastMessageAt"`
	UnreadCount    int       `json:"unreadCount"`
}
