package ws

import (
	"time"

	"fitlink/server/internal/models"
)

// EventType represents different WebSocket event types
type EventType string

const (
	// Server -> client
	EventConversationList EventType = "conversation_list"
	EventThreadMessages   EventType = "thread_messages"
	EventMessageReceived  EventType = "message_received"
	EventError            EventType = "error"

	// Client -> server
	EventThreadOpen  EventType = "thread_open"
	EventThreadClose EventType = "thread_close"

	// Typing indicators, relayed both ways
	EventTypingStart EventType = "typing_start"
	EventTypingStop  EventType = "typing_stop"
)

// Envelope is the wire structure for every outgoing event.
type Envelope struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEnvelope stamps an event with the current time.
func NewEnvelope(t EventType, payload interface{}) Envelope {
	return Envelope{Type: t, Payload: payload, Timestamp: time.Now()}
}

// ThreadPayload carries a full thread snapshot, oldest message first.
type ThreadPayload struct {
	CounterpartyID string           `json:"counterpartyId"`
	Messages       []models.Message `json:"messages"`
}

// TypingPayload identifies who is typing in which thread.
type TypingPayload struct {
	UserID         string `json:"userId"`
	CounterpartyID string `json:"counterpartyId,omitempty"`
}

// ErrorPayload reports a session-level error to the client.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IncomingEvent represents events received from clients.
type IncomingEvent struct {
	Type    EventType              `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}
