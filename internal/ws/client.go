package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// ThreadTracker is the part of the realtime bridge the client session
// drives: which thread the viewer has open right now.
type ThreadTracker interface {
	OpenThread(counterpartyID string)
	CloseThread()
}

// Client represents a WebSocket client session.
type Client struct {
	ID      string // User ID
	Conn    *websocket.Conn
	Hub     *Hub
	Send    chan []byte
	Tracker ThreadTracker

	// The hub closes Send when a session is replaced or unregistered, but
	// the session's bridge can still be delivering events until its pumps
	// unwind. All sends and the close go through the mutex so a late push
	// is dropped instead of hitting a closed channel.
	mu     sync.Mutex
	closed bool
}

// NewClient creates a new WebSocket client session.
func NewClient(userID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:   userID,
		Conn: conn,
		Hub:  hub,
		Send: make(chan []byte, 256),
	}
}

// SendEnvelope queues an event for delivery to this session. Events to
// slow or already-closed sessions are dropped rather than blocking or
// panicking the caller.
func (c *Client) SendEnvelope(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("Failed to marshal event: %v", err)
		return
	}
	c.trySend(data)
}

func (c *Client) trySend(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Printf("Dropping event for slow client: %s", c.ID)
	}
}

// closeSend closes the outgoing channel exactly once. Only the hub calls
// this.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// ReadPump handles incoming events from the client. It blocks until the
// connection closes, then unregisters the session.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var incoming IncomingEvent
		if err := json.Unmarshal(message, &incoming); err != nil {
			log.Printf("Failed to parse event: %v", err)
			continue
		}

		c.handleIncoming(incoming)
	}
}

// WritePump handles outgoing events to the client.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Write error: %v", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleIncoming(event IncomingEvent) {
	switch event.Type {
	case EventThreadOpen:
		counterparty, _ := event.Payload["counterpartyId"].(string)
		if counterparty != "" && c.Tracker != nil {
			c.Tracker.OpenThread(counterparty)
		}
	case EventThreadClose:
		if c.Tracker != nil {
			c.Tracker.CloseThread()
		}
	case EventTypingStart, EventTypingStop:
		c.relayTyping(event)
	default:
		log.Printf("Unknown event type: %s", event.Type)
	}
}

// relayTyping forwards a typing indicator to the counterparty's session.
func (c *Client) relayTyping(event IncomingEvent) {
	counterparty, _ := event.Payload["counterpartyId"].(string)
	if counterparty == "" {
		return
	}
	c.Hub.BroadcastToUser(counterparty, NewEnvelope(event.Type, TypingPayload{
		UserID: c.ID,
	}))
}
