package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"fitlink/server/internal/models"
)

const subjectPrefix = "messages"

// EventBus is the subscribe surface the bridge depends on; tests substitute
// an in-process fake.
type EventBus interface {
	Subscribe(viewerID string, handler func(models.Message)) (*Subscription, error)
}

// Bus carries new-message events over core NATS, one subject per
// recipient. Core NATS delivers only events published after subscribe
// time, which is exactly the bridge contract: no replay of history.
type Bus struct {
	nc *nats.Conn
}

// Connect opens a NATS connection with unbounded reconnects, so a dropped
// channel heals without restarting the service.
func Connect(url string) (*Bus, error) {
	nc, err := nats.Connect(url,
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats: connect: %w", err)
	}
	return &Bus{nc: nc}, nil
}

// Close drains the connection.
func (b *Bus) Close() {
	if b.nc != nil {
		b.nc.Close()
	}
}

var _ EventBus = (*Bus)(nil)

// PublishMessage emits one insert event on the recipient's subject.
func (b *Bus) PublishMessage(msg models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("nats: marshal message: %w", err)
	}
	if err := b.nc.Publish(subjectFor(msg.RecipientID), data); err != nil {
		return fmt.Errorf("nats: publish: %w", err)
	}
	return nil
}

// Subscribe delivers every new message addressed to viewerID to handler.
// The returned handle must be unsubscribed exactly once when the viewing
// session ends.
func (b *Bus) Subscribe(viewerID string, handler func(models.Message)) (*Subscription, error) {
	sub, err := b.nc.Subscribe(subjectFor(viewerID), func(m *nats.Msg) {
		var msg models.Message
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			log.Printf("nats: drop malformed event on %s: %v", m.Subject, err)
			return
		}
		handler(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("nats: subscribe %s: %w", viewerID, err)
	}
	return NewSubscription(func() {
		if err := sub.Unsubscribe(); err != nil {
			log.Printf("nats: unsubscribe %s: %v", viewerID, err)
		}
	}), nil
}

func subjectFor(recipientID string) string {
	return subjectPrefix + "." + recipientID
}

// Subscription is a live event subscription. Unsubscribe is safe to call
// more than once; only the first call tears the subscription down.
type Subscription struct {
	once  sync.Once
	leave func()
}

// NewSubscription wraps a teardown function in a single-use handle.
func NewSubscription(leave func()) *Subscription {
	return &Subscription{leave: leave}
}

// Unsubscribe ends the subscription.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.leave)
}
