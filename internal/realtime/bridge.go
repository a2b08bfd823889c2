package realtime

import (
	"context"
	"log"
	"sync"

	"fitlink/server/internal/chat"
	"fitlink/server/internal/models"
	"fitlink/server/internal/store"
)

// Bridge ties one viewing session to the event bus. Each delivered event
// triggers a fresh read cycle: the conversation list is re-aggregated, and
// when the session's open thread matches the event's sender the thread is
// re-fetched too. Every effect is a full re-read, so duplicate deliveries
// are harmless.
type Bridge struct {
	viewerID string
	store    store.MessageStore
	profiles store.ProfileDirectory

	onConversations func([]models.Conversation)
	onThread        func(counterpartyID string, messages []models.Message)
	onMessage       func(models.Message)

	mu         sync.Mutex
	openThread string
	sub        *Subscription
}

// NewBridge creates a bridge for one viewer. The three callbacks push
// refreshed state to the session; any of them may be nil.
func NewBridge(
	viewerID string,
	messages store.MessageStore,
	profiles store.ProfileDirectory,
	onConversations func([]models.Conversation),
	onThread func(counterpartyID string, messages []models.Message),
	onMessage func(models.Message),
) *Bridge {
	return &Bridge{
		viewerID:        viewerID,
		store:           messages,
		profiles:        profiles,
		onConversations: onConversations,
		onThread:        onThread,
		onMessage:       onMessage,
	}
}

// Start opens the event subscription. Without it the session still works
// on manual refresh; realtime is an enhancement, not a dependency.
func (b *Bridge) Start(bus EventBus) error {
	sub, err := bus.Subscribe(b.viewerID, b.handleEvent)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.sub = sub
	b.mu.Unlock()
	return nil
}

// Close tears the subscription down. Exactly one unsubscribe happens no
// matter how many times Close is called.
func (b *Bridge) Close() {
	b.mu.Lock()
	sub := b.sub
	b.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

// OpenThread records which counterparty's thread the session is viewing.
func (b *Bridge) OpenThread(counterpartyID string) {
	b.mu.Lock()
	b.openThread = counterpartyID
	b.mu.Unlock()
}

// CloseThread clears the open thread.
func (b *Bridge) CloseThread() {
	b.OpenThread("")
}

func (b *Bridge) handleEvent(msg models.Message) {
	if b.onMessage != nil {
		b.onMessage(msg)
	}

	// The two re-reads are independent and both best-effort: a failed
	// thread refresh must not block the list refresh, and vice versa.
	b.RefreshConversations()
	b.refreshThread(msg.SenderID)
}

// RefreshConversations re-aggregates the viewer's conversation list and
// pushes it. Failures are logged; the session keeps its last-known list.
func (b *Bridge) RefreshConversations() {
	if b.onConversations == nil {
		return
	}
	ctx := context.Background()
	messages, err := b.store.FetchInvolving(ctx, b.viewerID)
	if err != nil {
		log.Printf("bridge: conversation refresh for %s: %v", b.viewerID, err)
		return
	}
	conversations := chat.Aggregate(messages, b.viewerID)
	chat.DecorateNames(ctx, b.profiles, conversations)
	b.onConversations(conversations)
}

func (b *Bridge) refreshThread(counterpartyID string) {
	if b.onThread == nil {
		return
	}
	b.mu.Lock()
	open := b.openThread
	b.mu.Unlock()
	if open == "" || open != counterpartyID {
		return
	}

	messages, err := b.store.FetchBetween(context.Background(), b.viewerID, counterpartyID)
	if err != nil {
		log.Printf("bridge: thread refresh for %s/%s: %v", b.viewerID, counterpartyID, err)
		return
	}

	// The fetch may race a thread switch; drop the result if the open
	// thread changed while it was in flight, so a stale response can never
	// overwrite a newer thread's view.
	b.mu.Lock()
	stillOpen := b.openThread == counterpartyID
	b.mu.Unlock()
	if !stillOpen {
		return
	}

	b.onThread(counterpartyID, chat.Chronological(messages))
}
