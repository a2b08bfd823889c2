// Package chat derives threaded-conversation summaries from the flat
// message log.
package chat

import (
	"context"
	"sort"

	"fitlink/server/internal/models"
	"fitlink/server/internal/store"
)

type reduction struct {
	latest models.Message
	unread int
}

// Aggregate folds a flat, unordered set of messages into one Conversation
// per counterparty for the given viewer. The reduction is a single pass and
// does not depend on input order: the latest message is picked by strictly
// greater timestamp (greater id breaks exact ties), and each unread message
// addressed to the viewer counts exactly once. Output is sorted newest
// conversation first; display names start as placeholders until decorated.
func Aggregate(messages []models.Message, viewerID string) []models.Conversation {
	acc := make(map[string]*reduction)

	for _, m := range messages {
		counterparty := m.RecipientID
		if m.RecipientID == viewerID {
			counterparty = m.SenderID
		}

		r, ok := acc[counterparty]
		if !ok {
			r = &reduction{latest: m}
			acc[counterparty] = r
		} else if newer(m, r.latest) {
			r.latest = m
		}

		if m.RecipientID == viewerID && !m.Read {
			r.unread++
		}
	}

	conversations := make([]models.Conversation, 0, len(acc))
	for counterparty, r := range acc {
		conversations = append(conversations, models.Conversation{
			CounterpartyID: counterparty,
			DisplayName:    PlaceholderName(counterparty),
			LastMessage:    r.latest.Content,
			LastMessageAt:  r.latest.CreatedAt,
			UnreadCount:    r.unread,
		})
	}

	// Deterministic order: newest activity first, counterparty id breaking
	// exact timestamp ties so repeated runs are byte-identical.
	sort.Slice(conversations, func(i, j int) bool {
		if !conversations[i].LastMessageAt.Equal(conversations[j].LastMessageAt) {
			return conversations[i].LastMessageAt.After(conversations[j].LastMessageAt)
		}
		return conversations[i].CounterpartyID < conversations[j].CounterpartyID
	})

	return conversations
}

// newer reports whether a should replace b as the latest message.
func newer(a, b models.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// DecorateNames fills display names from the directory. A failed or missing
// resolution leaves the placeholder in place; it never drops a
// conversation.
func DecorateNames(ctx context.Context, dir store.ProfileDirectory, conversations []models.Conversation) {
	if dir == nil {
		return
	}
	for i := range conversations {
		name, err := dir.ResolveDisplayName(ctx, conversations[i].CounterpartyID)
		if err != nil || name == "" {
			continue
		}
		conversations[i].DisplayName = name
	}
}

// PlaceholderName is the label shown for a counterparty whose profile
// cannot be resolved: the id truncated to eight characters.
func PlaceholderName(userID string) string {
	if len(userID) > 8 {
		return userID[:8]
	}
	return userID
}

// Chronological returns a copy of a newest-first message slice in display
// order, oldest first.
func Chronological(messages []models.Message) []models.Message {
	out := make([]models.Message, len(messages))
	for i, m := range messages {
		out[len(messages)-1-i] = m
	}
	return out
}
