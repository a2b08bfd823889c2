package chat

import (
	"context"
	"reflect"
	"testing"
	"time"

	"fitlink/server/internal/models"
	"fitlink/server/internal/store"
)

var base = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func msg(id, sender, recipient, content string, at time.Time, read bool) models.Message {
	return models.Message{
		ID:          id,
		SenderID:    sender,
		RecipientID: recipient,
		Content:     content,
		Read:        read,
		CreatedAt:   at,
	}
}

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate(nil, "viewer")
	if got == nil {
		t.Fatal("Aggregate() returned nil, want empty slice")
	}
	if len(got) != 0 {
		t.Fatalf("Aggregate() returned %d conversations, want 0", len(got))
	}
}

func TestAggregateTwoWayThread(t *testing.T) {
	messages := []models.Message{
		msg("m1", "A", "B", "hello", base, false),
		msg("m2", "B", "A", "hi back", base.Add(time.Minute), false),
	}

	forA := Aggregate(messages, "A")
	if len(forA) != 1 {
		t.Fatalf("viewer A: got %d conversations, want 1", len(forA))
	}
	if forA[0].CounterpartyID != "B" {
		t.Errorf("viewer A: counterparty = %q, want B", forA[0].CounterpartyID)
	}
	if forA[0].LastMessage != "hi back" {
		t.Errorf("viewer A: lastMessage = %q, want \"hi back\"", forA[0].LastMessage)
	}
	if forA[0].UnreadCount != 1 {
		t.Errorf("viewer A: unreadCount = %d, want 1", forA[0].UnreadCount)
	}

	forB := Aggregate(messages, "B")
	if len(forB) != 1 {
		t.Fatalf("viewer B: got %d conversations, want 1", len(forB))
	}
	if forB[0].CounterpartyID != "A" {
		t.Errorf("viewer B: counterparty = %q, want A", forB[0].CounterpartyID)
	}
	// B's own sent message is the latest overall.
	if forB[0].LastMessage != "hi back" {
		t.Errorf("viewer B: lastMessage = %q, want \"hi back\"", forB[0].LastMessage)
	}
	if forB[0].UnreadCount != 0 {
		t.Errorf("viewer B: unreadCount = %d, want 0", forB[0].UnreadCount)
	}
}

func TestAggregatePartitions(t *testing.T) {
	messages := []models.Message{
		msg("m1", "B", "A", "one", base, false),
		msg("m2", "A", "C", "two", base.Add(time.Minute), false),
		msg("m3", "D", "A", "three", base.Add(2*time.Minute), true),
		msg("m4", "A", "B", "four", base.Add(3*time.Minute), false),
	}

	got := Aggregate(messages, "A")
	if len(got) != 3 {
		t.Fatalf("got %d conversations, want 3 (one per distinct counterparty)", len(got))
	}

	// Newest activity first: B (m4), D (m3), C (m2).
	wantOrder := []string{"B", "D", "C"}
	for i, want := range wantOrder {
		if got[i].CounterpartyID != want {
			t.Errorf("conversation[%d] = %q, want %q", i, got[i].CounterpartyID, want)
		}
	}
}

func TestAggregateUnreadCounting(t *testing.T) {
	tests := []struct {
		name     string
		messages []models.Message
		viewer   string
		want     int
	}{
		{
			name: "already-read messages do not count",
			messages: []models.Message{
				msg("m1", "B", "A", "x", base, true),
				msg("m2", "B", "A", "y", base.Add(time.Second), false),
			},
			viewer: "A",
			want:   1,
		},
		{
			name: "own unread sent messages do not count",
			messages: []models.Message{
				msg("m1", "A", "B", "x", base, false),
			},
			viewer: "A",
			want:   0,
		},
		{
			name: "counterparty known only as sender still yields a conversation",
			messages: []models.Message{
				msg("m1", "B", "A", "x", base, false),
				msg("m2", "B", "A", "y", base.Add(time.Second), false),
			},
			viewer: "A",
			want:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.messages, tt.viewer)
			if len(got) != 1 {
				t.Fatalf("got %d conversations, want 1", len(got))
			}
			if got[0].UnreadCount != tt.want {
				t.Errorf("unreadCount = %d, want %d", got[0].UnreadCount, tt.want)
			}
		})
	}
}

func TestAggregateLatestTieBreak(t *testing.T) {
	// Identical timestamps: the greater id must win, regardless of input
	// order.
	m1 := msg("id-a", "B", "A", "first", base, false)
	m2 := msg("id-z", "B", "A", "second", base, false)

	for _, order := range [][]models.Message{{m1, m2}, {m2, m1}} {
		got := Aggregate(order, "A")
		if len(got) != 1 {
			t.Fatalf("got %d conversations, want 1", len(got))
		}
		if got[0].LastMessage != "second" {
			t.Errorf("lastMessage = %q, want %q (greater id wins)", got[0].LastMessage, "second")
		}
	}
}

func TestAggregateDeterminism(t *testing.T) {
	forward := []models.Message{
		msg("m1", "B", "A", "one", base, false),
		msg("m2", "C", "A", "two", base, false),
		msg("m3", "A", "D", "three", base, false),
		msg("m4", "D", "A", "four", base.Add(time.Second), true),
	}
	backward := make([]models.Message, len(forward))
	for i, m := range forward {
		backward[len(forward)-1-i] = m
	}

	first := Aggregate(forward, "A")
	for i := 0; i < 10; i++ {
		input := forward
		if i%2 == 1 {
			input = backward
		}
		if got := Aggregate(input, "A"); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: output differs:\n got %+v\nwant %+v", i, got, first)
		}
	}
}

func TestDecorateNames(t *testing.T) {
	conversations := Aggregate([]models.Message{
		msg("m1", "coach-11112222", "A", "hi", base, false),
		msg("m2", "client-9999", "A", "yo", base.Add(time.Second), false),
	}, "A")

	dir := store.StaticProfiles{"coach-11112222": "Dana Coach"}
	DecorateNames(context.Background(), dir, conversations)

	byID := map[string]string{}
	for _, c := range conversations {
		byID[c.CounterpartyID] = c.DisplayName
	}

	if byID["coach-11112222"] != "Dana Coach" {
		t.Errorf("resolved name = %q, want %q", byID["coach-11112222"], "Dana Coach")
	}
	// Unresolvable counterparty keeps the truncated-id placeholder instead
	// of being dropped.
	if byID["client-9999"] != "client-9" {
		t.Errorf("placeholder name = %q, want %q", byID["client-9999"], "client-9")
	}
}

func TestChronological(t *testing.T) {
	newestFirst := []models.Message{
		msg("m3", "A", "B", "three", base.Add(2*time.Second), false),
		msg("m2", "B", "A", "two", base.Add(time.Second), false),
		msg("m1", "A", "B", "one", base, false),
	}

	got := Chronological(newestFirst)
	if got[0].ID != "m1" || got[1].ID != "m2" || got[2].ID != "m3" {
		t.Errorf("Chronological() order = %s,%s,%s, want m1,m2,m3", got[0].ID, got[1].ID, got[2].ID)
	}
	// Input must be untouched.
	if newestFirst[0].ID != "m3" {
		t.Error("Chronological() mutated its input")
	}
}

func TestPlaceholderName(t *testing.T) {
	if got := PlaceholderName("abcdefghij"); got != "abcdefgh" {
		t.Errorf("PlaceholderName(long) = %q, want %q", got, "abcdefgh")
	}
	if got := PlaceholderName("abc"); got != "abc" {
		t.Errorf("PlaceholderName(short) = %q, want %q", got, "abc")
	}
}
