package store_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"fitlink/server/internal/chat"
	"fitlink/server/internal/store"
)

// stepClock returns a clock that advances one second per call, so
// store-assigned timestamps are strictly increasing.
func stepClock() func() time.Time {
	t := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestSendRoundTrip(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()

	sent, err := s.Send(ctx, "A", "B", "hi")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if sent.ID == "" || sent.CreatedAt.IsZero() {
		t.Fatalf("Send() did not assign id/timestamp: %+v", sent)
	}

	got, err := s.FetchBetween(ctx, "A", "B")
	if err != nil {
		t.Fatalf("FetchBetween() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("FetchBetween() returned %d messages, want 1", len(got))
	}
	m := got[0]
	if m.SenderID != "A" || m.RecipientID != "B" || m.Content != "hi" || m.Read {
		t.Errorf("round-trip message = %+v, want senderId=A recipientId=B content=hi read=false", m)
	}
}

func TestSendRejectsEmptyContent(t *testing.T) {
	s := store.NewMemory()

	for _, content := range []string{"", "   ", "\n\t"} {
		if _, err := s.Send(context.Background(), "A", "B", content); err != store.ErrEmptyContent {
			t.Errorf("Send(%q) error = %v, want ErrEmptyContent", content, err)
		}
	}
}

func TestFetchEmptyIsNotAnError(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()

	between, err := s.FetchBetween(ctx, "A", "B")
	if err != nil {
		t.Fatalf("FetchBetween() error = %v", err)
	}
	if between == nil || len(between) != 0 {
		t.Errorf("FetchBetween() = %v, want empty non-nil slice", between)
	}

	involving, err := s.FetchInvolving(ctx, "A")
	if err != nil {
		t.Fatalf("FetchInvolving() error = %v", err)
	}
	if involving == nil || len(involving) != 0 {
		t.Errorf("FetchInvolving() = %v, want empty non-nil slice", involving)
	}
}

func TestFetchBetweenBothDirectionsNewestFirst(t *testing.T) {
	s := store.NewMemory()
	s.SetClock(stepClock())
	ctx := context.Background()

	s.Send(ctx, "A", "B", "one")
	s.Send(ctx, "B", "A", "two")
	s.Send(ctx, "A", "C", "unrelated")
	s.Send(ctx, "A", "B", "three")

	got, err := s.FetchBetween(ctx, "A", "B")
	if err != nil {
		t.Fatalf("FetchBetween() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("FetchBetween() returned %d messages, want 3", len(got))
	}
	want := []string{"three", "two", "one"}
	for i, w := range want {
		if got[i].Content != w {
			t.Errorf("message[%d] = %q, want %q", i, got[i].Content, w)
		}
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	s := store.NewMemory()
	s.SetClock(stepClock())
	ctx := context.Background()

	s.Send(ctx, "B", "A", "one")
	s.Send(ctx, "B", "A", "two")
	s.Send(ctx, "A", "B", "reply")

	if ok := s.MarkRead(ctx, "A", "B"); !ok {
		t.Fatal("MarkRead() = false, want true")
	}
	after, _ := s.FetchInvolving(ctx, "A")

	if ok := s.MarkRead(ctx, "A", "B"); !ok {
		t.Fatal("second MarkRead() = false, want true")
	}
	again, _ := s.FetchInvolving(ctx, "A")

	if !reflect.DeepEqual(after, again) {
		t.Errorf("MarkRead is not idempotent:\nfirst  %+v\nsecond %+v", after, again)
	}

	for _, m := range after {
		if m.SenderID == "B" && !m.Read {
			t.Errorf("message %q from B still unread after MarkRead", m.Content)
		}
		// The opposite direction is untouched.
		if m.SenderID == "A" && m.Read {
			t.Errorf("message %q sent by A was marked read", m.Content)
		}
	}
}

func TestMarkReadClearsUnreadCount(t *testing.T) {
	s := store.NewMemory()
	s.SetClock(stepClock())
	ctx := context.Background()

	s.Send(ctx, "B", "A", "one")
	s.Send(ctx, "B", "A", "two")

	before, _ := s.FetchInvolving(ctx, "A")
	if got := chat.Aggregate(before, "A")[0].UnreadCount; got != 2 {
		t.Fatalf("unreadCount before = %d, want 2", got)
	}

	s.MarkRead(ctx, "A", "B")

	after, _ := s.FetchInvolving(ctx, "A")
	if got := chat.Aggregate(after, "A")[0].UnreadCount; got != 0 {
		t.Errorf("unreadCount after MarkRead = %d, want 0", got)
	}
}
