package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fitlink/server/internal/models"
)

// Memory is an in-memory MessageStore with the same semantics as Postgres.
// It backs tests and local development without a database.
type Memory struct {
	mu   sync.RWMutex
	rows []models.Message
	now  func() time.Time
}

// NewMemory creates an empty in-memory message store.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

var _ MessageStore = (*Memory)(nil)

// SetClock overrides the timestamp source, for tests that need
// deterministic createdAt values.
func (s *Memory) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Memory) FetchBetween(ctx context.Context, userA, userB string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Message{}
	for _, m := range s.rows {
		if (m.SenderID == userA && m.RecipientID == userB) ||
			(m.SenderID == userB && m.RecipientID == userA) {
			out = append(out, m)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Memory) FetchInvolving(ctx context.Context, userID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Message{}
	for _, m := range s.rows {
		if m.SenderID == userID || m.RecipientID == userID {
			out = append(out, m)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Memory) Send(ctx context.Context, senderID, recipientID, content string) (models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return models.Message{}, ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := models.Message{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		Read:        false,
		CreatedAt:   s.now(),
	}
	s.rows = append(s.rows, m)
	return m, nil
}

func (s *Memory) MarkRead(ctx context.Context, recipientID, senderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rows {
		if s.rows[i].RecipientID == recipientID && s.rows[i].SenderID == senderID {
			s.rows[i].Read = true
		}
	}
	return true
}

func sortNewestFirst(messages []models.Message) {
	sort.Slice(messages, func(i, j int) bool {
		if !messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].CreatedAt.After(messages[j].CreatedAt)
		}
		return messages[i].ID > messages[j].ID
	})
}
