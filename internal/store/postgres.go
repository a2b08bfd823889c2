package store

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitlink/server/internal/models"
)

const messageColumns = "id, sender_id, recipient_id, content, read, created_at"

// Postgres implements MessageStore on a pgx connection pool. Every call is
// bounded by the configured query timeout.
type Postgres struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
	threadLimit  int
}

// NewPostgres creates a Postgres message store. threadLimit caps how many
// messages a single thread fetch returns, newest first.
func NewPostgres(pool *pgxpool.Pool, queryTimeout time.Duration, threadLimit int) *Postgres {
	return &Postgres{pool: pool, queryTimeout: queryTimeout, threadLimit: threadLimit}
}

var _ MessageStore = (*Postgres)(nil)

func (p *Postgres) FetchBetween(ctx context.Context, userA, userB string) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	rows, err := p.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2)
		   OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, userA, userB, p.threadLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch between: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (p *Postgres) FetchInvolving(ctx context.Context, userID string) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	rows, err := p.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE sender_id = $1 OR recipient_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch involving: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (p *Postgres) Send(ctx context.Context, senderID, recipientID, content string) (models.Message, error) {
	// Callers validate before submitting; the store rejects again so bad
	// content can never reach the log.
	if strings.TrimSpace(content) == "" {
		return models.Message{}, ErrEmptyContent
	}

	ctx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	var m models.Message
	err := p.pool.QueryRow(ctx, `
		INSERT INTO messages (sender_id, recipient_id, content)
		VALUES ($1, $2, $3)
		RETURNING `+messageColumns+`
	`, senderID, recipientID, content).
		Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.Read, &m.CreatedAt)
	if err != nil {
		return models.Message{}, fmt.Errorf("%w: send: %v", ErrStoreUnavailable, err)
	}
	return m, nil
}

func (p *Postgres) MarkRead(ctx context.Context, recipientID, senderID string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	// Set-based update: no read-modify-write, so concurrent calls for the
	// same pair are safe and the operation is idempotent.
	_, err := p.pool.Exec(ctx, `
		UPDATE messages SET read = TRUE
		WHERE recipient_id = $1 AND sender_id = $2 AND read = FALSE
	`, recipientID, senderID)
	if err != nil {
		log.Printf("mark read failed for recipient=%s sender=%s: %v", recipientID, senderID, err)
		return false
	}
	return true
}

func scanMessages(rows pgx.Rows) ([]models.Message, error) {
	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.Read, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrStoreUnavailable, err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", ErrStoreUnavailable, err)
	}
	return messages, nil
}
