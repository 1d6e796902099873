package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/retrend/chat/internal/chat"
)

// MessageRepository handles message persistence. Message ids are assigned
// here, never by clients.
type MessageRepository struct {
	db  *DB
	now func() time.Time
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock, used by tests.
func (r *MessageRepository) WithNow(now func() time.Time) *MessageRepository {
	if now != nil {
		r.now = now
	}
	return r
}

// Create stores a new message and returns it with its assigned id.
func (r *MessageRepository) Create(ctx context.Context, conversationID, from, to, body string) (*chat.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("empty message body")
	}

	createdAt := r.now()
	msg := &chat.Message{
		ID:        GenerateMessageID(createdAt),
		From:      strings.ToLower(from),
		To:        strings.ToLower(to),
		Body:      body,
		CreatedAt: createdAt,
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, from_email, to_email, body, created_at, is_read)
		 VALUES (?, ?, ?, ?, ?, ?, 0)`,
		msg.ID, conversationID, msg.From, msg.To, msg.Body,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListConversation returns every message of a conversation between the two
// participants, in creation order.
func (r *MessageRepository) ListConversation(ctx context.Context, conversationID, a, b string) ([]chat.Message, error) {
	a, b = strings.ToLower(a), strings.ToLower(b)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, from_email, to_email, body, created_at, is_read
		 FROM messages
		 WHERE conversation_id = ?
		   AND ((from_email = ? AND to_email = ?) OR (from_email = ? AND to_email = ?))
		 ORDER BY created_at, id`,
		conversationID, a, b, b, a,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []chat.Message
	for rows.Next() {
		var msg chat.Message
		var createdAt string
		var isRead int
		if err := rows.Scan(&msg.ID, &msg.From, &msg.To, &msg.Body, &createdAt, &isRead); err != nil {
			return nil, err
		}
		msg.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		msg.IsRead = isRead != 0
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// MarkRead flips is_read for the given ids, false to true only. Resubmitting
// already-read ids is harmless.
func (r *MessageRepository) MarkRead(ctx context.Context, recipient string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(ids)+1)
	args = append(args, strings.ToLower(recipient))
	for _, id := range ids {
		args = append(args, id)
	}

	// Scoped to the recipient: a client can only mark its own inbound
	// messages as read.
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_read = 1
		 WHERE to_email = ? AND is_read = 0 AND id IN (`+placeholders+`)`,
		args...,
	)
	return err
}
