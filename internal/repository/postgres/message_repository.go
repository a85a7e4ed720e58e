package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"village-chat/internal/domain"
	"village-chat/internal/observability"
)

// MessageRepository implements domain.MessageRepository for PostgreSQL
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new PostgreSQL message repository
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new message. The id is assigned here, the timestamp by
// the database, so the caller never observes a partially written message:
// either the row exists with both set or the insert failed.
func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}

	query := `
		INSERT INTO messages (id, sender_id, recipient_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	start := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		message.ID,
		message.SenderID,
		message.RecipientID,
		message.Content,
	).Scan(&message.Timestamp)
	observability.DBQueryDuration.WithLabelValues("insert", "messages").Observe(time.Since(start).Seconds())

	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// GetConversation retrieves every message exchanged between two
// participants in either direction, oldest first. Ties on the timestamp
// are broken by insertion order (the seq column).
func (r *MessageRepository) GetConversation(ctx context.Context, participantA, participantB string) ([]*domain.Message, error) {
	query := `
		SELECT id, sender_id, recipient_id, content, created_at
		FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2)
		   OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY created_at ASC, seq ASC
	`

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, participantA, participantB)
	observability.DBQueryDuration.WithLabelValues("select", "messages").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	defer rows.Close()

	messages := make([]*domain.Message, 0)
	for rows.Next() {
		msg := &domain.Message{}
		err := rows.Scan(
			&msg.ID,
			&msg.SenderID,
			&msg.RecipientID,
			&msg.Content,
			&msg.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}
