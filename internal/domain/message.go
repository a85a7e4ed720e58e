package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidContent      = errors.New("message content is empty")
	ErrStoreUnavailable    = errors.New("message store unavailable")
	ErrDeliveryUnavailable = errors.New("live delivery unavailable")
)

// Message is a single directed communication between two participants.
// A message is immutable once persisted; there is no edit or delete.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
}

// MessageRepository defines the interface for message persistence.
// A conversation is not a stored aggregate; it is computed per query
// from the unordered pair of participant ids.
type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	GetConversation(ctx context.Context, participantA, participantB string) ([]*Message, error)
}
