package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"village-chat/internal/bus"
	"village-chat/internal/domain"
	"village-chat/internal/observability"
)

// MessageService is the messaging gateway: it validates send operations
// against the participant directory, persists messages, fans them out on
// the delivery bus and serves conversation history.
type MessageService struct {
	messages  domain.MessageRepository
	directory domain.ParticipantRepository
	bus       bus.Bus
}

// NewMessageService creates a new messaging gateway
func NewMessageService(messages domain.MessageRepository, directory domain.ParticipantRepository, deliveryBus bus.Bus) *MessageService {
	return &MessageService{
		messages:  messages,
		directory: directory,
		bus:       deliveryBus,
	}
}

// Send validates both endpoints, persists the message and publishes it
// under the recipient's and the sender's channel keys. The send succeeds
// once the message is persisted; fan-out is best effort and its failures
// are never surfaced to the caller.
func (s *MessageService) Send(ctx context.Context, senderID, recipientID, content string) (*domain.Message, error) {
	if err := s.resolve(ctx, senderID); err != nil {
		return nil, err
	}
	if err := s.resolve(ctx, recipientID); err != nil {
		return nil, err
	}

	if strings.TrimSpace(content) == "" {
		return nil, domain.ErrInvalidContent
	}

	msg := &domain.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	s.fanOut(ctx, msg)

	return msg, nil
}

// GetHistory returns every message exchanged between the two participants
// in send order. The pair is unordered: GetHistory(a, b) and
// GetHistory(b, a) return the same sequence.
func (s *MessageService) GetHistory(ctx context.Context, participantA, participantB string) ([]*domain.Message, error) {
	if err := s.resolve(ctx, participantA); err != nil {
		return nil, err
	}
	if err := s.resolve(ctx, participantB); err != nil {
		return nil, err
	}

	messages, err := s.messages.GetConversation(ctx, participantA, participantB)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return messages, nil
}

// OpenLiveChannel registers a live subscription on the owner's channel
// key. The caller owns the subscription and must translate its
// connection teardown into CloseLiveChannel.
func (s *MessageService) OpenLiveChannel(ctx context.Context, ownerID string) (*bus.Subscription, error) {
	if err := s.resolve(ctx, ownerID); err != nil {
		return nil, err
	}
	return s.bus.Subscribe(bus.ChannelKey(ownerID))
}

// CloseLiveChannel releases a subscription. Idempotent.
func (s *MessageService) CloseLiveChannel(sub *bus.Subscription) {
	s.bus.Unsubscribe(sub)
}

// resolve checks an id against the participant directory.
func (s *MessageService) resolve(ctx context.Context, id string) error {
	_, err := s.directory.GetByID(ctx, id)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrParticipantNotFound) {
		return domain.ErrParticipantNotFound
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

// fanOut publishes the persisted message under both channel keys. The two
// publishes are independent: a failure on one channel never blocks the
// other, and neither failure reaches the sender.
func (s *MessageService) fanOut(ctx context.Context, msg *domain.Message) {
	keys := []string{bus.ChannelKey(msg.RecipientID)}
	if msg.SenderID != msg.RecipientID {
		keys = append(keys, bus.ChannelKey(msg.SenderID))
	}

	for _, key := range keys {
		if err := s.bus.Publish(ctx, key, msg); err != nil {
			observability.BusDeliveryFailures.Inc()
			observability.FromContext(ctx).Warn("live delivery failed",
				slog.String("channel", key),
				slog.String("message_id", msg.ID),
				slog.String("error", err.Error()))
		}
	}
}
