// Package bus provides the publish/subscribe fan-out that delivers a
// newly persisted message to the live subscriptions of its sender and
// recipient. Delivery is best effort and at most once: durability is the
// message store's job, not the bus's.
package bus

import (
	"context"
	"errors"

	"village-chat/internal/domain"
)

// subscriptionBuffer bounds how far a slow consumer may lag before
// publishes to it are dropped.
const subscriptionBuffer = 256

var ErrBusClosed = errors.New("delivery bus is closed")

// ChannelKey derives the bus addressing key for a participant id.
// Every send publishes under two keys: the recipient's and the sender's,
// so a sender subscribed to its own channel observes its own sends.
func ChannelKey(participantID string) string {
	return "message_sent." + participantID
}

// Subscription is a live registration on a single channel key, owned by
// exactly one connection. Messages arrive on C until the subscription is
// cancelled; C is closed on cancellation and a cancelled subscription
// cannot be resumed.
type Subscription struct {
	key string
	ch  chan *domain.Message
}

// C returns the channel on which published messages arrive.
func (s *Subscription) C() <-chan *domain.Message { return s.ch }

// Key returns the channel key this subscription is registered on.
func (s *Subscription) Key() string { return s.key }

// Bus fans a published message out to every subscription registered on
// the channel key at the moment of publish. A Subscribe that has returned
// is guaranteed to observe subsequent publishes on its key; it never
// observes earlier ones. Unsubscribe is idempotent.
type Bus interface {
	Subscribe(key string) (*Subscription, error)
	Publish(ctx context.Context, key string, msg *domain.Message) error
	Unsubscribe(sub *Subscription)
	Close()
}
