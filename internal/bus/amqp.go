package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"village-chat/internal/domain"
	"village-chat/internal/observability"
)

const messagesExchange = "chat.messages"

// AMQPBus is a Bus backed by a RabbitMQ topic exchange, for running more
// than one gateway instance: a message published on any instance reaches
// subscriptions on all of them. Each subscription gets an exclusive
// auto-delete queue bound to its channel key, so delivery semantics stay
// the same as the in-process bus: live subscribers only, at most once.
type AMQPBus struct {
	conn  *amqp.Connection
	pubCh *amqp.Channel

	mu        sync.Mutex
	consumers map[*Subscription]*amqp.Channel
	closed    bool
}

// NewAMQPBus connects to RabbitMQ and declares the messages exchange.
func NewAMQPBus(url string) (*AMQPBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		messagesExchange, // name
		"topic",          // type
		true,             // durable
		false,            // auto-deleted
		false,            // internal
		false,            // no-wait
		nil,              // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare messages exchange: %w", err)
	}

	return &AMQPBus{
		conn:      conn,
		pubCh:     ch,
		consumers: make(map[*Subscription]*amqp.Channel),
	}, nil
}

// NewAMQPBusWithRetry retries the connection until ctx expires. RabbitMQ
// can take a while to accept connections after container start.
func NewAMQPBusWithRetry(ctx context.Context, url string) (*AMQPBus, error) {
	var lastErr error
	for attempt := 1; ; attempt++ {
		b, err := NewAMQPBus(url)
		if err == nil {
			return b, nil
		}
		lastErr = err

		slog.Warn("rabbitmq connection failed, retrying",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("giving up connecting to RabbitMQ: %w", lastErr)
		case <-time.After(2 * time.Second):
		}
	}
}

// Subscribe opens a dedicated consumer channel with an exclusive queue
// bound to the channel key and pumps deliveries into the subscription.
func (b *AMQPBus) Subscribe(key string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}

	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open consumer channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		"",    // server-generated name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare subscription queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, key, messagesExchange, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to bind subscription queue: %w", err)
	}

	deliveries, err := ch.Consume(
		q.Name,
		"",    // consumer tag
		true,  // auto-ack: the bus is at-most-once by contract
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to start consumer: %w", err)
	}

	sub := &Subscription{
		key: key,
		ch:  make(chan *domain.Message, subscriptionBuffer),
	}
	b.consumers[sub] = ch
	observability.BusSubscriptionsActive.Inc()

	go b.pump(sub, deliveries)

	return sub, nil
}

// pump decodes broker deliveries into the subscription channel. It exits,
// and closes the subscription channel, when the consumer channel closes.
func (b *AMQPBus) pump(sub *Subscription, deliveries <-chan amqp.Delivery) {
	defer close(sub.ch)

	for d := range deliveries {
		msg := &domain.Message{}
		if err := json.Unmarshal(d.Body, msg); err != nil {
			slog.Warn("discarding malformed bus message",
				slog.String("channel", sub.key),
				slog.String("error", err.Error()))
			continue
		}

		select {
		case sub.ch <- msg:
			observability.BusMessagesDelivered.Inc()
		default:
			observability.BusMessagesDropped.Inc()
			slog.Warn("dropped message for slow subscriber",
				slog.String("channel", sub.key),
				slog.String("message_id", msg.ID))
		}
	}
}

// Publish routes msg to every queue bound to key. Messages are transient:
// the store is the durability boundary, not the broker.
func (b *AMQPBus) Publish(ctx context.Context, key string, msg *domain.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}

	err = b.pubCh.PublishWithContext(
		ctx,
		messagesExchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Transient,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	observability.BusMessagesPublished.WithLabelValues("amqp").Inc()
	return nil
}

// Unsubscribe closes the subscription's consumer channel; the broker
// deletes the exclusive queue and the pump closes the subscription
// channel. Idempotent.
func (b *AMQPBus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.consumers[sub]
	if !ok {
		return
	}
	delete(b.consumers, sub)

	if err := ch.Close(); err != nil {
		slog.Warn("failed to close consumer channel",
			slog.String("channel", sub.key),
			slog.String("error", err.Error()))
	}

	observability.BusSubscriptionsActive.Dec()
}

// Close tears down all consumers and the broker connection.
func (b *AMQPBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for sub, ch := range b.consumers {
		ch.Close()
		delete(b.consumers, sub)
		observability.BusSubscriptionsActive.Dec()
	}

	b.pubCh.Close()
	if err := b.conn.Close(); err != nil {
		slog.Warn("failed to close rabbitmq connection", slog.String("error", err.Error()))
	}
}

// Ping reports whether the broker connection is still open.
func (b *AMQPBus) Ping(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || b.conn.IsClosed() {
		return ErrBusClosed
	}
	return nil
}
