package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ouluntietoteekkarit/ilmo/internal/model"
)

// Broker owns one RabbitMQ connection and the durable queue notifications
// are published to. A lost connection is re-established on next use.
type Broker struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	url      string
	queue    string
	exchange string
}

// NewBroker connects to url and declares the queue, binding it to exchange
// when one is given.
func NewBroker(url, queue, exchange string) (*Broker, error) {
	b := &Broker{url: url, queue: queue, exchange: exchange}
	if err := b.connect(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Broker) connect() error {
	conn, err := amqp.Dial(b.url)
	if err != nil {
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := declare(ch, b.queue, b.exchange); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}
	b.conn, b.channel = conn, ch
	return nil
}

func declare(ch *amqp.Channel, queue, exchange string) error {
	if exchange != "" {
		if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", exchange, err)
		}
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if exchange != "" {
		if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}
	return nil
}

func (b *Broker) ensureConnection() error {
	if b.conn != nil && !b.conn.IsClosed() && b.channel != nil && !b.channel.IsClosed() {
		return nil
	}
	if b.conn != nil {
		_ = b.conn.Close()
	}
	log.Printf("reconnecting to rabbitmq queue %s", b.queue)
	return b.connect()
}

// Publish sends body as a persistent JSON message routed to the queue.
func (b *Broker) Publish(ctx context.Context, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureConnection(); err != nil {
		return err
	}
	err := b.channel.PublishWithContext(ctx, b.exchange, b.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", b.queue, err)
	}
	return nil
}

// Consume starts delivering queued messages. Deliveries must be acked.
func (b *Broker) Consume() (<-chan amqp.Delivery, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureConnection(); err != nil {
		return nil, err
	}
	if err := b.channel.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("set prefetch: %w", err)
	}
	msgs, err := b.channel.Consume(b.queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", b.queue, err)
	}
	return msgs, nil
}

// Close closes the channel and the connection.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.channel != nil {
		if err := b.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			return fmt.Errorf("close channel: %w", err)
		}
	}
	if b.conn != nil {
		if err := b.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			return fmt.Errorf("close connection: %w", err)
		}
	}
	return nil
}

// publisher is the part of Broker the queue notifier uses.
type publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// QueueNotifier queues notifications instead of sending them, so that a
// slow or failing mail provider never delays admission.
type QueueNotifier struct {
	queue publisher
	newID func() string
}

// NewQueueNotifier constructs a QueueNotifier publishing through b.
func NewQueueNotifier(b *Broker) *QueueNotifier {
	return &QueueNotifier{queue: b, newID: uuid.NewString}
}

func (n *QueueNotifier) Notify(ctx context.Context, to model.Recipient, subject, body string) error {
	msg := Message{ID: n.newID(), Recipient: to, Subject: subject, Body: body}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := n.queue.Publish(ctx, data); err != nil {
		return err
	}
	log.Printf("queued notification %s for %s", msg.ID, to.Email)
	return nil
}

// Sender delivers one notification. Mailer and LogNotifier implement it.
type Sender interface {
	Notify(ctx context.Context, to model.Recipient, subject, body string) error
}

// Consumer delivers queued notifications through a Sender.
type Consumer struct {
	sender Sender
}

// NewConsumer constructs a Consumer.
func NewConsumer(sender Sender) *Consumer {
	return &Consumer{sender: sender}
}

// Run handles deliveries until ctx is done or the channel closes.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

// handle acks a delivered message. Malformed messages are dropped; failed
// sends are requeued once and dropped when redelivered.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		log.Printf("drop malformed notification: %v", err)
		_ = d.Nack(false, false)
		return
	}
	if err := c.sender.Notify(ctx, msg.Recipient, msg.Subject, msg.Body); err != nil {
		log.Printf("notification %s to %s failed: %v", msg.ID, msg.Recipient.Email, err)
		_ = d.Nack(false, !d.Redelivered)
		return
	}
	_ = d.Ack(false)
}
