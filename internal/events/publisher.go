// Package events publishes order lifecycle events to RabbitMQ for
// out-of-process consumers (kitchen displays, notification senders).
// Publishing is best-effort: a broker outage must never block or fail an
// order write.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const ordersExchange = "orders_topic"

// Actions carried in routing keys: orders.{restaurant_id}.{action}
const (
	ActionCreated       = "created"
	ActionStatusChanged = "status_changed"
	ActionPaid          = "paid"
	ActionDeleted       = "deleted"
)

// OrderEvent is the JSON message body.
type OrderEvent struct {
	OrderID      uuid.UUID `json:"order_id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Action       string    `json:"action"`
	Status       string    `json:"status,omitempty"`
	Total        string    `json:"total,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Publisher emits order events. Implemented by AmqpPublisher and NoopPublisher.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
	Close()
}

// AmqpPublisher publishes persistent JSON messages on a topic exchange.
type AmqpPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAmqpPublisher dials the broker and declares the orders exchange.
func NewAmqpPublisher(url string) (*AmqpPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(ordersExchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AmqpPublisher{conn: conn, ch: ch}, nil
}

func (p *AmqpPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	key := fmt.Sprintf("orders.%s.%s", event.RestaurantID, event.Action)
	return p.ch.PublishWithContext(ctx, ordersExchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		Body:         body,
	})
}

func (p *AmqpPublisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderEvent(context.Context, OrderEvent) error { return nil }
func (NoopPublisher) Close()                                              {}
