package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends OrderEvents to RabbitMQ.  Each Publish opens its own
// connection so a broker outage never leaves a broken shared channel
// behind; event volume is a handful per order.
type Publisher struct {
	url   string
	queue string
	log   *slog.Logger
}

// NewPublisher returns a Publisher for the given AMQP URL.
func NewPublisher(url string, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{url: url, queue: OrderQueueName, log: log}
}

// Publish sends ev as a persistent JSON message.  Errors are logged and
// returned so the caller can ignore them.
func (p *Publisher) Publish(ctx context.Context, ev OrderEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq dial failed", slog.Any("error", err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq channel open failed", slog.Any("error", err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		p.log.Warn("rabbitmq queue declare failed", slog.Any("error", err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		p.log.Warn("rabbitmq publish failed", slog.String("event", ev.Type), slog.Any("error", err))
		return err
	}
	p.log.Debug("event published", slog.String("event", ev.Type), slog.Uint64("order_id", ev.OrderID))
	return nil
}

// Nop discards events.  Used when EVENTS_ENABLED is off.
type Nop struct{}

func (Nop) Publish(context.Context, OrderEvent) error { return nil }
