package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends show events.  Implementations must not block a request
// for long; callers ignore the error after logging it.
type Publisher interface {
	Publish(ctx context.Context, ev ShowEvent) error
}

// NopPublisher drops every event.  Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ShowEvent) error { return nil }

// AMQPPublisher dials the broker for every event.  Show events are rare, so
// there is no connection to keep healthy between them.
type AMQPPublisher struct {
	url string
	log *zap.Logger
}

// NewPublisher returns an AMQPPublisher, or a NopPublisher when url is empty.
func NewPublisher(url string, log *zap.Logger) Publisher {
	if url == "" {
		return NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AMQPPublisher{url: url, log: log.Named("publisher")}
}

// Publish declares QueueName and sends ev as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev ShowEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		p.log.Warn("queue declare failed", zap.Error(err))
		return err
	}
	err = ch.PublishWithContext(ctx, "", QueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(ev.Type),
		Body:         body,
	})
	if err != nil {
		p.log.Warn("publish failed", zap.String("type", string(ev.Type)), zap.Uint64("show_id", ev.ShowID), zap.Error(err))
		return err
	}
	p.log.Debug("event published", zap.String("type", string(ev.Type)), zap.Uint64("show_id", ev.ShowID))
	return nil
}
