// Package service publishes domain events to RabbitMQ. Errors are logged
// and returned so callers can ignore broker outages without interrupting
// the request flow.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	q "github.com/omraut/carbon-terminal/internal/queue"
)

// Publisher dials the broker per publish. Connections are short-lived on
// purpose: the publish volume here is one message per user action, and a
// fresh dial means the request path never carries a stale channel.
type Publisher struct {
	url string
	log *zap.Logger
}

func NewPublisher(url string, log *zap.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// PublishActivity sends an audit event to the activity.recorded queue.
func (p *Publisher) PublishActivity(ctx context.Context, ev q.ActivityEvent) error {
	return p.publish(ctx, q.ActivityQueueName, ev)
}

// PublishEmissionRecorded sends a record-persisted event to the
// emission.recorded queue for downstream consumers.
func (p *Publisher) PublishEmissionRecorded(ctx context.Context, ev q.EmissionRecordedEvent) error {
	return p.publish(ctx, q.EmissionQueueName, ev)
}

func (p *Publisher) publish(ctx context.Context, queueName string, event any) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq dial failed", zap.String("queue", queueName), zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		p.log.Warn("rabbitmq queue declare failed", zap.String("queue", queueName), zap.Error(err))
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error("rabbitmq marshal event failed", zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		p.log.Warn("rabbitmq publish failed", zap.String("queue", queueName), zap.Error(err))
		return err
	}
	return nil
}
