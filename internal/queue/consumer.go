package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/omraut/carbon-terminal/internal/model"
)

// LogWriter is the sink for decoded activity events, implemented by
// repository.ActivityLogRepo.
type LogWriter interface {
	Insert(ctx context.Context, l model.ActivityLog) error
}

// StartActivityConsumer connects to RabbitMQ, declares the activity.recorded
// queue (durable), and consumes it, writing one audit row per message. It
// runs a reconnect loop with capped backoff and never returns; dial and
// processing failures are logged while the server keeps serving requests.
func StartActivityConsumer(url string, sink LogWriter, log *zap.Logger) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("activity consumer dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn, sink, log); err != nil {
			log.Warn("activity consumer loop ended, reconnecting", zap.Error(err))
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, sink LogWriter, log *zap.Logger) error {
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("set QoS failed", zap.Error(err))
	}

	if _, err := ch.QueueDeclare(ActivityQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(ActivityQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body, sink); err != nil {
			log.Error("activity message rejected", zap.Error(err))
			_ = d.Nack(false, false) // do not requeue, avoids tight redelivery loops
			continue
		}
		_ = d.Ack(false)
	}
	return fmt.Errorf("deliveries channel closed")
}

func handleMessage(body []byte, sink LogWriter) error {
	var ev ActivityEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339, ev.RecordedAt)
	if err != nil {
		createdAt = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sink.Insert(ctx, model.ActivityLog{
		ID:        ev.ID,
		UserID:    ev.UserID,
		UserName:  ev.UserName,
		Action:    ev.Action,
		Details:   ev.Details,
		CreatedAt: createdAt,
	})
}
