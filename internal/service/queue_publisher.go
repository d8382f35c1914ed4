// Package queue_publisher publishes notification events to RabbitMQ.
// Errors are logged and returned to allow callers to ignore failures without
// interrupting the main request flow.
package queue_publisher

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"

    q "github.com/iliyamo/table-reservation/internal/queue"
)

// Publisher sends events to the durable notifications queue.  Each call
// opens its own connection, which is fine for the low volume of
// registration and booking mail.
type Publisher struct {
    URL string
    Log *zerolog.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *zerolog.Logger) *Publisher {
    return &Publisher{URL: url, Log: log}
}

// PublishNotification publishes ev as a persistent JSON message.
func (p *Publisher) PublishNotification(ctx context.Context, ev q.NotificationEvent) error {
    if ev.CreatedAt == "" {
        ev.CreatedAt = time.Now().UTC().Format(time.RFC3339)
    }
    body, err := json.Marshal(ev)
    if err != nil {
        p.Log.Error().Err(err).Msg("rabbitmq: marshal event failed")
        return err
    }

    conn, err := amqp.Dial(p.URL)
    if err != nil {
        p.Log.Warn().Err(err).Msg("rabbitmq: dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.Log.Warn().Err(err).Msg("rabbitmq: channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    // Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(q.NotificationQueue, true, false, false, false, nil); err != nil {
        p.Log.Warn().Err(err).Msg("rabbitmq: queue declare failed")
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", q.NotificationQueue, false, false, pub); err != nil {
        p.Log.Warn().Err(err).Msg("rabbitmq: publish failed")
        return err
    }
    p.Log.Debug().Str("kind", ev.Kind).Str("to", ev.To).Msg("rabbitmq: notification queued")
    return nil
}
