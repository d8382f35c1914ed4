package notify

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/table-reservation/internal/queue"
)

// Publisher puts an event on the broker.
type Publisher interface {
	PublishNotification(ctx context.Context, ev queue.NotificationEvent) error
}

// QueueNotifier hands messages to RabbitMQ; the notification consumer
// renders and sends them out of band.
type QueueNotifier struct {
	pub Publisher
	log *zerolog.Logger
}

func NewQueueNotifier(pub Publisher, log *zerolog.Logger) *QueueNotifier {
	return &QueueNotifier{pub: pub, log: log}
}

func (n *QueueNotifier) Send(ctx context.Context, to string, kind Kind, fields map[string]string) bool {
	if strings.TrimSpace(to) == "" {
		return false
	}
	ev := queue.NotificationEvent{
		To:        to,
		Kind:      string(kind),
		Fields:    fields,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := n.pub.PublishNotification(ctx, ev); err != nil {
		n.log.Warn().Err(err).Str("to", to).Str("kind", string(kind)).Msg("notification not queued")
		return false
	}
	return true
}
