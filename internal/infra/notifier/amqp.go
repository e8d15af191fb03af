package notifier

import (
	"context"
	"encoding/json"
	"time"

	"labbook/internal/pkg/config"
	"labbook/internal/pkg/errs"
	"labbook/internal/usecase/shared"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

var errPublish = errs.New("failed to publish notification")

type message struct {
	UserID  uuid.UUID      `json:"user_id"`
	Kind    string         `json:"kind"`
	Payload map[string]any `json:"payload,omitempty"`
	SentAt  time.Time      `json:"sent_at"`
}

// AMQPNotifier publishes notification events to a durable queue. Delivery is
// fire-and-forget; a downstream worker turns messages into emails or pushes.
type AMQPNotifier struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewAMQPNotifier(cfg config.AMQPConfig) (*AMQPNotifier, func(), error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, errs.Wrap(err, "failed to connect to AMQP broker")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, errs.Wrap(err, "failed to open AMQP channel")
	}

	if _, err := ch.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, errs.Wrap(err, "failed to declare notification queue")
	}

	cleanup := func() {
		ch.Close()
		conn.Close()
	}
	return &AMQPNotifier{conn: conn, ch: ch, queue: cfg.Queue}, cleanup, nil
}

func (n *AMQPNotifier) Notify(ctx context.Context, userID uuid.UUID, kind string, payload map[string]any) error {
	body, err := json.Marshal(message{
		UserID:  userID,
		Kind:    kind,
		Payload: payload,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return errs.Mark(err, errPublish)
	}

	err = n.ch.PublishWithContext(
		ctx,
		"",
		n.queue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return errs.Mark(err, errPublish)
	}
	return nil
}

// NopNotifier drops everything. Used when AMQP is disabled and in tests.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, uuid.UUID, string, map[string]any) error {
	return nil
}

var _ shared.Notifier = (*AMQPNotifier)(nil)
var _ shared.Notifier = NopNotifier{}
