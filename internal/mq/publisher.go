package mq

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/hrm/internal/events"
	"github.com/shaiso/hrm/internal/telemetry"
)

// ChannelProvider даёт доступ к каналу. Реализуется *Connection.
type ChannelProvider interface {
	WithChannel(fn func(ch Channel) error) error
}

// Publisher публикует интеграционные события в topic exchange.
type Publisher struct {
	channels ChannelProvider
	exchange string
	logger   *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(channels ChannelProvider, exchange string, logger *slog.Logger) *Publisher {
	return &Publisher{
		channels: channels,
		exchange: exchange,
		logger:   logger,
	}
}

// Publish публикует событие с указанным routing key.
//
// Сообщение persistent: переживёт рестарт брокера. Если канал недоступен,
// ошибка возвращается вызывающему.
func (p *Publisher) Publish(ctx context.Context, routingKey string, evt events.Event) error {
	body, err := events.Encode(evt)
	if err != nil {
		return err
	}

	env := evt.Envelope()

	err = p.channels.WithChannel(func(ch Channel) error {
		return ch.PublishWithContext(
			ctx,
			p.exchange, // exchange
			routingKey, // routing key
			false,      // mandatory
			false,      // immediate
			amqp.Publishing{
				ContentType:   "application/json",
				DeliveryMode:  amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:     env.EventID.String(),
				CorrelationId: env.CorrelationID,
				Timestamp:     env.OccurredUTC,
				Type:          fmt.Sprintf("%T", evt),
				Headers: amqp.Table{
					telemetry.CorrelationHeader: env.CorrelationID,
				},
				Body: body,
			},
		)
	})
	if err != nil {
		telemetry.PublishedTotal.WithLabelValues(routingKey, "error").Inc()
		return fmt.Errorf("publish to %s/%s: %w", p.exchange, routingKey, err)
	}

	telemetry.PublishedTotal.WithLabelValues(routingKey, "ok").Inc()

	p.logger.Debug("published event",
		"exchange", p.exchange,
		"routing_key", routingKey,
		"event_id", env.EventID,
		"correlation_id", env.CorrelationID,
	)

	return nil
}
