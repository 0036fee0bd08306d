package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/semaphore"

	"github.com/shaiso/hrm/internal/telemetry"
)

// ErrDiscard помечает ошибку, после которой сообщение подтверждается (ack)
// без повторной доставки: повтор не изменит результат.
var ErrDiscard = errors.New("discard message")

// ErrDeliveriesClosed — брокер закрыл канал доставки.
var ErrDeliveriesClosed = errors.New("deliveries channel closed")

// Discard оборачивает err так, что consumer подтвердит сообщение без requeue.
func Discard(err error) error {
	return fmt.Errorf("%w: %w", ErrDiscard, err)
}

// Handler — функция обработки сообщения.
//
// nil — ack; ошибка с ErrDiscard — ack без повтора; любая другая
// ошибка — nack с requeue=true.
type Handler func(ctx context.Context, msg *Delivery) error

// Delivery — доставленное сообщение.
type Delivery struct {
	// Raw — сырое AMQP сообщение.
	Raw amqp.Delivery

	// Logger — логгер обработки сообщения. Handler может заменить его
	// логгером с correlation_id, тогда итог (ack/nack) пишется через него.
	Logger *slog.Logger
}

// Body возвращает тело сообщения.
func (d *Delivery) Body() []byte {
	return d.Raw.Body
}

func (d *Delivery) logger(fallback *slog.Logger) *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return fallback
}

// CorrelationID возвращает correlation id из свойств сообщения
// или из заголовка x-correlation-id.
func (d *Delivery) CorrelationID() string {
	if d.Raw.CorrelationId != "" {
		return d.Raw.CorrelationId
	}
	if v, ok := d.Raw.Headers[telemetry.CorrelationHeader].(string); ok {
		return v
	}
	return ""
}

// Consumer потребляет сообщения из очереди RabbitMQ.
//
// Каждое сообщение обрабатывается в отдельной горутине, одновременно не
// больше prefetch штук. Ack/nack выполняются только после завершения
// обработчика и сериализуются мьютексом.
type Consumer struct {
	channels ChannelProvider
	logger   *slog.Logger
	queue    string
	tag      string
	handler  Handler
	prefetch int

	sem      *semaphore.Weighted
	ackMu    sync.Mutex
	inFlight sync.WaitGroup

	cancelMu   sync.Mutex
	cancelFunc context.CancelFunc
}

// ConsumerConfig — конфигурация consumer.
type ConsumerConfig struct {
	// Queue — имя очереди.
	Queue string

	// Tag — consumer tag (пустой — сгенерирует брокер).
	Tag string

	// Handler — обработчик сообщений.
	Handler Handler

	// Prefetch — максимум неподтверждённых сообщений на канале.
	Prefetch int
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(channels ChannelProvider, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	return &Consumer{
		channels: channels,
		logger:   logger,
		queue:    cfg.Queue,
		tag:      cfg.Tag,
		handler:  cfg.Handler,
		prefetch: prefetch,
		sem:      semaphore.NewWeighted(int64(prefetch)),
	}
}

// Start настраивает QoS, подписывается на очередь и обрабатывает
// сообщения до отмены ctx или закрытия канала доставки.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelMu.Lock()
	c.cancelFunc = cancel
	c.cancelMu.Unlock()
	defer cancel()

	deliveries, err := c.setupConsume()
	if err != nil {
		return err
	}

	c.logger.Info("consumer started", "queue", c.queue, "prefetch", c.prefetch)

	return c.processDeliveries(ctx, deliveries)
}

// setupConsume устанавливает prefetch и начинает потребление.
func (c *Consumer) setupConsume() (<-chan amqp.Delivery, error) {
	var deliveries <-chan amqp.Delivery

	err := c.channels.WithChannel(func(ch Channel) error {
		// Не больше prefetch неподтверждённых сообщений на канал
		if err := ch.Qos(c.prefetch, 0, false); err != nil {
			return fmt.Errorf("set qos: %w", err)
		}

		var err error
		deliveries, err = ch.Consume(
			c.queue, // queue
			c.tag,   // consumer tag
			false,   // auto-ack (мы ack вручную)
			false,   // exclusive
			false,   // no-local
			false,   // no-wait
			nil,     // args
		)
		if err != nil {
			return fmt.Errorf("consume %s: %w", c.queue, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deliveries, nil
}

// processDeliveries раздаёт сообщения обработчикам.
func (c *Consumer) processDeliveries(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}

			// Ждём свободный слот; при отмене сообщение остаётся
			// неподтверждённым и будет доставлено повторно.
			if err := c.sem.Acquire(ctx, 1); err != nil {
				return err
			}

			c.inFlight.Add(1)
			go func() {
				defer c.inFlight.Done()
				defer c.sem.Release(1)
				c.handleDelivery(ctx, raw)
			}()
		}
	}
}

// handleDelivery обрабатывает одно сообщение и решает его судьбу.
func (c *Consumer) handleDelivery(ctx context.Context, raw amqp.Delivery) {
	start := time.Now()
	gauge := telemetry.MessagesInFlight.WithLabelValues(c.queue)
	gauge.Inc()
	defer func() {
		gauge.Dec()
		telemetry.HandlerDuration.WithLabelValues(c.queue).Observe(time.Since(start).Seconds())
	}()

	d := &Delivery{Raw: raw, Logger: c.logger}
	err := c.invoke(ctx, d)
	logger := d.logger(c.logger)

	switch {
	case err == nil:
		c.ack(raw, telemetry.OutcomeAcked)

	case errors.Is(err, ErrDiscard):
		logger.Warn("message dropped",
			"queue", c.queue,
			"delivery_tag", raw.DeliveryTag,
			"message_id", raw.MessageId,
			"error", err,
		)
		c.ack(raw, telemetry.OutcomeDropped)

	default:
		logger.Error("handler failed",
			"queue", c.queue,
			"delivery_tag", raw.DeliveryTag,
			"message_id", raw.MessageId,
			"redelivered", raw.Redelivered,
			"error", err,
		)
		// Ошибка обработки — возвращаем в очередь, повтор делает брокер
		c.nack(raw)
	}
}

// invoke вызывает обработчик, превращая панику в ошибку.
func (c *Consumer) invoke(ctx context.Context, d *Delivery) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panic",
				"queue", c.queue,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return c.handler(ctx, d)
}

func (c *Consumer) ack(raw amqp.Delivery, outcome string) {
	c.ackMu.Lock()
	err := raw.Ack(false)
	c.ackMu.Unlock()

	if err != nil {
		c.logger.Error("ack failed", "queue", c.queue, "delivery_tag", raw.DeliveryTag, "error", err)
		return
	}
	telemetry.MessagesTotal.WithLabelValues(c.queue, outcome).Inc()
}

func (c *Consumer) nack(raw amqp.Delivery) {
	c.ackMu.Lock()
	err := raw.Nack(false, true)
	c.ackMu.Unlock()

	if err != nil {
		c.logger.Error("nack failed", "queue", c.queue, "delivery_tag", raw.DeliveryTag, "error", err)
		return
	}
	telemetry.MessagesTotal.WithLabelValues(c.queue, telemetry.OutcomeRequeued).Inc()
}

// Stop прекращает приём новых сообщений.
// Уже запущенные обработчики не дожидаются.
func (c *Consumer) Stop() {
	c.cancelMu.Lock()
	defer c.cancelMu.Unlock()
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
}

// Wait ждёт завершения обработчиков, запущенных до остановки.
func (c *Consumer) Wait() {
	c.inFlight.Wait()
}
