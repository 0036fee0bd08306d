package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/hrm/internal/config"
)

// ErrNoChannel — канал ещё не открыт или уже закрыт.
var ErrNoChannel = errors.New("no channel available")

// Channel — подмножество методов *amqp.Channel, которые использует пакет.
// Позволяет подменять канал в тестах.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

var _ Channel = (*amqp.Channel)(nil)

// Connection — AMQP соединение и один канал поверх него.
//
// Переподключения нет: одна попытка при старте, ошибка фатальна для процесса.
// Неожиданный разрыв после старта сигнализируется через Done().
type Connection struct {
	logger *slog.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool

	// done закрывается при разрыве соединения или вызове Close.
	done    chan struct{}
	errMu   sync.Mutex
	lostErr error
}

// URL собирает AMQP URL из конфигурации.
func URL(cfg config.Rabbit) string {
	uri := amqp.URI{
		Scheme:   "amqp",
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.User,
		Password: cfg.Password,
		Vhost:    cfg.VHost,
	}
	return uri.String()
}

// Connect устанавливает соединение и открывает канал. Одна попытка.
func Connect(ctx context.Context, cfg config.Rabbit, logger *slog.Logger) (*Connection, error) {
	props := amqp.NewConnectionProperties()
	if cfg.ConnectionName != "" {
		props.SetClientConnectionName(cfg.ConnectionName)
	}

	dialer := &net.Dialer{}
	conn, err := amqp.DialConfig(URL(cfg), amqp.Config{
		Properties: props,
		Heartbeat:  10 * time.Second,
		Locale:     "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, addr)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dial amqp %s: %w", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)), err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c := &Connection{
		logger:  logger,
		conn:    conn,
		channel: ch,
		done:    make(chan struct{}),
	}

	go c.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))

	logger.Info("connected to RabbitMQ",
		"host", cfg.Host,
		"port", cfg.Port,
		"vhost", cfg.VHost,
	)

	return c, nil
}

// watch ждёт закрытия соединения и закрывает done.
func (c *Connection) watch(notifyClose <-chan *amqp.Error) {
	amqpErr, ok := <-notifyClose

	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return
	}

	if ok && amqpErr != nil {
		c.logger.Error("connection lost", "error", amqpErr)
		c.errMu.Lock()
		c.lostErr = amqpErr
		c.errMu.Unlock()
	}

	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	c.mu.Unlock()
}

// Done закрывается, когда соединение больше нельзя использовать.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Err возвращает причину разрыва соединения (nil при штатном Close).
func (c *Connection) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.lostErr
}

// Channel возвращает текущий AMQP канал.
func (c *Connection) Channel() Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.channel == nil {
		return nil
	}
	return c.channel
}

// WithChannel выполняет функцию с текущим каналом.
func (c *Connection) WithChannel(fn func(ch Channel) error) error {
	c.mu.RLock()
	ch := c.channel
	closed := c.closed
	c.mu.RUnlock()

	if ch == nil || closed {
		return ErrNoChannel
	}

	return fn(ch)
}

// IsConnected проверяет, установлено ли соединение.
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.conn == nil || c.closed {
		return false
	}

	return !c.conn.IsClosed()
}

// Close закрывает канал и соединение.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	if !c.closed {
		c.closed = true
		close(c.done)
	}

	var errs []error

	if c.channel != nil {
		if err := c.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
		c.channel = nil
	}

	if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, fmt.Errorf("close connection: %w", err))
	}
	c.conn = nil

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	c.logger.Info("connection closed")
	return nil
}
