// Package mqtest содержит подделки канала и acknowledger'а для тестов
// кода, работающего с пакетом mq, без запущенного брокера.
package mqtest

import (
	"context"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/hrm/internal/mq"
)

// Acknowledger записывает вызовы Ack/Nack/Reject.
type Acknowledger struct {
	mu      sync.Mutex
	acks    []uint64
	nacks   []Nack
	rejects []uint64
	notify  chan struct{}
}

// Nack — запись о вызове Nack.
type Nack struct {
	Tag     uint64
	Requeue bool
}

// NewAcknowledger создаёт Acknowledger.
func NewAcknowledger() *Acknowledger {
	return &Acknowledger{notify: make(chan struct{}, 1024)}
}

// Ack реализует amqp.Acknowledger.
func (a *Acknowledger) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	a.acks = append(a.acks, tag)
	a.mu.Unlock()
	a.signal()
	return nil
}

// Nack реализует amqp.Acknowledger.
func (a *Acknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	a.nacks = append(a.nacks, Nack{Tag: tag, Requeue: requeue})
	a.mu.Unlock()
	a.signal()
	return nil
}

// Reject реализует amqp.Acknowledger.
func (a *Acknowledger) Reject(tag uint64, _ bool) error {
	a.mu.Lock()
	a.rejects = append(a.rejects, tag)
	a.mu.Unlock()
	a.signal()
	return nil
}

func (a *Acknowledger) signal() {
	select {
	case a.notify <- struct{}{}:
	default:
	}
}

// Acks возвращает delivery tags подтверждённых сообщений.
func (a *Acknowledger) Acks() []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]uint64(nil), a.acks...)
}

// Nacks возвращает вызовы Nack.
func (a *Acknowledger) Nacks() []Nack {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Nack(nil), a.nacks...)
}

// Rejects возвращает delivery tags отклонённых сообщений.
func (a *Acknowledger) Rejects() []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]uint64(nil), a.rejects...)
}

// Settled — общее количество решений по сообщениям.
func (a *Acknowledger) Settled() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.acks) + len(a.nacks) + len(a.rejects)
}

// WaitSettled ждёт, пока решение будет принято по n сообщениям.
func (a *Acknowledger) WaitSettled(n int, timeout time.Duration) error {
	deadline := time.After(timeout)
	for {
		if a.Settled() >= n {
			return nil
		}
		select {
		case <-a.notify:
		case <-deadline:
			return errors.New("timeout waiting for ack/nack")
		}
	}
}

// Delivery строит amqp.Delivery с этим acknowledger'ом.
func (a *Acknowledger) Delivery(tag uint64, body []byte) amqp.Delivery {
	return amqp.Delivery{
		Acknowledger: a,
		DeliveryTag:  tag,
		ContentType:  "application/json",
		Body:         body,
	}
}

// Published — опубликованное сообщение.
type Published struct {
	Exchange   string
	RoutingKey string
	Msg        amqp.Publishing
}

// Channel — поддельный канал. Записывает объявления топологии и публикации,
// отдаёт сообщения из Deliveries.
type Channel struct {
	mu sync.Mutex

	Deliveries chan amqp.Delivery

	Exchanges []string
	Kinds     []string
	Queues    []string
	Bindings  [][3]string // queue, key, exchange
	Prefetch  int
	AutoAck   bool
	Published []Published

	// PublishErr/ConsumeErr/QosErr возвращаются соответствующими методами.
	PublishErr error
	ConsumeErr error
	QosErr     error
}

var _ mq.Channel = (*Channel)(nil)

// NewChannel создаёт Channel с буфером доставок.
func NewChannel(buffer int) *Channel {
	return &Channel{Deliveries: make(chan amqp.Delivery, buffer)}
}

// WithChannel реализует mq.ChannelProvider.
func (c *Channel) WithChannel(fn func(ch mq.Channel) error) error {
	return fn(c)
}

// ExchangeDeclare реализует mq.Channel.
func (c *Channel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Exchanges = append(c.Exchanges, name)
	c.Kinds = append(c.Kinds, kind)
	return nil
}

// QueueDeclare реализует mq.Channel.
func (c *Channel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Queues = append(c.Queues, name)
	return amqp.Queue{Name: name}, nil
}

// QueueBind реализует mq.Channel.
func (c *Channel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Bindings = append(c.Bindings, [3]string{name, key, exchange})
	return nil
}

// Qos реализует mq.Channel.
func (c *Channel) Qos(prefetchCount, _ int, _ bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.QosErr != nil {
		return c.QosErr
	}
	c.Prefetch = prefetchCount
	return nil
}

// Consume реализует mq.Channel.
func (c *Channel) Consume(_, _ string, autoAck, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ConsumeErr != nil {
		return nil, c.ConsumeErr
	}
	c.AutoAck = autoAck
	return c.Deliveries, nil
}

// PublishWithContext реализует mq.Channel.
func (c *Channel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.PublishErr != nil {
		return c.PublishErr
	}
	c.Published = append(c.Published, Published{Exchange: exchange, RoutingKey: key, Msg: msg})
	return nil
}

// PublishedMessages возвращает копию опубликованных сообщений.
func (c *Channel) PublishedMessages() []Published {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Published(nil), c.Published...)
}

// QosPrefetch возвращает установленный prefetch.
func (c *Channel) QosPrefetch() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Prefetch
}
