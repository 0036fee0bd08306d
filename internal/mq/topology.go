package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/hrm/internal/config"
)

// Topology — exchange, очередь и привязка, которые использует worker.
type Topology struct {
	Exchange   string
	Queue      string
	RoutingKey string
}

// TopologyFromConfig строит топологию из конфигурации брокера.
func TopologyFromConfig(cfg config.Rabbit) Topology {
	return Topology{
		Exchange:   cfg.Exchange,
		Queue:      cfg.Queue,
		RoutingKey: cfg.RoutingKey,
	}
}

// DeclareExchange объявляет durable topic exchange.
// Нужен и publisher'у: публикация в несуществующий exchange закрывает канал.
func DeclareExchange(ch Channel, exchange string) error {
	err := ch.ExchangeDeclare(
		exchange,           // name
		amqp.ExchangeTopic, // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return nil
}

// Setup объявляет exchange, очередь и привязку.
// Операции идемпотентны, повторный вызов при рестарте безопасен.
func (t Topology) Setup(ch Channel) error {
	// 1. Exchange
	if err := DeclareExchange(ch, t.Exchange); err != nil {
		return err
	}

	// 2. Queue
	_, err := ch.QueueDeclare(
		t.Queue, // name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", t.Queue, err)
	}

	// 3. Binding
	err = ch.QueueBind(
		t.Queue,      // queue name
		t.RoutingKey, // routing key
		t.Exchange,   // exchange
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", t.Queue, t.Exchange, err)
	}

	return nil
}

// String возвращает описание топологии для логирования.
func (t Topology) String() string {
	return fmt.Sprintf("%s (topic) -> %s [routing: %s]", t.Exchange, t.Queue, t.RoutingKey)
}
