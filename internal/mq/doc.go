// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (одна попытка, без reconnect)
//   - topology.go   — объявление exchange, queue, binding
//   - publisher.go  — публикация интеграционных событий
//   - consumer.go   — потребление с prefetch и ручным ack/nack
//
// Топология по умолчанию:
//
//	hrm.events (topic, durable)
//	└── hrm.worker [routing: workrequest.created]
//	        Consumer: Worker
//
// Гарантии доставки — at-least-once. Повторы выполняет брокер (nack с
// requeue), backoff и dead-letter очереди не используются.
package mq
