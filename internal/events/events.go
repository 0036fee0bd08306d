// Package events описывает интеграционные события, которыми обмениваются
// API и worker через брокер.
//
// Формат — плоский JSON без версии. Имена полей в PascalCase, при чтении
// регистр не учитывается (так работает encoding/json).
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// IntegrationEvent — общие поля всех событий.
type IntegrationEvent struct {
	// EventID — уникальный идентификатор события, не переиспользуется.
	EventID uuid.UUID `json:"EventId"`

	// OccurredUTC — время создания события (UTC).
	OccurredUTC time.Time `json:"OccurredUtc"`

	// CorrelationID — сквозной id операции.
	CorrelationID string `json:"CorrelationId"`
}

// Envelope возвращает общие поля события.
func (e IntegrationEvent) Envelope() IntegrationEvent {
	return e
}

// Event — любое интеграционное событие.
type Event interface {
	Envelope() IntegrationEvent
}

// WorkRequestCreated публикуется API после сохранения нового work request.
// Потребитель: Worker.
type WorkRequestCreated struct {
	IntegrationEvent

	WorkRequestID uuid.UUID `json:"WorkRequestId"`
	Title         string    `json:"Title"`
}

// TaskCompleted публикуется worker'ом после успешной обработки
// (только при WORKER_PUBLISH_COMPLETED=true).
type TaskCompleted struct {
	IntegrationEvent

	WorkRequestID uuid.UUID `json:"WorkRequestId"`
	Success       bool      `json:"Success"`
	Result        string    `json:"Result"`
}

// NewEnvelope создаёт общие поля события с новым EventID.
func NewEnvelope(correlationID string) IntegrationEvent {
	return IntegrationEvent{
		EventID:       uuid.New(),
		OccurredUTC:   defaultClock.Now(),
		CorrelationID: correlationID,
	}
}

// NewWorkRequestCreated создаёт событие о новом work request.
func NewWorkRequestCreated(workRequestID uuid.UUID, title, correlationID string) WorkRequestCreated {
	return WorkRequestCreated{
		IntegrationEvent: NewEnvelope(correlationID),
		WorkRequestID:    workRequestID,
		Title:            title,
	}
}

// NewTaskCompleted создаёт событие о завершённой обработке.
func NewTaskCompleted(workRequestID uuid.UUID, result, correlationID string) TaskCompleted {
	return TaskCompleted{
		IntegrationEvent: NewEnvelope(correlationID),
		WorkRequestID:    workRequestID,
		Success:          true,
		Result:           result,
	}
}

// Clock выдаёт неубывающие UTC-метки времени в пределах одного producer'а.
// Если системные часы откатились назад, возвращается предыдущее значение.
type Clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// NewClock создаёт Clock поверх функции now (nil — time.Now).
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Now возвращает текущее время, не меньшее предыдущего результата.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC()
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}

var defaultClock = NewClock(nil)
