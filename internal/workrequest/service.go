// Package workrequest — создание work request и публикация события о нём.
package workrequest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/hrm/internal/domain"
	"github.com/shaiso/hrm/internal/events"
	"github.com/shaiso/hrm/internal/telemetry"
)

// Store сохраняет и читает work requests.
type Store interface {
	Create(ctx context.Context, wr *domain.WorkRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkRequest, error)
	List(ctx context.Context, limit int) ([]domain.WorkRequest, error)
}

// EventPublisher публикует интеграционные события. Реализуется *mq.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, evt events.Event) error
}

// Service — сценарии работы с work requests.
type Service struct {
	store      Store
	publisher  EventPublisher
	routingKey string
	logger     *slog.Logger
}

// NewService создаёт Service. routingKey — ключ события WorkRequestCreated.
func NewService(store Store, publisher EventPublisher, routingKey string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      store,
		publisher:  publisher,
		routingKey: routingKey,
		logger:     logger,
	}
}

// Created — результат Create.
type Created struct {
	WorkRequest   *domain.WorkRequest
	EventID       uuid.UUID
	CorrelationID string
}

// Create сохраняет work request и публикует WorkRequestCreated.
//
// Запись и публикация не атомарны: если публикация не удалась, строка
// уже сохранена, а событие потеряно. Ошибка публикации возвращается.
func (s *Service) Create(ctx context.Context, title, description, correlationID string) (*Created, error) {
	correlationID = telemetry.EnsureCorrelationID(correlationID, telemetry.CorrelationIDFromContext(ctx))

	wr, err := domain.NewWorkRequest(title, description)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, wr); err != nil {
		return nil, fmt.Errorf("save work request: %w", err)
	}

	logger := telemetry.WithWorkRequestID(telemetry.WithCorrelationID(s.logger, correlationID), wr.ID.String())

	evt := events.NewWorkRequestCreated(wr.ID, wr.Title, correlationID)
	if err := s.publisher.Publish(ctx, s.routingKey, evt); err != nil {
		logger.Error("work request saved but event not published", "error", err)
		return nil, fmt.Errorf("publish work request created: %w", err)
	}

	logger.Info("work request created", "event_id", evt.EventID)

	return &Created{
		WorkRequest:   wr,
		EventID:       evt.EventID,
		CorrelationID: correlationID,
	}, nil
}

// Get возвращает work request по ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.WorkRequest, error) {
	return s.store.GetByID(ctx, id)
}

// List возвращает последние work requests.
func (s *Service) List(ctx context.Context, limit int) ([]domain.WorkRequest, error) {
	return s.store.List(ctx, limit)
}
