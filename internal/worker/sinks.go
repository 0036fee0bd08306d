package worker

import (
	"context"

	"github.com/shaiso/hrm/internal/events"
	"github.com/shaiso/hrm/internal/storage"
	"github.com/shaiso/hrm/internal/telemetry"
)

// EventPublisher публикует интеграционные события. Реализуется *mq.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, evt events.Event) error
}

// PublishSink публикует TaskCompleted после успешной обработки.
type PublishSink struct {
	publisher  EventPublisher
	routingKey string
}

// NewPublishSink создаёт PublishSink.
func NewPublishSink(publisher EventPublisher, routingKey string) *PublishSink {
	return &PublishSink{publisher: publisher, routingKey: routingKey}
}

// Name реализует CompletionSink.
func (s *PublishSink) Name() string { return "publish" }

// OnCompleted реализует CompletionSink.
func (s *PublishSink) OnCompleted(ctx context.Context, c Completion) error {
	evt := events.NewTaskCompleted(c.WorkRequest.ID, c.Result, c.Event.CorrelationID)
	if err := s.publisher.Publish(ctx, s.routingKey, evt); err != nil {
		return err
	}

	telemetry.FromContext(ctx).Debug("task.completed published", "event_id", evt.EventID)
	return nil
}

// Archiver сохраняет запись о результате. Реализуется *storage.ResultArchive.
type Archiver interface {
	Save(ctx context.Context, rec storage.Record) (string, error)
}

// ArchiveSink сохраняет план и результат в объектное хранилище.
type ArchiveSink struct {
	archive Archiver
}

// NewArchiveSink создаёт ArchiveSink.
func NewArchiveSink(archive Archiver) *ArchiveSink {
	return &ArchiveSink{archive: archive}
}

// Name реализует CompletionSink.
func (s *ArchiveSink) Name() string { return "archive" }

// OnCompleted реализует CompletionSink.
func (s *ArchiveSink) OnCompleted(ctx context.Context, c Completion) error {
	key, err := s.archive.Save(ctx, storage.Record{
		WorkRequestID: c.WorkRequest.ID,
		EventID:       c.Event.EventID,
		CorrelationID: c.Event.CorrelationID,
		Title:         c.WorkRequest.Title,
		Plan:          c.Plan,
		Result:        c.Result,
		CompletedAt:   c.CompletedAt,
	})
	if err != nil {
		return err
	}

	telemetry.FromContext(ctx).Info("result archived", "key", key)
	return nil
}
