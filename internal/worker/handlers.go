package worker

import (
	"context"
	"errors"

	"github.com/shaiso/hrm/internal/events"
	"github.com/shaiso/hrm/internal/mq"
	"github.com/shaiso/hrm/internal/telemetry"
)

// handleWorkRequestCreated обрабатывает событие из очереди worker'а.
//
//	nil                    → ack
//	mq.Discard(...)        → ack без повтора (нет записи, discard-политика)
//	любая другая ошибка    → nack с requeue
func (w *Worker) handleWorkRequestCreated(ctx context.Context, delivery *mq.Delivery) error {
	evt, decodeErr := events.DecodeWorkRequestCreated(delivery.Body())

	// Correlation id: payload → свойство/заголовок AMQP → новый
	correlationID := telemetry.EnsureCorrelationID(evt.CorrelationID, delivery.CorrelationID())

	logger := telemetry.WithCorrelationID(w.logger, correlationID)
	if decodeErr == nil {
		logger = telemetry.WithEventID(logger, evt.EventID.String())
		logger = telemetry.WithWorkRequestID(logger, evt.WorkRequestID.String())
	}
	ctx = telemetry.WithLogger(ctx, logger)
	ctx = telemetry.WithCorrelationIDContext(ctx, correlationID)
	delivery.Logger = logger

	if decodeErr != nil {
		logger.Error("failed to decode work request event",
			"policy", w.malformed,
			"redelivered", delivery.Raw.Redelivered,
			"error", decodeErr,
		)
		if w.malformed == MalformedDiscard {
			return mq.Discard(decodeErr)
		}
		return decodeErr
	}

	evt.CorrelationID = correlationID

	err := w.orchestrator.Process(ctx, w.scopes(), evt)
	if errors.Is(err, ErrWorkRequestNotFound) {
		logger.Debug("work request dropped", "stage", StageDropped)
		return mq.Discard(err)
	}
	return err
}
