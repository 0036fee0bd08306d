package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shaiso/hrm/internal/domain"
	"github.com/shaiso/hrm/internal/events"
	"github.com/shaiso/hrm/internal/repo"
	"github.com/shaiso/hrm/internal/telemetry"
)

// Completion — результат успешной обработки work request.
type Completion struct {
	WorkRequest *domain.WorkRequest
	Event       events.WorkRequestCreated
	Plan        string
	Result      string
	CompletedAt time.Time
}

// CompletionSink получает результат после успешной обработки.
// Ошибка sink'а логируется и не влияет на судьбу сообщения.
type CompletionSink interface {
	Name() string
	OnCompleted(ctx context.Context, c Completion) error
}

// Orchestrator проводит work request через Planner → Manager → Executor.
type Orchestrator struct {
	sinks []CompletionSink
	now   func() time.Time
}

// NewOrchestrator создаёт Orchestrator с необязательными sink'ами.
func NewOrchestrator(sinks ...CompletionSink) *Orchestrator {
	return &Orchestrator{sinks: sinks, now: time.Now}
}

// Process обрабатывает одно событие WorkRequestCreated.
//
// Логгер берётся из ctx и должен уже содержать correlation_id.
// Возвращает ErrWorkRequestNotFound, если записи нет, и *StageError
// при сбое чтения или агентов.
func (o *Orchestrator) Process(ctx context.Context, scope *Scope, evt events.WorkRequestCreated) error {
	logger := telemetry.FromContext(ctx)
	logger.Info("processing work request", "stage", StageReceived, "title", evt.Title)

	// 1. Загружаем work request
	wr, err := scope.Requests.GetByID(ctx, evt.WorkRequestID)
	if errors.Is(err, repo.ErrNotFound) {
		logger.Warn("work request not found, dropping message", "stage", StageNotFound)
		return fmt.Errorf("%w: %s", ErrWorkRequestNotFound, evt.WorkRequestID)
	}
	if err != nil {
		return o.fail(ctx, StageResolved, err)
	}
	logger.Debug("work request resolved", "stage", StageResolved)

	// 2. План
	plan, err := scope.Agents.Planner.CreatePlan(ctx, wr)
	if err != nil {
		return o.fail(ctx, StagePlanned, err)
	}
	logger.Info("plan created", "stage", StagePlanned, "plan", plan)

	// 3. Исполнение плана
	result, err := scope.Agents.Manager.ExecutePlan(ctx, wr, plan)
	if err != nil {
		return o.fail(ctx, StageExecuted, err)
	}
	logger.Info("work request completed", "stage", StageDone, "result", result)

	o.complete(ctx, Completion{
		WorkRequest: wr,
		Event:       evt,
		Plan:        plan,
		Result:      result,
		CompletedAt: o.now().UTC(),
	})
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, stage Stage, err error) error {
	telemetry.StageFailures.WithLabelValues(string(stage)).Inc()
	telemetry.FromContext(ctx).Error("work request processing failed", "stage", stage, "error", err)
	return &StageError{Stage: stage, Err: err}
}

// complete передаёт результат всем sink'ам.
func (o *Orchestrator) complete(ctx context.Context, c Completion) {
	for _, sink := range o.sinks {
		if err := sink.OnCompleted(ctx, c); err != nil {
			// Результат уже получен; повторная обработка ради sink'а не нужна
			telemetry.FromContext(ctx).Warn("completion sink failed", "sink", sink.Name(), "error", err)
		}
	}
}
