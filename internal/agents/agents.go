// Package agents — цепочка Planner → Manager → Executor.
//
// Planner строит план по work request, Manager передаёт план Executor'у,
// Executor выполняет шаг через llm.Completer. Агенты не хранят состояние
// и создаются заново для каждого сообщения (см. worker.Scope).
//
// Все логи пишутся в логгер из контекста (telemetry.FromContext), поэтому
// несут correlation_id сообщения.
package agents

import (
	"context"
	"fmt"

	"github.com/shaiso/hrm/internal/domain"
	"github.com/shaiso/hrm/internal/llm"
	"github.com/shaiso/hrm/internal/telemetry"
)

// PlannerAgent строит план по work request.
type PlannerAgent interface {
	CreatePlan(ctx context.Context, wr *domain.WorkRequest) (string, error)
}

// ManagerAgent исполняет план и возвращает итоговый результат.
type ManagerAgent interface {
	ExecutePlan(ctx context.Context, wr *domain.WorkRequest, plan string) (string, error)
}

// ExecutorAgent выполняет одну задачу.
type ExecutorAgent interface {
	ExecuteTask(ctx context.Context, task string) (string, error)
}

// Planner — PlannerAgent поверх llm.Completer.
type Planner struct {
	completer llm.Completer
}

// NewPlanner создаёт Planner.
func NewPlanner(completer llm.Completer) *Planner {
	return &Planner{completer: completer}
}

// PlanPrompt формирует промпт планировщика.
func PlanPrompt(wr *domain.WorkRequest) string {
	return fmt.Sprintf(
		"Create a simple step-by-step sequential plan to fulfill this request:\n"+
			"Title: %s\nDescription: %s\n"+
			"Respond strictly with the plan text. Do not over-explain.",
		wr.Title, wr.Description,
	)
}

// CreatePlan реализует PlannerAgent.
func (p *Planner) CreatePlan(ctx context.Context, wr *domain.WorkRequest) (string, error) {
	telemetry.FromContext(ctx).Info("planner: generating plan", "title", wr.Title)

	plan, err := p.completer.Complete(ctx, PlanPrompt(wr))
	if err != nil {
		return "", fmt.Errorf("create plan: %w", err)
	}
	return plan, nil
}

// Manager — ManagerAgent, передающий весь план одному Executor'у.
//
// План не разбивается на шаги: текст плана произвольный, а декомпозиция
// потребовала бы договорённости о его формате.
type Manager struct {
	executor ExecutorAgent
}

// NewManager создаёт Manager.
func NewManager(executor ExecutorAgent) *Manager {
	return &Manager{executor: executor}
}

// ExecutePlan реализует ManagerAgent.
func (m *Manager) ExecutePlan(ctx context.Context, wr *domain.WorkRequest, plan string) (string, error) {
	logger := telemetry.FromContext(ctx)
	logger.Info("manager: forwarding plan to executor", "plan_length", len(plan))

	result, err := m.executor.ExecuteTask(ctx, plan)
	if err != nil {
		return "", fmt.Errorf("execute plan: %w", err)
	}

	logger.Info("manager: executor finished", "result", result)
	return result, nil
}

// Executor — ExecutorAgent поверх llm.Completer.
type Executor struct {
	completer llm.Completer
}

// NewExecutor создаёт Executor.
func NewExecutor(completer llm.Completer) *Executor {
	return &Executor{completer: completer}
}

// TaskPrompt формирует промпт исполнителя.
func TaskPrompt(task string) string {
	return fmt.Sprintf(
		"Execute the following task/step as an AI agent:\n%s\n"+
			"Provide the exact action result or report on failure.",
		task,
	)
}

// ExecuteTask реализует ExecutorAgent.
func (e *Executor) ExecuteTask(ctx context.Context, task string) (string, error) {
	telemetry.FromContext(ctx).Debug("executor: running task")

	result, err := e.completer.Complete(ctx, TaskPrompt(task))
	if err != nil {
		return "", fmt.Errorf("execute task: %w", err)
	}
	return result, nil
}

// Chain — набор агентов для одного сообщения.
type Chain struct {
	Planner  PlannerAgent
	Manager  ManagerAgent
	Executor ExecutorAgent
}

// NewChain собирает Planner → Manager → Executor над одним Completer.
func NewChain(completer llm.Completer) Chain {
	executor := NewExecutor(completer)
	return Chain{
		Planner:  NewPlanner(completer),
		Manager:  NewManager(executor),
		Executor: executor,
	}
}
