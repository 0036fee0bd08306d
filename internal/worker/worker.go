package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shaiso/hrm/internal/mq"
)

// Политики обработки нераспознанных сообщений.
const (
	MalformedRequeue = "requeue"
	MalformedDiscard = "discard"
)

// Worker потребляет события WorkRequestCreated и передаёт их Orchestrator'у.
//
// Worker:
//   - Объявляет топологию (exchange, queue, binding)
//   - Запускает consumer с ручным ack и prefetch
//   - Для каждого сообщения создаёт свежий Scope
//   - Переводит результат обработки в ack/nack
type Worker struct {
	channels     mq.ChannelProvider
	topology     mq.Topology
	prefetch     int
	scopes       ScopeFactory
	orchestrator *Orchestrator
	malformed    string

	consumer *mq.Consumer
	errCh    chan error

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	// MQ
	Channels mq.ChannelProvider
	Topology mq.Topology
	Prefetch int

	// Обработка
	Scopes       ScopeFactory
	Orchestrator *Orchestrator

	// MalformedPolicy — requeue (по умолчанию) или discard.
	MalformedPolicy string

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	orchestrator := cfg.Orchestrator
	if orchestrator == nil {
		orchestrator = NewOrchestrator()
	}

	malformed := cfg.MalformedPolicy
	if malformed == "" {
		malformed = MalformedRequeue
	}

	return &Worker{
		channels:     cfg.Channels,
		topology:     cfg.Topology,
		prefetch:     cfg.Prefetch,
		scopes:       cfg.Scopes,
		orchestrator: orchestrator,
		malformed:    malformed,
		errCh:        make(chan error, 1),
		logger:       logger,
	}
}

// Start объявляет топологию и запускает consumer.
//
// Ошибка объявления топологии возвращается сразу. Завершение consumer'а
// по любой причине, кроме остановки, приходит в Errors().
func (w *Worker) Start(ctx context.Context) error {
	if err := w.channels.WithChannel(w.topology.Setup); err != nil {
		return fmt.Errorf("setup topology: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.consumer = mq.NewConsumer(w.channels, w.logger, mq.ConsumerConfig{
		Queue:    w.topology.Queue,
		Handler:  w.handleWorkRequestCreated,
		Prefetch: w.prefetch,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		err := w.consumer.Start(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("work request consumer error", "error", err)
			w.errCh <- err
		}
	}()

	w.logger.Info("worker started",
		"topology", w.topology.String(),
		"prefetch", w.prefetch,
		"malformed_policy", w.malformed,
	)
	return nil
}

// Errors возвращает канал с ошибкой, остановившей consumer.
func (w *Worker) Errors() <-chan error {
	return w.errCh
}

// Stop прекращает приём сообщений. Уже запущенные обработчики не
// дожидаются: неподтверждённые сообщения брокер доставит повторно.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	if w.consumer != nil {
		w.consumer.Stop()
	}

	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}
