// Package worker обрабатывает события WorkRequestCreated.
//
// # Обзор
//
// Worker подписывается на очередь (по умолчанию hrm.worker, ключ
// workrequest.created) и для каждого сообщения:
//
//  1. Разбирает payload (events.DecodeWorkRequestCreated)
//  2. Назначает correlation id: payload → AMQP CorrelationId → новый
//  3. Создаёт свежий Scope (репозиторий + агенты)
//  4. Передаёт событие Orchestrator'у
//  5. Переводит результат в ack/nack
//
// # Стадии
//
//	Received → Resolved → Planned → Executed → Done
//	Received → NotFound → Dropped
//
// Ошибка чтения или агента — *StageError, сообщение возвращается в очередь
// без задержки и без лимита попыток. Отсутствующий work request —
// ErrWorkRequestNotFound, сообщение подтверждается и отбрасывается.
//
// # Нераспознанные сообщения
//
// По умолчанию (MalformedRequeue) возвращаются в очередь и будут
// доставляться снова. С MalformedDiscard подтверждаются и отбрасываются.
//
// # Завершение
//
// После успешной обработки результат передаётся CompletionSink'ам:
// PublishSink (событие task.completed) и ArchiveSink (S3). Их ошибки
// только логируются.
//
//	w := worker.New(worker.Config{
//	    Channels:     conn,
//	    Topology:     mq.TopologyFromConfig(cfg.Rabbit),
//	    Prefetch:     cfg.Rabbit.Prefetch,
//	    Scopes:       worker.NewScopeFactory(newReader, completer),
//	    Orchestrator: worker.NewOrchestrator(sinks...),
//	    Logger:       logger,
//	})
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
package worker
