// HRM Worker — обрабатывает события WorkRequestCreated.
//
// Worker:
//   - Подключается к RabbitMQ (одна попытка, ошибка фатальна)
//   - Объявляет топологию и потребляет очередь с ручным ack
//   - Для каждого сообщения проводит work request через
//     Planner → Manager → Executor
//   - По желанию публикует task.completed и архивирует результат в S3
//
// Разрыв соединения с брокером завершает процесс с кодом 1.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/hrm/internal/cache"
	"github.com/shaiso/hrm/internal/config"
	"github.com/shaiso/hrm/internal/llm"
	"github.com/shaiso/hrm/internal/mq"
	"github.com/shaiso/hrm/internal/repo"
	"github.com/shaiso/hrm/internal/storage"
	"github.com/shaiso/hrm/internal/telemetry"
	"github.com/shaiso/hrm/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		telemetry.SetupLogger(config.Logging{}).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Инициализируем structured logging
	logger := telemetry.SetupLogger(cfg.Logging)
	logger.Info("starting hrm-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// RabbitMQ: одна попытка
	mqConn, err := mq.Connect(ctx, cfg.Rabbit, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.DB)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// Redis (необязательно)
	var workRequestCache cache.Cache
	if cfg.Redis.Addr != "" {
		client, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("redis not available, reading work requests from database only", "error", err)
		} else {
			defer client.Close()
			workRequestCache = cache.NewRedis(client, "hrm:")
			logger.Info("redis connected", "addr", cfg.Redis.Addr)
		}
	}

	newReader := func() worker.WorkRequestReader {
		r := repo.NewWorkRequestRepo(pool)
		if workRequestCache == nil {
			return r
		}
		return repo.NewCachedWorkRequests(r, workRequestCache, cfg.Redis.TTL, logger)
	}

	// LLM
	completer, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		logger.Error("failed to create llm completer", "provider", cfg.LLM.Provider, "error", err)
		os.Exit(1)
	}
	logger.Info("llm provider configured", "provider", cfg.LLM.Provider)

	// Completion sinks
	var sinks []worker.CompletionSink
	if cfg.Worker.PublishCompleted {
		if err := mqConn.WithChannel(func(ch mq.Channel) error {
			return mq.DeclareExchange(ch, cfg.Rabbit.Exchange)
		}); err != nil {
			logger.Error("failed to declare exchange", "error", err)
			os.Exit(1)
		}
		publisher := mq.NewPublisher(mqConn, cfg.Rabbit.Exchange, logger)
		sinks = append(sinks, worker.NewPublishSink(publisher, cfg.Worker.CompletedKey))
	}
	if cfg.S3.Bucket != "" {
		s3Client, err := storage.NewS3Client(ctx, cfg.S3)
		if err != nil {
			logger.Error("failed to create s3 client", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, worker.NewArchiveSink(storage.NewResultArchive(s3Client, cfg.S3.Bucket)))
		logger.Info("result archive enabled", "bucket", cfg.S3.Bucket)
	}

	// Создаём worker
	w := worker.New(worker.Config{
		Channels:        mqConn,
		Topology:        mq.TopologyFromConfig(cfg.Rabbit),
		Prefetch:        cfg.Rabbit.Prefetch,
		Scopes:          worker.NewScopeFactory(newReader, completer),
		Orchestrator:    worker.NewOrchestrator(sinks...),
		MalformedPolicy: cfg.Worker.MalformedPolicy,
		Logger:          logger,
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		if !mqConn.IsConnected() {
			rw.WriteHeader(http.StatusServiceUnavailable)
			rw.Write([]byte("rabbitmq disconnected"))
			return
		}
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":" + cfg.Worker.Port

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения или потерю брокера
	exitCode := 0
	select {
	case <-ctx.Done():
	case <-mqConn.Done():
		logger.Error("RabbitMQ connection lost", "error", mqConn.Err())
		exitCode = 1
	case err := <-w.Errors():
		logger.Error("consumer stopped", "error", err)
		exitCode = 1
	}

	// Обработчики в работе не дожидаются: их сообщения вернутся в очередь
	w.Stop()
	mqConn.Close()
	logger.Info("hrm-worker stopped")

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
