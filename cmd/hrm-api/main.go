// HRM API — HTTP API для создания work requests.
//
// POST /api/v1/work-requests сохраняет запись и публикует
// WorkRequestCreated в exchange брокера.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/hrm/internal/api"
	"github.com/shaiso/hrm/internal/config"
	"github.com/shaiso/hrm/internal/mq"
	"github.com/shaiso/hrm/internal/repo"
	"github.com/shaiso/hrm/internal/telemetry"
	"github.com/shaiso/hrm/internal/workrequest"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hrm_api_healthz_requests_total",
		Help: "Total health check requests handled by hrm-api",
	})
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		telemetry.SetupLogger(config.Logging{}).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Инициализируем structured logging
	logger := telemetry.SetupLogger(cfg.Logging)
	logger.Info("starting hrm-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Миграции
	if cfg.DB.Migrate {
		if err := repo.Migrate(cfg.DB.URL); err != nil {
			logger.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	// Подключаемся к базе данных
	pool, err := repo.NewPool(ctx, cfg.DB)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// RabbitMQ
	rabbitCfg := cfg.Rabbit
	if rabbitCfg.ConnectionName == "hrm-worker" {
		rabbitCfg.ConnectionName = "hrm-api"
	}
	mqConn, err := mq.Connect(ctx, rabbitCfg, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()

	if err := mqConn.WithChannel(func(ch mq.Channel) error {
		return mq.DeclareExchange(ch, cfg.Rabbit.Exchange)
	}); err != nil {
		logger.Error("failed to declare exchange", "error", err)
		os.Exit(1)
	}

	publisher := mq.NewPublisher(mqConn, cfg.Rabbit.Exchange, logger)
	service := workrequest.NewService(repo.NewWorkRequestRepo(pool), publisher, cfg.Rabbit.RoutingKey, logger)

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		WorkRequests: service,
		Logger:       logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		if !mqConn.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, "rabbitmq disconnected")
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":" + cfg.API.Port

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
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
	}
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	mqConn.Close()
	logger.Info("hrm-api stopped")

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
