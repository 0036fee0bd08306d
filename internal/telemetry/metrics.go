package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты обработки сообщения (label "outcome").
const (
	OutcomeAcked    = "acked"
	OutcomeDropped  = "dropped"
	OutcomeRequeued = "requeued"
)

var (
	// MessagesTotal — обработанные сообщения по очереди и исходу.
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hrm_worker_messages_total",
		Help: "Messages handled by the worker, by queue and outcome",
	}, []string{"queue", "outcome"})

	// MessagesInFlight — сообщения, обработка которых ещё не завершена.
	MessagesInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hrm_worker_messages_in_flight",
		Help: "Unacknowledged messages currently being handled",
	}, []string{"queue"})

	// HandlerDuration — время обработки одного сообщения.
	HandlerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hrm_worker_handler_duration_seconds",
		Help:    "Time spent handling one delivery",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"queue"})

	// StageFailures — ошибки оркестратора по стадиям.
	StageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hrm_orchestrator_stage_failures_total",
		Help: "Orchestrator failures by pipeline stage",
	}, []string{"stage"})

	// CompletionDuration — длительность вызовов LLM.
	CompletionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hrm_llm_completion_duration_seconds",
		Help:    "Duration of text completion calls",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"provider", "status"})

	// PublishedTotal — опубликованные события.
	PublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hrm_events_published_total",
		Help: "Integration events published, by routing key and status",
	}, []string{"routing_key", "status"})
)
