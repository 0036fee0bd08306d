package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/hrm/internal/domain"
	"github.com/shaiso/hrm/internal/workrequest"
)

// WorkRequests — сценарии work requests, нужные API.
// Реализуется *workrequest.Service.
type WorkRequests interface {
	Create(ctx context.Context, title, description, correlationID string) (*workrequest.Created, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.WorkRequest, error)
	List(ctx context.Context, limit int) ([]domain.WorkRequest, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	workRequests WorkRequests
	logger       *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	WorkRequests WorkRequests
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		workRequests: cfg.WorkRequests,
		logger:       logger,
	}
}
