package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/hrm/internal/domain"
)

// CreateWorkRequestRequest — запрос на создание work request.
type CreateWorkRequestRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CreateWorkRequestResponse — ответ на создание work request.
type CreateWorkRequestResponse struct {
	ID            uuid.UUID `json:"id"`
	EventID       uuid.UUID `json:"event_id"`
	CorrelationID string    `json:"correlation_id"`
}

// WorkRequestResponse — ответ с work request.
type WorkRequestResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// WorkRequestFromDomain конвертирует domain.WorkRequest в ответ.
func WorkRequestFromDomain(wr domain.WorkRequest) WorkRequestResponse {
	return WorkRequestResponse{
		ID:          wr.ID,
		Title:       wr.Title,
		Description: wr.Description,
		CreatedAt:   wr.CreatedAt,
	}
}
