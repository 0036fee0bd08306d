package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/hrm/internal/domain"
	"github.com/shaiso/hrm/internal/repo"
	"github.com/shaiso/hrm/internal/telemetry"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse — тело ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки. CorrelationID совпадает с заголовком
// X-Correlation-Id, по нему ошибку можно найти в логах.
type ErrorDetail struct {
	Code          ErrorCode `json:"code"`
	Message       string    `json:"message"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// DataResponse — тело успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — тело ответа со списком.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, DataResponse{Data: data})
}

func respondCreated(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, DataResponse{Data: data})
}

func respondList(w http.ResponseWriter, data any, total int) {
	writeJSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:          code,
			Message:       message,
			CorrelationID: telemetry.CorrelationIDFromContext(r.Context()),
		},
	})
}

func badRequest(w http.ResponseWriter, r *http.Request, message string) {
	respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// internalError логирует причину и отдаёт клиенту 500 без подробностей.
func internalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.Error("internal error",
		"error", err,
		"path", r.URL.Path,
		"correlation_id", telemetry.CorrelationIDFromContext(r.Context()),
	)
	respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// handleServiceError превращает ошибку сервиса work requests в HTTP ответ.
// Возвращает false, если ошибки не было.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, domain.ErrTitleRequired):
		badRequest(w, r, "title is required")
	case errors.Is(err, repo.ErrNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "work request not found")
	case errors.Is(err, repo.ErrAlreadyExists):
		respondError(w, r, http.StatusConflict, ErrCodeConflict, "work request already exists")
	default:
		internalError(w, r, logger, err)
	}
	return true
}
