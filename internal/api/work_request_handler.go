package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/hrm/internal/telemetry"
)

// ListWorkRequests возвращает последние work requests.
// GET /api/v1/work-requests?limit=N
func (h *Handler) ListWorkRequests(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(w, r, "invalid limit")
			return
		}
		limit = n
	}

	items, err := h.workRequests.List(r.Context(), limit)
	if handleServiceError(w, r, h.logger, err) {
		return
	}

	result := make([]WorkRequestResponse, len(items))
	for i, wr := range items {
		result[i] = WorkRequestFromDomain(wr)
	}

	respondList(w, result, len(result))
}

// CreateWorkRequest создаёт work request и публикует событие.
// POST /api/v1/work-requests
func (h *Handler) CreateWorkRequest(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	correlationID := telemetry.CorrelationIDFromContext(r.Context())

	created, err := h.workRequests.Create(r.Context(), req.Title, req.Description, correlationID)
	if handleServiceError(w, r, h.logger, err) {
		return
	}

	respondCreated(w, CreateWorkRequestResponse{
		ID:            created.WorkRequest.ID,
		EventID:       created.EventID,
		CorrelationID: created.CorrelationID,
	})
}

// GetWorkRequest возвращает work request по ID.
// GET /api/v1/work-requests/{id}
func (h *Handler) GetWorkRequest(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		badRequest(w, r, "invalid work request id")
		return
	}

	wr, err := h.workRequests.Get(r.Context(), id)
	if handleServiceError(w, r, h.logger, err) {
		return
	}

	respondOK(w, WorkRequestFromDomain(*wr))
}
