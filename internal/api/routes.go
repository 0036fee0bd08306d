package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		CorrelationID(),
		Logging(h.logger),
	)

	// Work requests
	mux.Handle("GET /api/v1/work-requests", chain(http.HandlerFunc(h.ListWorkRequests)))
	mux.Handle("POST /api/v1/work-requests", chain(http.HandlerFunc(h.CreateWorkRequest)))
	mux.Handle("GET /api/v1/work-requests/{id}", chain(http.HandlerFunc(h.GetWorkRequest)))
}
