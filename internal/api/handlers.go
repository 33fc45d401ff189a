package api

import (
	"github.com/tallyhq/tally/internal/auth"
	"github.com/tallyhq/tally/internal/ingest"
	"github.com/tallyhq/tally/internal/sse"
	"github.com/tallyhq/tally/internal/store"
	"github.com/tallyhq/tally/internal/summary"
	"github.com/tallyhq/tally/internal/todo"
)

// Handler holds API route handlers and their collaborators.
type Handler struct {
	db          *store.DB
	auth        *auth.Service
	coordinator *summary.Coordinator
	executor    *todo.Executor
	ingest      *ingest.Service
	broker      *sse.Broker
}

// NewHandler creates a new Handler. broker may be nil when SSE is disabled.
func NewHandler(db *store.DB, authSvc *auth.Service, coordinator *summary.Coordinator, executor *todo.Executor, ingestSvc *ingest.Service, broker *sse.Broker) *Handler {
	return &Handler{
		db:          db,
		auth:        authSvc,
		coordinator: coordinator,
		executor:    executor,
		ingest:      ingestSvc,
		broker:      broker,
	}
}

// publish broadcasts a change event when the broker is attached.
func (h *Handler) publish(kind, projectID, id string) {
	if h.broker != nil {
		h.broker.PublishChange(kind, projectID, id)
	}
}
