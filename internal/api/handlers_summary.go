package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tallyhq/tally/internal/apperr"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/summary"
)

// Summarize handles POST /api/ai/summary.
//
// Body: {projectId, filter?, filterSignature, force?}.
// Response: {report, reusedExisting} or the error envelope.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req summary.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, r, apperr.New(apperr.CodeInvalidRequest, "invalid JSON body"))
		return
	}
	result, err := h.coordinator.Summarize(r.Context(), userFrom(r.Context()).ID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !result.ReusedExisting {
		h.publish("report.created", req.ProjectID, result.Report.ID)
	}
	writeJSON(w, http.StatusOK, result)
}

// ListReports handles GET /api/projects/{id}/reports.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if _, err := h.auth.Authorize(r.Context(), projectID, userFrom(r.Context()).ID, models.RoleViewer); err != nil {
		writeError(w, r, err)
		return
	}
	reports, err := h.db.ListReports(r.Context(), projectID, 50)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}
