package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tallyhq/tally/internal/apperr"
	"github.com/tallyhq/tally/internal/models"
)

// maxUploadBytes caps document uploads at 50 MB.
const maxUploadBytes = 50 << 20

// UploadDocument handles POST /api/projects/{id}/documents (multipart form
// with a "file" field).
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if _, err := h.auth.Authorize(r.Context(), projectID, userFrom(r.Context()).ID, models.RoleEditor); err != nil {
		writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, apperr.New(apperr.CodeInvalidRequest, "invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, apperr.New(apperr.CodeInvalidRequest, "file field is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, apperr.Wrap(apperr.CodeInvalidRequest, "failed to read upload", err))
		return
	}

	doc, err := h.ingest.Ingest(r.Context(), projectID, header.Filename, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.publish("document.created", projectID, doc.ID)
	writeJSON(w, http.StatusCreated, doc)
}

// ListDocuments handles GET /api/projects/{id}/documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if _, err := h.auth.Authorize(r.Context(), projectID, userFrom(r.Context()).ID, models.RoleViewer); err != nil {
		writeError(w, r, err)
		return
	}
	docs, err := h.db.ListDocuments(r.Context(), projectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}
