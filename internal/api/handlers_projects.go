package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/apperr"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/store"
)

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest struct {
	Name string `json:"name"`
}

// CreateInviteRequest is the request body for creating a project invite.
type CreateInviteRequest struct {
	Role string `json:"role"`
}

// CreateProject handles POST /api/projects. The caller becomes the owner.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, r, apperr.New(apperr.CodeInvalidRequest, "invalid JSON body"))
		return
	}
	if req.Name == "" {
		writeError(w, r, apperr.New(apperr.CodeInvalidRequest, "name is required"))
		return
	}
	p := models.Project{
		ID:        uuid.NewString(),
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.db.CreateProject(r.Context(), p, userFrom(r.Context()).ID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// ListProjects handles GET /api/projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.db.ListProjectsForUser(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

// GetProject handles GET /api/projects/{id}.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if _, err := h.auth.Authorize(r.Context(), projectID, userFrom(r.Context()).ID, models.RoleViewer); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.db.GetProject(r.Context(), projectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateInvite handles POST /api/projects/{id}/invites (owner only).
func (h *Handler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	user := userFrom(r.Context())
	if _, err := h.auth.Authorize(r.Context(), projectID, user.ID, models.RoleOwner); err != nil {
		writeError(w, r, err)
		return
	}

	var req CreateInviteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, r, apperr.New(apperr.CodeInvalidRequest, "invalid JSON body"))
		return
	}
	if req.Role == "" {
		req.Role = models.RoleEditor
	}
	if req.Role != models.RoleViewer && req.Role != models.RoleEditor {
		writeError(w, r, apperr.New(apperr.CodeInvalidRequest, "role must be viewer or editor"))
		return
	}

	inv := models.Invite{
		Token:     uuid.NewString(),
		ProjectID: projectID,
		Role:      req.Role,
		CreatedBy: user.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.db.CreateInvite(r.Context(), inv); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// AcceptInvite handles POST /api/invites/{token}/accept.
func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	inv, err := h.db.ClaimInvite(r.Context(), token, userFrom(r.Context()).ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, apperr.Wrap(apperr.CodeInvalidRequest, "invite is invalid or already used", err))
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"project_id": inv.ProjectID,
		"role":       inv.Role,
	})
}
