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
	"github.com/tallyhq/tally/internal/todo"
)

// CreateTaskRequest is the request body for creating a task.
type CreateTaskRequest struct {
	Title   string `json:"title"`
	Notes   string `json:"notes,omitempty"`
	Ordinal int    `json:"ordinal,omitempty"`
}

// UpdateTaskRequest carries optional field updates; nil fields are left
// unchanged.
type UpdateTaskRequest struct {
	Title   *string `json:"title,omitempty"`
	Notes   *string `json:"notes,omitempty"`
	Status  *string `json:"status,omitempty"`
	Ordinal *int    `json:"ordinal,omitempty"`
}

// AddRemarkRequest is the request body for appending a remark.
type AddRemarkRequest struct {
	Body string `json:"body"`
}

// taskWithRole loads the task and checks the caller holds role on its project.
func (h *Handler) taskWithRole(r *http.Request, role string) (*models.Task, error) {
	task, err := h.db.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.CodeProjectNotFound, "task not found")
		}
		return nil, err
	}
	if _, err := h.auth.Authorize(r.Context(), task.ProjectID, userFrom(r.Context()).ID, role); err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks handles GET /api/projects/{id}/tasks.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if _, err := h.auth.Authorize(r.Context(), projectID, userFrom(r.Context()).ID, models.RoleViewer); err != nil {
		writeError(w, r, err)
		return
	}
	tasks, err := h.db.ListTasks(r.Context(), projectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// CreateTask handles POST /api/projects/{id}/tasks.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if _, err := h.auth.Authorize(r.Context(), projectID, userFrom(r.Context()).ID, models.RoleEditor); err != nil {
		writeError(w, r, err)
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, r, apperr.New(apperr.CodeInvalidRequest, "invalid JSON body"))
		return
	}
	if req.Title == "" {
		writeError(w, r, apperr.New(apperr.CodeInvalidRequest, "title is required"))
		return
	}

	now := time.Now().UTC()
	t := models.Task{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Title:     req.Title,
		Notes:     req.Notes,
		Status:    models.TaskOpen,
		Ordinal:   req.Ordinal,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.db.CreateTask(r.Context(), t); err != nil {
		writeError(w, r, err)
		return
	}
	h.publish("task.created", projectID, t.ID)
	writeJSON(w, http.StatusCreated, t)
}

// UpdateTask handles PATCH /api/tasks/{id}.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskWithRole(r, models.RoleEditor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, r, apperr.New(apperr.CodeInvalidRequest, "invalid JSON body"))
		return
	}
	if req.Title != nil {
		if *req.Title == "" {
			writeError(w, r, apperr.New(apperr.CodeInvalidRequest, "title cannot be empty"))
			return
		}
		task.Title = *req.Title
	}
	if req.Notes != nil {
		task.Notes = *req.Notes
	}
	if req.Status != nil {
		if *req.Status != models.TaskOpen && *req.Status != models.TaskDone {
			writeError(w, r, apperr.New(apperr.CodeInvalidRequest, "status must be open or done"))
			return
		}
		task.Status = *req.Status
	}
	if req.Ordinal != nil {
		task.Ordinal = *req.Ordinal
	}
	task.UpdatedAt = time.Now().UTC()

	if err := h.db.UpdateTask(r.Context(), *task); err != nil {
		writeError(w, r, err)
		return
	}
	h.publish("task.updated", task.ProjectID, task.ID)
	writeJSON(w, http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/{id}.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskWithRole(r, models.RoleEditor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.db.DeleteTask(r.Context(), task.ID); err != nil {
		writeError(w, r, err)
		return
	}
	h.publish("task.deleted", task.ProjectID, task.ID)
	w.WriteHeader(http.StatusNoContent)
}

// ListRemarks handles GET /api/tasks/{id}/remarks.
func (h *Handler) ListRemarks(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskWithRole(r, models.RoleViewer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	remarks, err := h.db.ListRemarks(r.Context(), task.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if remarks == nil {
		remarks = []models.Remark{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"remarks": remarks})
}

// AddRemark handles POST /api/tasks/{id}/remarks.
func (h *Handler) AddRemark(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskWithRole(r, models.RoleEditor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req AddRemarkRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, r, apperr.New(apperr.CodeInvalidRequest, "invalid JSON body"))
		return
	}
	if req.Body == "" {
		writeError(w, r, apperr.New(apperr.CodeInvalidRequest, "body is required"))
		return
	}

	remark := models.Remark{
		ID:        uuid.NewString(),
		TaskID:    task.ID,
		AuthorID:  userFrom(r.Context()).ID,
		Body:      req.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.db.AddRemark(r.Context(), remark); err != nil {
		writeError(w, r, err)
		return
	}
	h.publish("remark.created", task.ProjectID, remark.ID)
	writeJSON(w, http.StatusCreated, remark)
}

// RunAITodo handles POST /api/tasks/{id}/ai-run: it executes the oldest
// queued AI To-Do on the task synchronously.
func (h *Handler) RunAITodo(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskWithRole(r, models.RoleEditor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.executor.RunTask(r.Context(), task.ID)
	if err != nil {
		if errors.Is(err, todo.ErrNoQueuedTodo) {
			writeError(w, r, apperr.New(apperr.CodeInvalidRequest, "task has no queued ai-todo"))
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
