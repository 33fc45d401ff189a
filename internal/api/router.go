package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// Register and login stay outside the session middleware; everything else,
// including the SSE endpoint when sseHandler is non-nil, requires a session.
func NewRouter(h *Handler, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()

	// Account endpoints (no session required).
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(h.auth))

		r.Post("/auth/logout", h.Logout)

		// Projects and membership.
		r.Get("/projects", h.ListProjects)
		r.Post("/projects", h.CreateProject)
		r.Get("/projects/{id}", h.GetProject)
		r.Post("/projects/{id}/invites", h.CreateInvite)
		r.Post("/invites/{token}/accept", h.AcceptInvite)

		// Checklist.
		r.Get("/projects/{id}/tasks", h.ListTasks)
		r.Post("/projects/{id}/tasks", h.CreateTask)
		r.Patch("/tasks/{id}", h.UpdateTask)
		r.Delete("/tasks/{id}", h.DeleteTask)
		r.Get("/tasks/{id}/remarks", h.ListRemarks)
		r.Post("/tasks/{id}/remarks", h.AddRemark)

		// AI.
		r.Post("/tasks/{id}/ai-run", h.RunAITodo)
		r.Post("/ai/summary", h.Summarize)
		r.Get("/projects/{id}/reports", h.ListReports)

		// Documents.
		r.Get("/projects/{id}/documents", h.ListDocuments)
		r.Post("/projects/{id}/documents", h.UploadDocument)

		// SSE endpoint (protected by the same session middleware).
		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	return r
}
