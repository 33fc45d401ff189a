// Package models holds the persisted record types shared across the store,
// services, and API layers.
package models

import "time"

// Membership roles, ordered by privilege.
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleOwner  = "owner"
)

// Task statuses.
const (
	TaskOpen = "open"
	TaskDone = "done"
)

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is an authenticated browser session. Token is the opaque value
// stored in the session cookie.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Project is a shared checklist.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Membership ties a user to a project with a role.
type Membership struct {
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Invite is a single-use join token for a project.
type Invite struct {
	Token     string    `json:"token"`
	ProjectID string    `json:"project_id"`
	Role      string    `json:"role"`
	CreatedBy string    `json:"created_by"`
	UsedBy    string    `json:"used_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Task is one checklist item.
type Task struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes,omitempty"`
	Status    string    `json:"status"`
	Ordinal   int       `json:"ordinal"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Remark is a free-text comment on a task. The body may embed the
// [ai-todo|<status>] tag convention.
type Remark struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Report holds AI-generated markdown and metadata for a project summary.
type Report struct {
	ID              string            `json:"id"`
	ProjectID       string            `json:"project_id"`
	Type            string            `json:"type"`
	FilterSignature string            `json:"filter_signature"`
	Markdown        string            `json:"markdown"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Document is an ingested file attached to a project.
type Document struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Filename  string    `json:"filename"`
	BlobPath  string    `json:"blob_path"`
	Text      string    `json:"text,omitempty"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// RoleAtLeast reports whether have grants the privileges of want.
func RoleAtLeast(have, want string) bool {
	return roleRank(have) >= roleRank(want)
}

func roleRank(role string) int {
	switch role {
	case RoleOwner:
		return 3
	case RoleEditor:
		return 2
	case RoleViewer:
		return 1
	default:
		return 0
	}
}
