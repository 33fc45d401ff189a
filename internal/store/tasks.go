package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tallyhq/tally/internal/models"
)

// CreateTask inserts a new task.
func (db *DB) CreateTask(ctx context.Context, t models.Task) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, title, notes, status, ordinal, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.ProjectID, t.Title, t.Notes, t.Status, t.Ordinal, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: create task: %w", err)
	}
	return nil
}

// GetTask returns the task with the given id.
func (db *DB) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, project_id, title, notes, status, ordinal, created_at, updated_at
		FROM tasks WHERE id = ?
	`, id).Scan(&t.ID, &t.ProjectID, &t.Title, &t.Notes, &t.Status, &t.Ordinal, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get task: %w", err)
	}
	return &t, nil
}

// ListTasks returns the project's tasks ordered by ordinal.
func (db *DB) ListTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, project_id, title, notes, status, ordinal, created_at, updated_at
		FROM tasks WHERE project_id = ? ORDER BY ordinal, created_at
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("store: list tasks: %w", err)
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Notes, &t.Status, &t.Ordinal, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTask overwrites the mutable task fields.
func (db *DB) UpdateTask(ctx context.Context, t models.Task) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE tasks SET title = ?, notes = ?, status = ?, ordinal = ?, updated_at = ?
		WHERE id = ?
	`, t.Title, t.Notes, t.Status, t.Ordinal, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("store: update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTask removes a task and its remarks.
func (db *DB) DeleteTask(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM remarks WHERE task_id = ?`, id); err != nil {
		return fmt.Errorf("store: delete remarks: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// AddRemark appends a remark to a task.
func (db *DB) AddRemark(ctx context.Context, r models.Remark) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO remarks (id, task_id, author_id, body, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.ID, r.TaskID, r.AuthorID, r.Body, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: add remark: %w", err)
	}
	return nil
}

// ListRemarks returns a task's remarks in chronological order.
func (db *DB) ListRemarks(ctx context.Context, taskID string) ([]models.Remark, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, task_id, author_id, body, created_at
		FROM remarks WHERE task_id = ? ORDER BY created_at, id
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("store: list remarks: %w", err)
	}
	defer rows.Close()

	var out []models.Remark
	for rows.Next() {
		var r models.Remark
		if err := rows.Scan(&r.ID, &r.TaskID, &r.AuthorID, &r.Body, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListQueuedAIRemarks returns remarks carrying a queued AI To-Do tag,
// oldest first, up to limit.
func (db *DB) ListQueuedAIRemarks(ctx context.Context, limit int) ([]models.Remark, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, task_id, author_id, body, created_at
		FROM remarks WHERE body LIKE '%[ai-todo|queued]%'
		ORDER BY created_at, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list queued remarks: %w", err)
	}
	defer rows.Close()

	var out []models.Remark
	for rows.Next() {
		var r models.Remark
		if err := rows.Scan(&r.ID, &r.TaskID, &r.AuthorID, &r.Body, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateRemarkBody rewrites a remark body (used to advance AI To-Do tags).
func (db *DB) UpdateRemarkBody(ctx context.Context, id, body string) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE remarks SET body = ? WHERE id = ?`, body, id)
	if err != nil {
		return fmt.Errorf("store: update remark: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
