package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tallyhq/tally/internal/models"
)

// CreateProject inserts a project and its owner membership in one transaction.
func (db *DB) CreateProject(ctx context.Context, p models.Project, ownerID string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO projects (id, name, created_at) VALUES (?, ?, ?)
	`, p.ID, p.Name, p.CreatedAt); err != nil {
		return fmt.Errorf("store: insert project: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO memberships (project_id, user_id, role, created_at) VALUES (?, ?, ?, ?)
	`, p.ID, ownerID, models.RoleOwner, p.CreatedAt); err != nil {
		return fmt.Errorf("store: insert owner membership: %w", err)
	}
	return tx.Commit()
}

// GetProject returns the project with the given id.
func (db *DB) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM projects WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get project: %w", err)
	}
	return &p, nil
}

// ListProjectsForUser returns every project the user is a member of.
func (db *DB) ListProjectsForUser(ctx context.Context, userID string) ([]models.Project, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT p.id, p.name, p.created_at
		FROM projects p
		JOIN memberships m ON m.project_id = p.id
		WHERE m.user_id = ?
		ORDER BY p.created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListAllProjects returns every project, used by trusted local surfaces.
func (db *DB) ListAllProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, created_at FROM projects ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list all projects: %w", err)
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetMembership returns the caller's membership in a project.
func (db *DB) GetMembership(ctx context.Context, projectID, userID string) (*models.Membership, error) {
	var m models.Membership
	err := db.conn.QueryRowContext(ctx, `
		SELECT project_id, user_id, role, created_at
		FROM memberships WHERE project_id = ? AND user_id = ?
	`, projectID, userID).Scan(&m.ProjectID, &m.UserID, &m.Role, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get membership: %w", err)
	}
	return &m, nil
}

// CreateInvite persists a single-use invite token.
func (db *DB) CreateInvite(ctx context.Context, inv models.Invite) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO invites (token, project_id, role, created_by, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, inv.Token, inv.ProjectID, inv.Role, inv.CreatedBy, inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: create invite: %w", err)
	}
	return nil
}

// ClaimInvite marks an unused invite as used by userID and creates the
// membership, all in one transaction. Returns the claimed invite.
func (db *DB) ClaimInvite(ctx context.Context, token, userID string) (*models.Invite, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var inv models.Invite
	err = tx.QueryRowContext(ctx, `
		SELECT token, project_id, role, created_by, used_by, created_at
		FROM invites WHERE token = ?
	`, token).Scan(&inv.Token, &inv.ProjectID, &inv.Role, &inv.CreatedBy, &inv.UsedBy, &inv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get invite: %w", err)
	}
	if inv.UsedBy != "" {
		return nil, ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE invites SET used_by = ? WHERE token = ?
	`, userID, token); err != nil {
		return nil, fmt.Errorf("store: mark invite used: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO memberships (project_id, user_id, role, created_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(project_id, user_id) DO NOTHING
	`, inv.ProjectID, userID, inv.Role); err != nil {
		return nil, fmt.Errorf("store: insert membership: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	inv.UsedBy = userID
	return &inv, nil
}
