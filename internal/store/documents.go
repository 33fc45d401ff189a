package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tallyhq/tally/internal/models"
)

// InsertDocument persists an ingested document record.
func (db *DB) InsertDocument(ctx context.Context, d models.Document) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO documents (id, project_id, filename, blob_path, text, size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.ProjectID, d.Filename, d.BlobPath, d.Text, d.Size, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: insert document: %w", err)
	}
	return nil
}

// GetDocument returns the document with the given id.
func (db *DB) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var d models.Document
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, project_id, filename, blob_path, text, size, created_at
		FROM documents WHERE id = ?
	`, id).Scan(&d.ID, &d.ProjectID, &d.Filename, &d.BlobPath, &d.Text, &d.Size, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get document: %w", err)
	}
	return &d, nil
}

// ListDocuments returns a project's documents, newest first.
func (db *DB) ListDocuments(ctx context.Context, projectID string) ([]models.Document, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, project_id, filename, blob_path, text, size, created_at
		FROM documents WHERE project_id = ? ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Filename, &d.BlobPath, &d.Text, &d.Size, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
