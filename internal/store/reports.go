package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tallyhq/tally/internal/models"
)

// InsertReport persists a generated report. Metadata is stored as JSON.
func (db *DB) InsertReport(ctx context.Context, r models.Report) error {
	meta, err := json.Marshal(r.Metadata)
	if err != nil {
		return fmt.Errorf("store: marshal report metadata: %w", err)
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO reports (id, project_id, type, filter_signature, markdown, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.ProjectID, r.Type, r.FilterSignature, r.Markdown, string(meta), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: insert report: %w", err)
	}
	return nil
}

// LatestReport returns the newest report matching project, type, and filter
// signature created at or after since. This is the reuse-window lookup.
func (db *DB) LatestReport(ctx context.Context, projectID, typ, filterSignature string, since time.Time) (*models.Report, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, project_id, type, filter_signature, markdown, metadata, created_at
		FROM reports
		WHERE project_id = ? AND type = ? AND filter_signature = ? AND created_at >= ?
		ORDER BY created_at DESC
		LIMIT 1
	`, projectID, typ, filterSignature, since)
	return scanReport(row)
}

// ListReports returns a project's reports, newest first.
func (db *DB) ListReports(ctx context.Context, projectID string, limit int) ([]models.Report, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, project_id, type, filter_signature, markdown, metadata, created_at
		FROM reports WHERE project_id = ?
		ORDER BY created_at DESC LIMIT ?
	`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list reports: %w", err)
	}
	defer rows.Close()

	var out []models.Report
	for rows.Next() {
		var (
			r    models.Report
			meta string
		)
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.Type, &r.FilterSignature, &r.Markdown, &meta, &r.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(meta), &r.Metadata)
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanReport(row *sql.Row) (*models.Report, error) {
	var (
		r    models.Report
		meta string
	)
	err := row.Scan(&r.ID, &r.ProjectID, &r.Type, &r.FilterSignature, &r.Markdown, &meta, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan report: %w", err)
	}
	_ = json.Unmarshal([]byte(meta), &r.Metadata)
	return &r, nil
}
