// Package ingest turns uploaded or inbox-dropped files into Document records
// with their raw bytes stored in the blob root.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/blob"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/store"
)

// maxTextBytes caps how much extracted text is stored per document.
const maxTextBytes = 256 << 10

// Service ingests files for projects.
type Service struct {
	db    *store.DB
	blobs *blob.FS
}

// NewService creates an ingest service.
func NewService(db *store.DB, blobs *blob.FS) *Service {
	return &Service{db: db, blobs: blobs}
}

// Ingest stores data under the blob root and records a Document. Plain-text
// formats (markdown, txt) also get their text extracted for later prompting.
func (s *Service) Ingest(ctx context.Context, projectID, filename string, data []byte) (*models.Document, error) {
	filename = filepath.Base(filename)
	if filename == "" || filename == "." || filename == ".." {
		return nil, fmt.Errorf("ingest: invalid filename")
	}

	id := uuid.NewString()
	blobPath := filepath.Join(projectID, id+"-"+filename)
	if err := s.blobs.Write(blobPath, data); err != nil {
		return nil, err
	}

	doc := models.Document{
		ID:        id,
		ProjectID: projectID,
		Filename:  filename,
		BlobPath:  blobPath,
		Text:      extractText(filename, data),
		Size:      int64(len(data)),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.InsertDocument(ctx, doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// extractText returns document text for formats we can read directly.
// Binary or unknown formats yield an empty string.
func extractText(filename string, data []byte) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown", ".txt":
	default:
		return ""
	}
	if !utf8.Valid(data) {
		return ""
	}
	if len(data) > maxTextBytes {
		data = data[:maxTextBytes]
	}
	return string(data)
}
