package ingest_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/ingest"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/store"
	"github.com/tallyhq/tally/internal/testutil"
)

func seedProject(t *testing.T, db *store.DB) models.Project {
	t.Helper()
	ctx := context.Background()
	u := models.User{ID: uuid.NewString(), Email: "a@b.com", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	if err := db.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	p := models.Project{ID: uuid.NewString(), Name: "p", CreatedAt: time.Now().UTC()}
	if err := db.CreateProject(ctx, p, u.ID); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestIngestMarkdownExtractsText(t *testing.T) {
	db := testutil.TestDB(t)
	blobs := testutil.TestBlobFS(t)
	svc := ingest.NewService(db, blobs)
	p := seedProject(t, db)
	ctx := context.Background()

	doc, err := svc.Ingest(ctx, p.ID, "notes.md", []byte("# Meeting\ndecisions"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if doc.Text != "# Meeting\ndecisions" {
		t.Errorf("text = %q", doc.Text)
	}
	if doc.Size != int64(len("# Meeting\ndecisions")) {
		t.Errorf("size = %d", doc.Size)
	}

	// Blob round-trips.
	data, err := blobs.Read(doc.BlobPath)
	if err != nil {
		t.Fatalf("blob read: %v", err)
	}
	if string(data) != "# Meeting\ndecisions" {
		t.Errorf("blob = %q", data)
	}

	// Record is listed.
	docs, err := db.ListDocuments(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].ID != doc.ID {
		t.Errorf("docs = %+v", docs)
	}
}

func TestIngestBinaryNoText(t *testing.T) {
	db := testutil.TestDB(t)
	svc := ingest.NewService(db, testutil.TestBlobFS(t))
	p := seedProject(t, db)

	doc, err := svc.Ingest(context.Background(), p.ID, "scan.pdf", []byte{0x25, 0x50, 0x44, 0x46})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if doc.Text != "" {
		t.Errorf("pdf text = %q, want empty", doc.Text)
	}
}

func TestIngestStripsPathComponents(t *testing.T) {
	db := testutil.TestDB(t)
	svc := ingest.NewService(db, testutil.TestBlobFS(t))
	p := seedProject(t, db)

	doc, err := svc.Ingest(context.Background(), p.ID, "../../etc/passwd", []byte("x"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if doc.Filename != "passwd" {
		t.Errorf("filename = %q, want base name only", doc.Filename)
	}
	if strings.Contains(doc.BlobPath, "..") {
		t.Errorf("blob path = %q contains traversal", doc.BlobPath)
	}
}
