package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/store"
	"github.com/tallyhq/tally/internal/testutil"
)

func seedUser(t *testing.T, db *store.DB, email string) models.User {
	t.Helper()
	u := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         "Test",
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func seedProject(t *testing.T, db *store.DB, ownerID string) models.Project {
	t.Helper()
	p := models.Project{ID: uuid.NewString(), Name: "proj", CreatedAt: time.Now().UTC()}
	if err := db.CreateProject(context.Background(), p, ownerID); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return p
}

func TestCreateProjectGrantsOwner(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "a@example.com")
	p := seedProject(t, db, u.ID)

	m, err := db.GetMembership(ctx, p.ID, u.ID)
	if err != nil {
		t.Fatalf("GetMembership: %v", err)
	}
	if m.Role != models.RoleOwner {
		t.Errorf("role = %q, want owner", m.Role)
	}

	projects, err := db.ListProjectsForUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListProjectsForUser: %v", err)
	}
	if len(projects) != 1 || projects[0].ID != p.ID {
		t.Errorf("projects = %+v", projects)
	}
}

func TestTaskLifecycle(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "a@example.com")
	p := seedProject(t, db, u.ID)

	now := time.Now().UTC()
	task := models.Task{
		ID: uuid.NewString(), ProjectID: p.ID, Title: "write docs",
		Status: models.TaskOpen, CreatedAt: now, UpdatedAt: now,
	}
	if err := db.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	task.Status = models.TaskDone
	task.UpdatedAt = time.Now().UTC()
	if err := db.UpdateTask(ctx, task); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	got, err := db.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Status != models.TaskDone {
		t.Errorf("status = %q, want done", got.Status)
	}

	if err := db.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if _, err := db.GetTask(ctx, task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
}

func TestUpdateTaskMissing(t *testing.T) {
	db := testutil.TestDB(t)
	err := db.UpdateTask(context.Background(), models.Task{ID: "nope", UpdatedAt: time.Now()})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRemarksAndQueuedLookup(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "a@example.com")
	p := seedProject(t, db, u.ID)

	now := time.Now().UTC()
	task := models.Task{ID: uuid.NewString(), ProjectID: p.ID, Title: "t", Status: models.TaskOpen, CreatedAt: now, UpdatedAt: now}
	if err := db.CreateTask(ctx, task); err != nil {
		t.Fatal(err)
	}

	plain := models.Remark{ID: uuid.NewString(), TaskID: task.ID, AuthorID: u.ID, Body: "looks good", CreatedAt: now}
	queued := models.Remark{ID: uuid.NewString(), TaskID: task.ID, AuthorID: u.ID, Body: "[ai-todo|queued] draft notes", CreatedAt: now.Add(time.Second)}
	for _, r := range []models.Remark{plain, queued} {
		if err := db.AddRemark(ctx, r); err != nil {
			t.Fatalf("AddRemark: %v", err)
		}
	}

	remarks, err := db.ListRemarks(ctx, task.ID)
	if err != nil {
		t.Fatalf("ListRemarks: %v", err)
	}
	if len(remarks) != 2 {
		t.Fatalf("remarks = %d, want 2", len(remarks))
	}

	pending, err := db.ListQueuedAIRemarks(ctx, 10)
	if err != nil {
		t.Fatalf("ListQueuedAIRemarks: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != queued.ID {
		t.Errorf("pending = %+v, want only the queued remark", pending)
	}

	if err := db.UpdateRemarkBody(ctx, queued.ID, "[ai-todo|done] draft notes"); err != nil {
		t.Fatalf("UpdateRemarkBody: %v", err)
	}
	pending, _ = db.ListQueuedAIRemarks(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("pending after done = %d, want 0", len(pending))
	}
}

func TestLatestReportWindow(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "a@example.com")
	p := seedProject(t, db, u.ID)

	old := models.Report{
		ID: uuid.NewString(), ProjectID: p.ID, Type: "status-summary",
		FilterSignature: "sig", Markdown: "old", CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	fresh := models.Report{
		ID: uuid.NewString(), ProjectID: p.ID, Type: "status-summary",
		FilterSignature: "sig", Markdown: "fresh",
		Metadata:  map[string]string{"filter": "x"},
		CreatedAt: time.Now().UTC(),
	}
	for _, r := range []models.Report{old, fresh} {
		if err := db.InsertReport(ctx, r); err != nil {
			t.Fatalf("InsertReport: %v", err)
		}
	}

	got, err := db.LatestReport(ctx, p.ID, "status-summary", "sig", time.Now().UTC().Add(-10*time.Minute))
	if err != nil {
		t.Fatalf("LatestReport: %v", err)
	}
	if got.ID != fresh.ID {
		t.Errorf("got %s, want the fresh report", got.ID)
	}
	if got.Metadata["filter"] != "x" {
		t.Errorf("metadata = %+v", got.Metadata)
	}

	// Different signature misses.
	if _, err := db.LatestReport(ctx, p.ID, "status-summary", "other", time.Now().UTC().Add(-10*time.Minute)); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("different signature err = %v, want ErrNotFound", err)
	}

	// Window excludes the old report.
	if _, err := db.LatestReport(ctx, p.ID, "status-summary", "sig", time.Now().UTC().Add(time.Minute)); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("future window err = %v, want ErrNotFound", err)
	}
}

func TestClaimInviteSingleUse(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	owner := seedUser(t, db, "owner@example.com")
	joiner := seedUser(t, db, "joiner@example.com")
	p := seedProject(t, db, owner.ID)

	inv := models.Invite{
		Token: uuid.NewString(), ProjectID: p.ID, Role: models.RoleEditor,
		CreatedBy: owner.ID, CreatedAt: time.Now().UTC(),
	}
	if err := db.CreateInvite(ctx, inv); err != nil {
		t.Fatalf("CreateInvite: %v", err)
	}

	claimed, err := db.ClaimInvite(ctx, inv.Token, joiner.ID)
	if err != nil {
		t.Fatalf("ClaimInvite: %v", err)
	}
	if claimed.ProjectID != p.ID || claimed.Role != models.RoleEditor {
		t.Errorf("claimed = %+v", claimed)
	}

	m, err := db.GetMembership(ctx, p.ID, joiner.ID)
	if err != nil {
		t.Fatalf("GetMembership after claim: %v", err)
	}
	if m.Role != models.RoleEditor {
		t.Errorf("role = %q, want editor", m.Role)
	}

	// Second claim fails.
	if _, err := db.ClaimInvite(ctx, inv.Token, joiner.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second claim err = %v, want ErrNotFound", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "a@example.com")

	live := models.Session{Token: uuid.NewString(), UserID: u.ID, ExpiresAt: time.Now().UTC().Add(time.Hour)}
	dead := models.Session{Token: uuid.NewString(), UserID: u.ID, ExpiresAt: time.Now().UTC().Add(-time.Hour)}
	for _, s := range []models.Session{live, dead} {
		if err := db.CreateSession(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := db.GetSession(ctx, live.Token, time.Now().UTC()); err != nil {
		t.Errorf("live session: %v", err)
	}
	if _, err := db.GetSession(ctx, dead.Token, time.Now().UTC()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expired session err = %v, want ErrNotFound", err)
	}
}
