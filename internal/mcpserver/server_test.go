package mcpserver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tallyhq/tally/internal/auth"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/store"
	"github.com/tallyhq/tally/internal/summary"
	"github.com/tallyhq/tally/internal/testutil"
)

type stubGen struct{ out string }

func (g stubGen) Generate(context.Context, string) (string, error) { return g.out, nil }

func newTestServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()
	db := testutil.TestDB(t)
	coordinator := summary.NewCoordinator(db, auth.NewService(db, time.Hour), stubGen{out: "## Status\nOn track."}, 10*time.Minute, nil)
	return New(db, coordinator), db
}

func seedProject(t *testing.T, db *store.DB) models.Project {
	t.Helper()
	ctx := context.Background()
	u := models.User{ID: "user-1", Email: "u@example.com", Name: "U", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	if err := db.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	p := models.Project{ID: "proj-1", Name: "launch", CreatedAt: time.Now().UTC()}
	if err := db.CreateProject(ctx, p, u.ID); err != nil {
		t.Fatal(err)
	}
	return p
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type %T", res.Content[0])
	}
	return tc.Text
}

func TestListProjects(t *testing.T) {
	s, db := newTestServer(t)
	p := seedProject(t, db)

	res, err := s.listProjects(context.Background(), toolRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	if text := resultText(t, res); !strings.Contains(text, p.ID) {
		t.Errorf("result missing project: %s", text)
	}
}

func TestCreateTaskAndListTasks(t *testing.T) {
	s, db := newTestServer(t)
	p := seedProject(t, db)

	res, err := s.createTask(context.Background(), toolRequest(map[string]any{
		"project_id": p.ID,
		"title":      "ship the release",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("createTask: %s", resultText(t, res))
	}

	res, err = s.listTasks(context.Background(), toolRequest(map[string]any{"project_id": p.ID}))
	if err != nil {
		t.Fatal(err)
	}
	if text := resultText(t, res); !strings.Contains(text, "ship the release") {
		t.Errorf("result missing task: %s", text)
	}
}

func TestCreateTaskUnknownProject(t *testing.T) {
	s, _ := newTestServer(t)
	res, err := s.createTask(context.Background(), toolRequest(map[string]any{
		"project_id": "nope",
		"title":      "x",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected error result for unknown project")
	}
}

func TestAddRemark(t *testing.T) {
	s, db := newTestServer(t)
	p := seedProject(t, db)
	task := models.Task{
		ID: "task-1", ProjectID: p.ID, Title: "announce",
		Status: models.TaskOpen, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	if err := db.CreateTask(context.Background(), task); err != nil {
		t.Fatal(err)
	}

	res, err := s.addRemark(context.Background(), toolRequest(map[string]any{
		"task_id": task.ID,
		"body":    "[ai-todo|queued] draft the announcement",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("addRemark: %s", resultText(t, res))
	}

	remarks, err := db.ListRemarks(context.Background(), task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(remarks) != 1 || remarks[0].AuthorID != mcpAuthor {
		t.Errorf("remarks = %+v", remarks)
	}
}

func TestProjectSummaryTool(t *testing.T) {
	s, db := newTestServer(t)
	p := seedProject(t, db)

	res, err := s.projectSummary(context.Background(), toolRequest(map[string]any{"project_id": p.ID}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("projectSummary: %s", resultText(t, res))
	}
	if text := resultText(t, res); !strings.Contains(text, "On track") {
		t.Errorf("summary text = %s", text)
	}

	// A second call within the window reuses the stored report.
	res, err = s.projectSummary(context.Background(), toolRequest(map[string]any{"project_id": p.ID}))
	if err != nil {
		t.Fatal(err)
	}
	if text := resultText(t, res); !strings.Contains(text, "reused recent summary") {
		t.Errorf("expected reuse marker: %s", text)
	}
}

func TestAITodoFormatResource(t *testing.T) {
	s, _ := newTestServer(t)
	contents, err := s.readAITodoFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d", len(contents))
	}
	text := contents[0].(mcp.TextResourceContents).Text
	if !strings.Contains(text, "[ai-todo|queued]") {
		t.Errorf("resource missing tag convention: %s", text)
	}
}
