// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the checklist to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/store"
	"github.com/tallyhq/tally/internal/summary"
)

// mcpAuthor is the author id recorded on remarks created over MCP.
const mcpAuthor = "mcp"

// Server wraps the MCP server with checklist tools. The stdio transport is
// local and trusted, so tools operate without a user session.
type Server struct {
	mcp         *server.MCPServer
	db          *store.DB
	coordinator *summary.Coordinator
}

// New creates an MCP server with all tools registered.
func New(db *store.DB, coordinator *summary.Coordinator) *Server {
	s := &Server{db: db, coordinator: coordinator}

	s.mcp = server.NewMCPServer(
		"Tally",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List all projects known to this tally instance."),
	), s.listProjects)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List a project's checklist tasks."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project id")),
	), s.listTasks)

	s.mcp.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a checklist task in a project."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project id")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
		mcp.WithString("notes", mcp.Description("Optional free-text notes")),
	), s.createTask)

	s.mcp.AddTool(mcp.NewTool("add_remark",
		mcp.WithDescription("Append a remark to a task. To queue an AI To-Do, "+
			"include the [ai-todo|queued] tag followed by the instruction; see "+
			"the tally://ai-todo-format resource."),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Task id")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Remark text")),
	), s.addRemark)

	s.mcp.AddTool(mcp.NewTool("project_summary",
		mcp.WithDescription("Produce (or reuse a recent) AI status summary for a project."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project id")),
		mcp.WithString("filter", mcp.Description("Optional free-text task filter")),
	), s.projectSummary)

	// Resource: the AI To-Do tag convention.
	s.mcp.AddResource(
		mcp.NewResource("tally://ai-todo-format", "AI To-Do Tag Format",
			mcp.WithResourceDescription("The remark tag convention that queues AI-assisted task execution."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readAITodoFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.db.ListAllProjects(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(projects, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tasks, err := s.db.ListTasks(ctx, projectID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(tasks, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes := ""
	if n, err := req.RequireString("notes"); err == nil {
		notes = n
	}
	if _, err := s.db.GetProject(ctx, projectID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("project not found: %s", projectID)), nil
	}

	now := time.Now().UTC()
	t := models.Task{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Title:     title,
		Notes:     notes,
		Status:    models.TaskOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.CreateTask(ctx, t); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created task %s", t.ID)), nil
}

func (s *Server) addRemark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := req.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := req.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.db.GetTask(ctx, taskID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("task not found: %s", taskID)), nil
	}
	r := models.Remark{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		AuthorID:  mcpAuthor,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.AddRemark(ctx, r); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added remark %s", r.ID)), nil
}

func (s *Server) projectSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filter := ""
	if f, err := req.RequireString("filter"); err == nil {
		filter = f
	}

	res, err := s.coordinator.SummarizeAsSystem(ctx, summary.Request{
		ProjectID:       projectID,
		Filter:          filter,
		FilterSignature: summary.Fingerprint(projectID, summary.ReportTypeStatus, filter),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	if res.ReusedExisting {
		b.WriteString("(reused recent summary)\n\n")
	}
	b.WriteString(res.Report.Markdown)
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) readAITodoFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "tally://ai-todo-format",
			MIMEType: "text/markdown",
			Text:     AITodoContract,
		},
	}, nil
}
