package todo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/ai"
	"github.com/tallyhq/tally/internal/apperr"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/store"
)

// aiAuthor is the author id recorded on remarks written by the executor.
const aiAuthor = "ai"

// Notifier is called after the executor changes a task's remarks.
type Notifier func(kind, projectID, remarkID string)

// Executor runs queued AI To-Dos: it advances the tag to running, calls the
// generator with the remark's instruction, appends a result remark, and
// settles the tag as done or failed.
type Executor struct {
	db     *store.DB
	gen    ai.Generator
	logger *slog.Logger
	notify Notifier
}

// NewExecutor creates an Executor. notify may be nil.
func NewExecutor(db *store.DB, gen ai.Generator, logger *slog.Logger, notify Notifier) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if notify == nil {
		notify = func(string, string, string) {}
	}
	return &Executor{db: db, gen: gen, logger: logger, notify: notify}
}

// ErrNoQueuedTodo is returned when a task has no queued AI To-Do remark.
var ErrNoQueuedTodo = errors.New("todo: no queued ai-todo on task")

// RunTask executes the oldest queued AI To-Do on the given task.
func (e *Executor) RunTask(ctx context.Context, taskID string) (*models.Remark, error) {
	remarks, err := e.db.ListRemarks(ctx, taskID)
	if err != nil {
		return nil, err
	}
	for _, r := range remarks {
		if status, ok := ParseTag(r.Body); ok && status == StatusQueued {
			return e.run(ctx, r)
		}
	}
	return nil, ErrNoQueuedTodo
}

// RunPending drains up to limit queued AI To-Dos across all tasks.
func (e *Executor) RunPending(ctx context.Context, limit int) error {
	queued, err := e.db.ListQueuedAIRemarks(ctx, limit)
	if err != nil {
		return err
	}
	for _, r := range queued {
		if _, err := e.run(ctx, r); err != nil {
			e.logger.Warn("ai-todo run failed",
				slog.String("remark_id", r.ID),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// Poll runs pending AI To-Dos on a fixed interval until ctx is cancelled.
func (e *Executor) Poll(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.RunPending(ctx, 10); err != nil {
				e.logger.Warn("ai-todo poll failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (e *Executor) run(ctx context.Context, r models.Remark) (*models.Remark, error) {
	task, err := e.db.GetTask(ctx, r.TaskID)
	if err != nil {
		return nil, err
	}

	if err := e.db.UpdateRemarkBody(ctx, r.ID, SetStatus(r.Body, StatusRunning)); err != nil {
		return nil, err
	}
	e.notify("remark.updated", task.ProjectID, r.ID)

	start := time.Now()
	output, genErr := e.gen.Generate(ctx, ai.TaskPrompt(task, Instruction(r.Body)))
	latency := time.Since(start)

	final := StatusDone
	body := output
	if genErr != nil {
		final = StatusFailed
		body = "AI To-Do failed: " + apperr.From(genErr).Message
	}
	if err := e.db.UpdateRemarkBody(ctx, r.ID, SetStatus(r.Body, final)); err != nil {
		return nil, err
	}

	result := models.Remark{
		ID:        uuid.NewString(),
		TaskID:    task.ID,
		AuthorID:  aiAuthor,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.db.AddRemark(ctx, result); err != nil {
		return nil, err
	}
	e.notify("remark.created", task.ProjectID, result.ID)

	e.logger.Info("ai-todo executed",
		slog.String("task_id", task.ID),
		slog.String("remark_id", r.ID),
		slog.String("status", final),
		slog.Duration("latency", latency))

	if genErr != nil {
		return &result, genErr
	}
	return &result, nil
}
