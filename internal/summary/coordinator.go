// Package summary implements the AI-summary request coordinator: it
// validates and authorizes a summary request, reuses a recent identical
// report when one exists, and otherwise generates and persists a new one.
package summary

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/tallyhq/tally/internal/ai"
	"github.com/tallyhq/tally/internal/apperr"
	"github.com/tallyhq/tally/internal/auth"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/store"
)

// ReportTypeStatus is the type tag for project status summaries.
const ReportTypeStatus = "status-summary"

// Request is the body of POST /api/ai/summary.
type Request struct {
	ProjectID       string `json:"projectId"`
	Filter          string `json:"filter,omitempty"`
	FilterSignature string `json:"filterSignature"`
	Force           bool   `json:"force,omitempty"`
}

// Validate checks the request shape.
func (r Request) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProjectID, validation.Required),
		validation.Field(&r.FilterSignature, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.Filter, validation.Length(0, 4096)),
	)
}

// Result is the success payload of a summary request.
type Result struct {
	Report         *models.Report `json:"report"`
	ReusedExisting bool           `json:"reusedExisting"`
}

// Coordinator runs the summary pipeline.
type Coordinator struct {
	db     *store.DB
	auth   *auth.Service
	gen    ai.Generator
	window time.Duration
	logger *slog.Logger

	group singleflight.Group
}

// NewCoordinator creates a Coordinator. window is the reuse window: a report
// with the same fingerprint created within it is returned instead of
// generating a new one.
func NewCoordinator(db *store.DB, authSvc *auth.Service, gen ai.Generator, window time.Duration, logger *slog.Logger) *Coordinator {
	if window <= 0 {
		window = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{db: db, auth: authSvc, gen: gen, window: window, logger: logger}
}

// Summarize validates, authorizes, and serves a summary request for userID.
// Concurrent identical requests are collapsed onto one generation per
// fingerprint; all callers of the collapsed flight get the same report, and
// when the flight generated a new one exactly one caller sees
// ReusedExisting == false.
func (c *Coordinator) Summarize(ctx context.Context, userID string, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidRequest, err.Error(), err)
	}
	if _, err := c.auth.Authorize(ctx, req.ProjectID, userID, models.RoleViewer); err != nil {
		return nil, err
	}
	return c.dispatch(ctx, req)
}

// SummarizeAsSystem serves a summary request for a trusted local caller
// (the MCP stdio surface), skipping membership authorization.
func (c *Coordinator) SummarizeAsSystem(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidRequest, err.Error(), err)
	}
	return c.dispatch(ctx, req)
}

// flightResult is the shared outcome of one collapsed generation flight.
// When the flight generated a new report, exactly one caller may claim it as
// fresh; everyone else on the flight reports reuse.
type flightResult struct {
	report    *models.Report
	generated bool
	claimed   atomic.Bool
}

func (c *Coordinator) dispatch(ctx context.Context, req Request) (*Result, error) {
	fp := Fingerprint(req.ProjectID, ReportTypeStatus, req.FilterSignature)
	log := c.logger.With(
		slog.String("project_id", req.ProjectID),
		slog.String("fingerprint", fp),
		slog.Bool("force", req.Force))

	v, err, _ := c.group.Do(fp, func() (any, error) {
		return c.serve(ctx, req, fp, log)
	})
	if err != nil {
		return nil, err
	}
	fr := v.(*flightResult)
	reused := true
	if fr.generated && fr.claimed.CompareAndSwap(false, true) {
		reused = false
	}
	return &Result{Report: fr.report, ReusedExisting: reused}, nil
}

func (c *Coordinator) serve(ctx context.Context, req Request, fp string, log *slog.Logger) (*flightResult, error) {
	if !req.Force {
		existing, err := c.db.LatestReport(ctx, req.ProjectID, ReportTypeStatus, req.FilterSignature, time.Now().UTC().Add(-c.window))
		if err == nil {
			log.Info("summary reused", slog.String("report_id", existing.ID))
			return &flightResult{report: existing}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	project, err := c.db.GetProject(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.CodeProjectNotFound, "project not found")
		}
		return nil, err
	}
	tasks, err := c.db.ListTasks(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	markdown, err := c.gen.Generate(ctx, ai.SummaryPrompt(project, tasks, req.Filter))
	latency := time.Since(start)
	if err != nil {
		ae := apperr.From(err)
		log.Error("summary generation failed",
			slog.String("code", string(ae.Code)),
			slog.Duration("latency", latency),
			slog.String("error", err.Error()))
		return nil, err
	}

	report := models.Report{
		ID:              uuid.NewString(),
		ProjectID:       req.ProjectID,
		Type:            ReportTypeStatus,
		FilterSignature: req.FilterSignature,
		Markdown:        markdown,
		Metadata: map[string]string{
			"filter":     req.Filter,
			"task_count": strconv.Itoa(len(tasks)),
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := c.db.InsertReport(ctx, report); err != nil {
		return nil, err
	}

	log.Info("summary generated",
		slog.String("report_id", report.ID),
		slog.Duration("latency", latency),
		slog.Int("task_count", len(tasks)))
	return &flightResult{report: &report, generated: true}, nil
}

// Fingerprint derives the dedup key for a summary request.
func Fingerprint(projectID, typ, filterSignature string) string {
	h := sha256.Sum256([]byte(projectID + "\x00" + typ + "\x00" + filterSignature))
	return hex.EncodeToString(h[:16])
}
