package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"cobolscope/internal/artifact"
	"cobolscope/internal/pipeline/cobol"
	"cobolscope/internal/safeio"
	"cobolscope/internal/scan"
)

const SummaryPath = "summary.json"

type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// FileResult is one program's entry in the run summary.
type FileResult struct {
	Path        string   `json:"path"`
	Program     string   `json:"program"`
	Status      Status   `json:"status"`
	Error       string   `json:"error,omitempty"`
	Lines       int      `json:"lines"`
	Items       int      `json:"items"`
	Paragraphs  int      `json:"paragraphs"`
	Edges       int      `json:"edges"`
	Diagnostics int      `json:"diagnostics"`
	Score       int      `json:"score"`
	Label       string   `json:"label,omitempty"`
	Artifacts   []string `json:"artifacts,omitempty"`
}

type Summary struct {
	RunID      string       `json:"run_id"`
	SourceRoot string       `json:"source_root"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Analyzed   int          `json:"analyzed"`
	Failed     int          `json:"failed"`
	Skipped    int          `json:"skipped"`
	Files      []FileResult `json:"files"`
}

// Runner analyzes a batch of listings concurrently and publishes the results
// through an artifact.Store. One Analyzer is shared by all workers.
type Runner struct {
	analyzer *cobol.Analyzer
	store    artifact.Store
	workers  int
	logger   *slog.Logger
}

func New(a *cobol.Analyzer, store artifact.Store, workers int, logger *slog.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{analyzer: a, store: store, workers: workers, logger: logger.With("component", "runner")}
}

// NewRunID returns a sortable identifier for a fresh run.
func NewRunID(now time.Time) string {
	return fmt.Sprintf("run-%s-%d", now.UTC().Format("20060102T150405"), now.UnixNano()%1_000_000)
}

// RunDir scans fsys for listings with the given extensions and runs them.
func (r *Runner) RunDir(ctx context.Context, fsys *safeio.SafeFS, exts []string, opts scan.Options, runID string) (*Summary, error) {
	files, err := scan.FilesWithExtensions(fsys, exts, opts)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", fsys.Root(), err)
	}
	r.logger.Info("listings found", "root", fsys.Root(), "files", len(files))
	return r.Run(ctx, fsys, files, runID)
}

// Run analyzes files (relative to fsys) and writes per-program artifacts
// plus summary.json under runID. A failing program is recorded and skipped;
// only cancellation or a failed summary write returns an error.
func (r *Runner) Run(ctx context.Context, fsys *safeio.SafeFS, files []string, runID string) (*Summary, error) {
	sum := &Summary{
		RunID:      runID,
		SourceRoot: fsys.Root(),
		StartedAt:  time.Now().UTC(),
		Files:      make([]FileResult, len(files)),
	}
	for i, rel := range files {
		sum.Files[i] = FileResult{Path: rel, Program: cobol.ProgramName(rel), Status: StatusSkipped}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, rel := range files {
		if gctx.Err() != nil {
			break
		}
		i, rel := i, rel
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			sum.Files[i] = r.runOne(gctx, fsys, rel, runID)
			return nil
		})
	}
	_ = g.Wait()

	for _, f := range sum.Files {
		switch f.Status {
		case StatusOK:
			sum.Analyzed++
		case StatusFailed:
			sum.Failed++
		default:
			sum.Skipped++
		}
	}
	sum.FinishedAt = time.Now().UTC()

	// The summary is still published for a cancelled run so partial work is visible.
	if err := artifact.PutJSON(context.WithoutCancel(ctx), r.store, runID, SummaryPath, sum); err != nil {
		return sum, fmt.Errorf("write summary: %w", err)
	}
	r.logger.Info("run finished",
		"run_id", runID,
		"analyzed", sum.Analyzed,
		"failed", sum.Failed,
		"skipped", sum.Skipped,
	)
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}

func (r *Runner) runOne(ctx context.Context, fsys *safeio.SafeFS, rel, runID string) FileResult {
	res := FileResult{Path: rel, Program: cobol.ProgramName(rel)}
	fail := func(err error) FileResult {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			res.Status = StatusSkipped
		} else {
			res.Status = StatusFailed
			r.logger.Error("program failed", "path", rel, "err", err)
		}
		res.Error = err.Error()
		res.Artifacts = nil
		return res
	}

	m, err := r.analyzer.AnalyzeFile(ctx, fsys, rel)
	if err != nil {
		return fail(err)
	}
	res.Lines = len(m.Lines)
	res.Items = len(m.Dictionary.Items)
	res.Paragraphs = len(m.Paragraphs)
	res.Edges = len(m.Edges)
	res.Diagnostics = len(m.Diagnostics)
	res.Score = m.Score.Value
	res.Label = m.Score.Label

	base := ArtifactBase(rel)
	listing, err := safeio.Encode(cobol.Listing(m), r.analyzer.Encoding())
	if err != nil {
		return fail(fmt.Errorf("encode listing: %w", err))
	}
	etude := base + ".etude"
	if err := r.store.Put(ctx, runID, etude, listing); err != nil {
		return fail(fmt.Errorf("put %s: %w", etude, err))
	}
	model := base + ".model.json"
	if err := artifact.PutJSON(ctx, r.store, runID, model, m); err != nil {
		return fail(fmt.Errorf("put %s: %w", model, err))
	}
	res.Status = StatusOK
	res.Artifacts = []string{etude, model}
	return res
}

// ArtifactBase keeps the directory of rel so programs with equal names in
// different folders do not collide.
func ArtifactBase(rel string) string {
	rel = strings.TrimLeft(path.Clean("/"+strings.ReplaceAll(rel, "\\", "/")), "/")
	dir, file := path.Split(rel)
	return dir + strings.ToUpper(strings.TrimSuffix(file, path.Ext(file)))
}
