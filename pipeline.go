package codescope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/codescope/codescope/internal/cache"
	"github.com/codescope/codescope/internal/graph"
	"github.com/codescope/codescope/internal/jobstore"
	"github.com/codescope/codescope/internal/lang"
	"github.com/codescope/codescope/internal/metrics"
)

// StageError marks a stage-fatal failure. Unlike per-file parse errors,
// a stage error always fails the job: downstream stages require a
// complete, consistent graph.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// fileOutcome is one file's terminal parse result. Outcomes live in a
// pre-sized slice indexed by file position, so no two workers ever write
// the same slot and the collection itself needs no lock.
type fileOutcome struct {
	path    string
	record  *lang.SymbolRecord
	metrics metrics.NodeMetrics
	diags   []Diagnostic
	failed  bool
	skipped bool // cancelled before this file was dispatched
}

// run drives one job through the pipeline. Parsing fans out across the
// worker pool; graph building, metrics, and scoring are single-threaded
// transformations over the quiesced result set.
func (e *Engine) run(ctx context.Context, job *Job, snap Snapshot) {
	defer e.wg.Done()

	job.transition(StateParsing)
	e.publish(job)
	slog.Debug("job parsing", "job", job.id, "files", len(snap.Files))

	outcomes := e.parseFiles(ctx, job, snap)

	diags := make([]Diagnostic, 0)
	for _, o := range outcomes {
		diags = append(diags, o.diags...)
	}
	job.setDiagnostics(diags)

	if job.isCancelled() || ctx.Err() != nil {
		e.finishCancelled(job)
		return
	}

	job.transition(StateGraphBuilding)
	e.publish(job)

	var g *graph.Graph
	err := runStage(StateGraphBuilding, func() error {
		var inputs []graph.Input
		for _, o := range outcomes {
			if o.failed || o.skipped {
				continue
			}
			inputs = append(inputs, graph.Input{Path: o.path, Record: o.record})
		}
		built, buildDiags, buildErr := graph.NewBuilder(snap.SourceRoots).Build(inputs)
		if buildErr != nil {
			return buildErr
		}
		job.appendDiagnostics(buildDiags)
		g = built
		return nil
	})
	if err != nil {
		e.finishFailed(job, err)
		return
	}
	if job.isCancelled() {
		e.finishCancelled(job)
		return
	}

	job.transition(StateMetricComputing)
	e.publish(job)

	var pm metrics.ProjectMetrics
	err = runStage(StateMetricComputing, func() error {
		byID := make(map[string]metrics.NodeMetrics, len(outcomes))
		for _, o := range outcomes {
			if o.failed || o.skipped {
				continue
			}
			byID[graph.NodeID(o.path)] = o.metrics
		}
		for _, n := range g.Nodes {
			if m, ok := byID[n.ID]; ok {
				metrics.Apply(n, m)
			}
		}
		pm = metrics.Aggregate(g)
		return nil
	})
	if err != nil {
		e.finishFailed(job, err)
		return
	}
	if job.isCancelled() {
		e.finishCancelled(job)
		return
	}

	job.transition(StateScoring)
	e.publish(job)

	err = runStage(StateScoring, func() error {
		return e.scorer.Score(ctx, g)
	})
	if err != nil {
		e.finishFailed(job, err)
		return
	}

	status := job.Status()
	job.complete(&Result{
		JobID:       job.id,
		ProjectID:   snap.ProjectID,
		Graph:       g,
		Metrics:     pm,
		Diagnostics: status.Diagnostics,
	})
	e.publish(job)
	e.persist(job)
	slog.Info("job completed", "job", job.id,
		"nodes", len(g.Nodes), "edges", len(g.Edges), "diagnostics", len(status.Diagnostics))
}

// parseFiles runs the parsing stage over the bounded worker pool. Each
// worker pulls the next file index, consults the content cache, invokes
// the matching adapter, and writes into its own outcome slot. The shared
// done counter is the only cross-worker mutation.
func (e *Engine) parseFiles(ctx context.Context, job *Job, snap Snapshot) []fileOutcome {
	outcomes := make([]fileOutcome, len(snap.Files))
	if len(snap.Files) == 0 {
		return outcomes
	}

	workers := e.workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(snap.Files) {
		workers = len(snap.Files)
	}

	workCh := make(chan int, len(snap.Files))
	for i := range snap.Files {
		workCh <- i
	}
	close(workCh)

	done := make(chan struct{})
	for range workers {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := range workCh {
				// Cancellation is advisory: checked at file boundaries,
				// in-flight parses run to completion.
				if job.isCancelled() || ctx.Err() != nil {
					outcomes[i] = fileOutcome{path: snap.Files[i].Path, skipped: true}
					continue
				}
				outcomes[i] = e.parseOne(ctx, snap.Files[i])
				job.fileDone()
				e.publisher.Publish(job.id, StateParsing, job.Progress())
			}
		}()
	}
	for range workers {
		<-done
	}
	return outcomes
}

// parseOne produces the terminal outcome for a single file: a cache hit,
// a fresh parse, or a recorded per-file failure.
func (e *Engine) parseOne(ctx context.Context, f SourceFile) fileOutcome {
	out := fileOutcome{path: f.Path}

	language := f.Language
	if language == "" {
		if detected, ok := lang.LanguageForFile(f.Path); ok {
			language = detected
		} else {
			language = "unknown"
		}
	}

	adapter := e.registry.ForLanguage(language)
	if e.languages != nil && !e.languages[language] {
		adapter = lang.Fallback(language)
	}

	hash := cache.Hash(f.Content)
	if entry, ok := e.cache.Get(hash); ok && entry.Record.Caps == adapter.Capabilities() {
		out.record = entry.Record
		out.metrics = entry.Metrics
		out.diags = withPath(entry.Record.Diagnostics, f.Path)
		return out
	}

	pctx := ctx
	if e.fileTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, e.fileTimeout)
		defer cancel()
	}

	rec, err := adapter.Parse(pctx, f.Content)
	if err != nil {
		perr := &lang.ParseError{Path: f.Path, Language: language, Reason: err.Error()}
		switch {
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(pctx.Err(), context.DeadlineExceeded):
			perr.Reason = "timeout"
		case errors.Is(err, lang.ErrBinaryContent):
			perr.Reason = "binary or non-text content"
		}
		slog.Warn("parse failed", "path", f.Path, "language", language, "reason", perr.Reason)
		out.failed = true
		out.diags = []Diagnostic{{
			Code:    lang.DiagParseError,
			Path:    f.Path,
			Message: perr.Error(),
		}}
		return out
	}

	m := metrics.Compute(rec)
	e.cache.Add(hash, cache.Entry{Record: rec, Metrics: m})
	out.record = rec
	out.metrics = m
	out.diags = withPath(rec.Diagnostics, f.Path)
	return out
}

// runStage wraps a pipeline stage, converting errors and panics into a
// StageError so a bug in a transformation fails the job rather than the
// process.
func runStage(stage State, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &StageError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if stageErr := fn(); stageErr != nil {
		return &StageError{Stage: stage, Err: stageErr}
	}
	return nil
}

func (e *Engine) finishCancelled(job *Job) {
	job.finishCancelled()
	e.publish(job)
	e.persist(job)
	slog.Info("job cancelled", "job", job.id)
}

func (e *Engine) finishFailed(job *Job, err error) {
	job.fail(err)
	e.publish(job)
	e.persist(job)
	slog.Error("job failed", "job", job.id, "error", err)
}

func (e *Engine) publish(job *Job) {
	e.publisher.Publish(job.id, job.State(), job.Progress())
}

// persist writes the terminal job record to the history store when one is
// configured. Persistence problems are logged, never escalated.
func (e *Engine) persist(job *Job) {
	if e.history == nil {
		return
	}
	st := job.Status()
	rec := &jobstore.Record{
		ID:          st.JobID,
		ProjectID:   st.ProjectID,
		State:       string(st.State),
		Progress:    st.Progress,
		TotalFiles:  st.TotalFiles,
		Diagnostics: len(st.Diagnostics),
		FatalError:  st.Error,
		StartedAt:   st.StartedAt,
		CompletedAt: st.CompletedAt,
	}
	if err := e.history.Insert(rec); err != nil {
		slog.Warn("persist job record", "job", st.JobID, "error", err)
	}
}

// withPath clones content-addressed diagnostics, attaching the concrete
// file path. Cached records stay path-free so they can be shared.
func withPath(diags []Diagnostic, path string) []Diagnostic {
	if len(diags) == 0 {
		return nil
	}
	out := make([]Diagnostic, len(diags))
	for i, d := range diags {
		d.Path = path
		out[i] = d
	}
	return out
}
