// Package codescope analyzes a project snapshot into a typed dependency
// graph with per-file metrics and risk scores. Parsing is built on
// tree-sitter grammars; unknown languages degrade to line counts rather
// than failing the job.
//
// # Pipeline
//
// A submitted job moves through four stages:
//
//  1. Parsing: each file is parsed by its language adapter across a
//     bounded worker pool. Results are cached by content hash, so
//     re-analyzing a project only pays for changed files.
//
//  2. Graph building: raw import, call, and inheritance references are
//     resolved against the project's file set into a deterministic,
//     typed dependency graph.
//
//  3. Metric computing: line counts, cyclomatic complexity, and a
//     maintainability index are attached to each node; project-level
//     aggregates and import cycles are derived from the whole graph.
//
//  4. Scoring: a pluggable risk scorer combines complexity,
//     maintainability, and coupling into a risk score in [0, 1] and severity
//     bucket per node.
//
// # Usage
//
// Create an Engine, submit a snapshot, poll status, and read the result:
//
//	e, err := codescope.New(codescope.WithWorkers(8))
//	if err != nil { ... }
//	defer e.Close()
//
//	jobID, err := e.Submit(ctx, snap)
//	st, err := e.Status(jobID)
//	res, err := e.Result(jobID)
//
//	q := res.Query()
//	hot := q.TopRisks(10)
//	deps := q.Dependencies("src/app.py")
//
// # Failure model
//
// Per-file problems (unparseable, binary, timed out) become diagnostics
// on the job and the file is excluded from the graph; the job still
// completes. Only stage-level failures (a bug in graph building, a
// scorer error) fail the whole job, and a failed job retains no partial
// result.
//
// # Cancellation
//
// [Engine.Cancel] is cooperative: workers stop at the next file
// boundary, the job moves to Cancelled, and diagnostics gathered so far
// remain readable via [Engine.Status].
package codescope
