package codescope

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// State is an analysis job's lifecycle stage.
type State string

const (
	StatePending         State = "pending"
	StateParsing         State = "parsing"
	StateGraphBuilding   State = "graph_building"
	StateMetricComputing State = "metric_computing"
	StateScoring         State = "scoring"
	StateCompleted       State = "completed"
	StateCancelled       State = "cancelled"
	StateFailed          State = "failed"
)

// Terminal reports whether a job in this state can never change again.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// JobStatus is a point-in-time snapshot of a job, safe to hand out while
// workers are still running.
type JobStatus struct {
	JobID       string       `json:"job_id"`
	ProjectID   string       `json:"project_id"`
	State       State        `json:"state"`
	Progress    int          `json:"progress"` // integer percentage, monotonic
	TotalFiles  int          `json:"total_files"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt time.Time    `json:"completed_at,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// Job is the mutable record for one pipeline run. Workers touch only the
// atomic done counter; every other field is written by the orchestrator
// goroutine, under mu, and never again once the state turns terminal.
type Job struct {
	id         string
	projectID  string
	totalFiles int

	done      atomic.Int64 // files with a terminal outcome
	cancelled atomic.Bool
	cancel    context.CancelFunc

	mu          sync.Mutex
	state       State
	startedAt   time.Time
	completedAt time.Time
	diagnostics []Diagnostic
	result      *Result
	fatal       error
}

func newJob(id, projectID string, totalFiles int, cancel context.CancelFunc) *Job {
	return &Job{
		id:          id,
		projectID:   projectID,
		totalFiles:  totalFiles,
		cancel:      cancel,
		state:       StatePending,
		startedAt:   time.Now(),
		diagnostics: make([]Diagnostic, 0),
	}
}

// ID returns the job id.
func (j *Job) ID() string { return j.id }

// State returns the current state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Progress returns the integer percentage of files with a terminal
// outcome. Every outcome, success or failure, bumps the counter exactly
// once, so the value is non-decreasing and hits 100 only when the parsing
// stage has genuinely finished.
func (j *Job) Progress() int {
	if j.totalFiles == 0 {
		j.mu.Lock()
		state := j.state
		j.mu.Unlock()
		if state == StatePending || state == StateParsing {
			return 0
		}
		return 100
	}
	return int(j.done.Load()) * 100 / j.totalFiles
}

// fileDone records one terminal per-file outcome.
func (j *Job) fileDone() { j.done.Add(1) }

// markCancelled flips the cooperative cancellation flag and cancels the
// job context. Workers observe the flag at file boundaries.
func (j *Job) markCancelled() {
	j.cancelled.Store(true)
	if j.cancel != nil {
		j.cancel()
	}
}

func (j *Job) isCancelled() bool { return j.cancelled.Load() }

// transition moves the job to a new non-terminal state. It is a no-op
// returning false once the job is terminal.
func (j *Job) transition(to State) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Terminal() {
		return false
	}
	j.state = to
	return true
}

// setDiagnostics replaces the diagnostics list; called only by the
// orchestrator after a stage quiesces.
func (j *Job) setDiagnostics(diags []Diagnostic) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Terminal() {
		return
	}
	j.diagnostics = diags
}

func (j *Job) appendDiagnostics(diags []Diagnostic) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Terminal() {
		return
	}
	j.diagnostics = append(j.diagnostics, diags...)
}

// complete moves the job to Completed with its result.
func (j *Job) complete(res *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Terminal() {
		return
	}
	j.state = StateCompleted
	j.result = res
	j.completedAt = time.Now()
}

// fail moves the job to Failed with exactly one fatal error. Any partial
// result is discarded: no partial graph is considered valid.
func (j *Job) fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Terminal() {
		return
	}
	j.state = StateFailed
	j.fatal = err
	j.result = nil
	j.completedAt = time.Now()
}

// finishCancelled marks the job terminal after cancellation, keeping the
// diagnostics gathered so far.
func (j *Job) finishCancelled() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Terminal() {
		return
	}
	j.state = StateCancelled
	j.completedAt = time.Now()
}

// Result returns the completed result, or nil while non-terminal/failed.
func (j *Job) Result() *Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// Status snapshots the job.
func (j *Job) Status() JobStatus {
	progress := j.Progress()
	j.mu.Lock()
	defer j.mu.Unlock()
	st := JobStatus{
		JobID:       j.id,
		ProjectID:   j.projectID,
		State:       j.state,
		Progress:    progress,
		TotalFiles:  j.totalFiles,
		Diagnostics: append([]Diagnostic(nil), j.diagnostics...),
		StartedAt:   j.startedAt,
		CompletedAt: j.completedAt,
	}
	if j.fatal != nil {
		st.Error = j.fatal.Error()
	}
	return st
}
