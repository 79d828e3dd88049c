package codescope

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codescope/codescope/internal/cache"
	"github.com/codescope/codescope/internal/jobstore"
	"github.com/codescope/codescope/internal/lang"
	"github.com/codescope/codescope/internal/risk"
)

// API errors.
var (
	ErrUnknownJob   = errors.New("unknown job id")
	ErrNotCompleted = errors.New("job has not completed")
)

// Publisher receives status updates as a job moves through the pipeline.
// Publishing is fire-and-forget: the engine neither waits for nor acts on
// delivery.
type Publisher interface {
	Publish(jobID string, state State, progress int)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(jobID string, state State, progress int)

func (f PublisherFunc) Publish(jobID string, state State, progress int) { f(jobID, state, progress) }

type nopPublisher struct{}

func (nopPublisher) Publish(string, State, int) {}

// Engine runs the analysis pipeline: parse files across a worker pool,
// build the dependency graph, compute metrics, score risk. Jobs run
// asynchronously; the engine tracks them until Close.
type Engine struct {
	registry    *lang.Registry
	cache       *cache.Cache
	scorer      risk.Scorer
	publisher   Publisher
	history     *jobstore.Store
	workers     int
	fileTimeout time.Duration
	cacheSize   int
	languages   map[string]bool // nil means all languages

	mu   sync.RWMutex
	jobs map[string]*Job
	wg   sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the parse worker pool size. Values below 1 fall back
// to the number of CPUs.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithFileTimeout bounds each individual file parse. Exceeding it records
// a per-file timeout diagnostic, never a job failure. Zero disables.
func WithFileTimeout(d time.Duration) Option {
	return func(e *Engine) { e.fileTimeout = d }
}

// WithCacheSize sets the content cache capacity in entries.
func WithCacheSize(n int) Option {
	return func(e *Engine) { e.cacheSize = n }
}

// WithScorer replaces the default weighted risk scorer, e.g. with a
// ScriptScorer or an external-model client.
func WithScorer(s risk.Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// WithPublisher wires a progress publisher.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithJobStore persists terminal job records to the given store. The
// engine takes ownership and closes it in Close.
func WithJobStore(s *jobstore.Store) Option {
	return func(e *Engine) { e.history = s }
}

// WithLanguages restricts full parsing to the given languages; files in
// other languages degrade to line counts.
func WithLanguages(languages ...string) Option {
	return func(e *Engine) {
		e.languages = make(map[string]bool, len(languages))
		for _, l := range languages {
			e.languages[l] = true
		}
	}
}

// WithAdapter registers or replaces a language adapter.
func WithAdapter(a lang.Adapter) Option {
	return func(e *Engine) { e.registry.Register(a) }
}

// New creates an Engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		registry:    lang.NewRegistry(),
		scorer:      risk.NewWeightedScorer(risk.DefaultWeights),
		publisher:   nopPublisher{},
		workers:     runtime.NumCPU(),
		fileTimeout: 10 * time.Second,
		cacheSize:   cache.DefaultSize,
		jobs:        make(map[string]*Job),
	}
	for _, opt := range opts {
		opt(e)
	}
	c, err := cache.New(e.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("codescope: %w", err)
	}
	e.cache = c
	return e, nil
}

// Submit accepts a project snapshot and starts an analysis job. The job
// runs detached from ctx; use Cancel to stop it.
func (e *Engine) Submit(ctx context.Context, snap Snapshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	jobID := uuid.NewString()
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	job := newJob(jobID, snap.ProjectID, len(snap.Files), cancel)

	e.mu.Lock()
	e.jobs[jobID] = job
	e.mu.Unlock()

	e.wg.Add(1)
	go e.run(runCtx, job, snap)
	return jobID, nil
}

// Status returns the current state, progress percentage, and diagnostics
// for a job.
func (e *Engine) Status(jobID string) (JobStatus, error) {
	job, err := e.job(jobID)
	if err != nil {
		return JobStatus{}, err
	}
	return job.Status(), nil
}

// Result returns the result of a Completed job. Any other state yields
// ErrNotCompleted.
func (e *Engine) Result(jobID string) (*Result, error) {
	job, err := e.job(jobID)
	if err != nil {
		return nil, err
	}
	res := job.Result()
	if res == nil {
		return nil, fmt.Errorf("%w: job %s is %s", ErrNotCompleted, jobID, job.State())
	}
	return res, nil
}

// Cancel requests cooperative cancellation. Workers stop at the next file
// boundary; partial results already computed are preserved on the job for
// diagnostics. Cancelling a terminal job is a no-op.
func (e *Engine) Cancel(jobID string) error {
	job, err := e.job(jobID)
	if err != nil {
		return err
	}
	if job.State().Terminal() {
		return nil
	}
	job.markCancelled()
	return nil
}

// CacheStats returns cumulative content-cache hit and miss counts.
func (e *Engine) CacheStats() (hits, misses int64) {
	return e.cache.Stats()
}

// Close waits for running jobs to reach a terminal state and releases
// resources.
func (e *Engine) Close() error {
	e.wg.Wait()
	if e.history != nil {
		return e.history.Close()
	}
	return nil
}

func (e *Engine) job(jobID string) (*Job, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	job, ok := e.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
	}
	return job, nil
}
