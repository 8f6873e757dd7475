package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mining-intel/internal/metrics"
	"github.com/sells-group/mining-intel/internal/model"
	"github.com/sells-group/mining-intel/internal/store"
)

// ErrRunActive is returned when a run is requested while another is active.
var ErrRunActive = eris.New("orchestrator: a run is already active")

// RunFunc is one pipeline entry point: Orchestrator.Run or Discoverer.Run.
type RunFunc func(ctx context.Context) ([]model.ScrapingResult, error)

// Runner admits one run at a time and records run history.
type Runner struct {
	runs    store.RunStore
	metrics *metrics.Pipeline
	now     func() time.Time

	mu     sync.Mutex
	active *model.Run
	wg     sync.WaitGroup
}

// NewRunner creates a Runner. runs may be nil to skip history.
func NewRunner(runs store.RunStore, m *metrics.Pipeline) *Runner {
	return &Runner{runs: runs, metrics: m, now: time.Now}
}

// Active returns a copy of the running run, or nil.
func (r *Runner) Active() *model.Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return nil
	}
	c := *r.active
	return &c
}

// Execute runs fn synchronously and returns the finished run record. The
// returned error is fn's error or ErrRunActive.
func (r *Runner) Execute(ctx context.Context, kind model.RunKind, fn RunFunc) (model.Run, error) {
	run, err := r.acquire(ctx, kind)
	if err != nil {
		return model.Run{}, err
	}
	return r.execute(ctx, run, fn)
}

// Start runs fn in the background and returns the run record as started.
// ctx must outlive the run; request contexts are not suitable.
func (r *Runner) Start(ctx context.Context, kind model.RunKind, fn RunFunc) (model.Run, error) {
	run, err := r.acquire(ctx, kind)
	if err != nil {
		return model.Run{}, err
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_, _ = r.execute(ctx, run, fn)
	}()
	return run, nil
}

// Wait blocks until background runs finish.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) acquire(ctx context.Context, kind model.RunKind) (model.Run, error) {
	r.mu.Lock()
	if r.active != nil {
		r.mu.Unlock()
		return model.Run{}, ErrRunActive
	}
	run := model.Run{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    model.RunStatusRunning,
		StartedAt: r.now().UTC(),
	}
	r.active = &run
	r.mu.Unlock()

	r.save(ctx, run)
	return run, nil
}

func (r *Runner) execute(ctx context.Context, run model.Run, fn RunFunc) (model.Run, error) {
	defer func() {
		r.mu.Lock()
		r.active = nil
		r.mu.Unlock()
	}()

	log := zap.L().With(zap.String("run_id", run.ID), zap.String("kind", string(run.Kind)))
	log.Info("run: started")

	results, err := fn(ctx)
	finished := r.now().UTC()
	run.Results = results
	run.FinishedAt = &finished
	run.Status = model.RunStatusComplete
	if err != nil {
		run.Status = model.RunStatusFailed
		run.Error = err.Error()
		log.Error("run: failed", zap.Error(err))
	} else {
		log.Info("run: complete", zap.Duration("elapsed", finished.Sub(run.StartedAt)))
	}

	r.save(context.WithoutCancel(ctx), run)
	r.metrics.Run(string(run.Kind), string(run.Status))
	return run, err
}

func (r *Runner) save(ctx context.Context, run model.Run) {
	if r.runs == nil {
		return
	}
	if err := r.runs.SaveRun(ctx, run); err != nil {
		zap.L().Warn("run: save failed", zap.String("run_id", run.ID), zap.Error(err))
	}
}
