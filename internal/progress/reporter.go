// Package progress holds the latest-snapshot run state that long-running
// pipeline stages report into and observers poll.
package progress

import (
	"sync"

	"github.com/sells-group/mining-intel/internal/model"
)

// Reader is the read-only view handed to observers such as the status
// endpoint.
type Reader interface {
	Get() model.ProgressState
}

// Patch is a partial update. Nil fields leave the current value untouched.
// When Event is set and Message is nil, the message is rendered from the
// event.
type Patch struct {
	Stage       *model.ProgressStage
	Message     *string
	CurrentStep *int
	TotalSteps  *int
	Event       *model.Event
}

// Reporter owns the progress snapshot of one run. It is safe for concurrent
// use.
type Reporter struct {
	mu    sync.RWMutex
	state model.ProgressState
}

// NewReporter returns a reporter in the idle state.
func NewReporter() *Reporter {
	return &Reporter{state: idleState()}
}

func idleState() model.ProgressState {
	return model.ProgressState{
		Stage:   model.ProgressIdle,
		Message: "Ready",
	}
}

// Reset returns the reporter to the idle defaults.
func (r *Reporter) Reset() {
	r.mu.Lock()
	r.state = idleState()
	r.mu.Unlock()
}

// Update merges the provided fields into the current snapshot.
func (r *Reporter) Update(p Patch) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.Stage != nil {
		r.state.Stage = *p.Stage
	}
	if p.CurrentStep != nil {
		r.state.CurrentStep = *p.CurrentStep
	}
	if p.TotalSteps != nil {
		r.state.TotalSteps = *p.TotalSteps
	}
	if p.Event != nil {
		ev := *p.Event
		r.state.Details = &ev
		if p.Message == nil {
			r.state.Message = Render(ev)
		}
	}
	if p.Message != nil {
		r.state.Message = *p.Message
	}
}

// Get returns a copy of the current snapshot.
func (r *Reporter) Get() model.ProgressState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.state
	if s.Details != nil {
		d := *s.Details
		d.Queries = append([]string(nil), s.Details.Queries...)
		s.Details = &d
	}
	return s
}

// Emit is shorthand for the common update: a stage, step counters and an
// event in one merge.
func (r *Reporter) Emit(stage model.ProgressStage, current, total int, ev model.Event) {
	r.Update(Patch{
		Stage:       &stage,
		CurrentStep: &current,
		TotalSteps:  &total,
		Event:       &ev,
	})
}

// SetStage sets only the stage and event, keeping the step counters.
func (r *Reporter) SetStage(stage model.ProgressStage, ev model.Event) {
	r.Update(Patch{Stage: &stage, Event: &ev})
}
