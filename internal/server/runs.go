package server

import (
	"sort"
	"sync"
	"time"

	"github.com/mariolpantunes/optviewer/internal/stream"
)

// RunState represents the current state of a streamed run
type RunState string

const (
	StateRunning  RunState = "running"
	StateFinished RunState = "finished"
	StateFailed   RunState = "failed"
)

// Run is the live view of one open stream
type Run struct {
	ID          string    `json:"id"`
	State       RunState  `json:"state"`
	Algorithm   string    `json:"algorithm"`
	Function    string    `json:"function"`
	Initializer string    `json:"initializer"`
	Epochs      int       `json:"epochs"`
	PopSize     int       `json:"pop_size"`
	Epoch       int       `json:"epoch"`
	BestScore   *float64  `json:"best_score,omitempty"`
	StartTime   time.Time `json:"start_time"`
	Error       string    `json:"error,omitempty"`
}

// RunTracker keeps the runs whose stream is still open. A run is removed as
// soon as its stream closes; nothing is retained afterwards.
type RunTracker struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewRunTracker creates an empty tracker
func NewRunTracker() *RunTracker {
	return &RunTracker{runs: make(map[string]*Run)}
}

// Add registers a run that is about to stream
func (rt *RunTracker) Add(id string, req stream.Request) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.runs[id] = &Run{
		ID:          id,
		State:       StateRunning,
		Algorithm:   req.Algorithm,
		Function:    req.Function,
		Initializer: req.Initializer,
		Epochs:      req.Epochs,
		PopSize:     req.PopSize,
		Epoch:       -1,
		StartTime:   time.Now(),
	}
}

// Observe updates the run from one of its events
func (rt *RunTracker) Observe(id string, ev stream.Event) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	run, ok := rt.runs[id]
	if !ok {
		return
	}
	switch ev.Kind {
	case stream.EventEpoch:
		best := ev.Epoch.BestScore
		run.Epoch = ev.Epoch.Epoch
		run.BestScore = &best
	case stream.EventError:
		run.State = StateFailed
		run.Error = ev.Err
	case stream.EventDone:
		if run.State == StateRunning {
			run.State = StateFinished
		}
	}
}

// Get returns a copy of the run
func (rt *RunTracker) Get(id string) (Run, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	run, ok := rt.runs[id]
	if !ok {
		return Run{}, false
	}
	return *run, true
}

// Remove forgets the run
func (rt *RunTracker) Remove(id string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	delete(rt.runs, id)
}

// List returns copies of the open runs, oldest first
func (rt *RunTracker) List() []Run {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	runs := make([]Run, 0, len(rt.runs))
	for _, run := range rt.runs {
		runs = append(runs, *run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartTime.Equal(runs[j].StartTime) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].StartTime.Before(runs[j].StartTime)
	})
	return runs
}
