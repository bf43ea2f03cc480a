package service

import (
	"math"
	"sync"

	"github.com/UnendingLoop/ImageDrop/internal/model"
)

type Stage string

const (
	StageIdle       Stage = "idle"
	StageValidating Stage = "validating"
	StagePreviewing Stage = "previewing"
	StageSanitizing Stage = "sanitizing"
	StageUploading  Stage = "uploading"
	StageFinalizing Stage = "finalizing"
)

// NoProgress - значение-сентинел "нет активной загрузки"
const NoProgress = -1

const (
	sanitizeSpan = 30
	uploadSpan   = 70
)

// ProgressObserver sees every stage change and percentage update of one run.
// It is called with the state lock held and must not call back into the state.
type ProgressObserver func(batchID string, stage Stage, percent int)

// PipelineState is owned by exactly one Upload invocation.
type PipelineState struct {
	mu       sync.Mutex
	batchID  string
	stage    Stage
	percent  int
	base     int
	span     int
	total    int
	done     int
	observer ProgressObserver
}

func NewPipelineState(batchID string, observer ProgressObserver) *PipelineState {
	return &PipelineState{
		batchID:  batchID,
		stage:    StageIdle,
		percent:  NoProgress,
		observer: observer,
	}
}

// Snapshot returns the stage and the percentage (NoProgress when idle).
func (p *PipelineState) Snapshot() (Stage, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage, p.percent
}

func (p *PipelineState) enter(stage Stage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stage = stage
	p.notify()
}

// begin starts a counted stage: each completed item moves progress to
// base + round(done/total*span).
func (p *PipelineState) begin(stage Stage, total, base, span int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stage = stage
	p.total, p.done, p.base, p.span = total, 0, base, span
	p.raise(base)
	p.notify()
}

// completeItem is called once per settled item, in completion order.
func (p *PipelineState) completeItem() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total <= 0 || p.done >= p.total {
		return
	}
	p.done++
	p.raise(p.base + int(math.Round(float64(p.done)/float64(p.total)*float64(p.span))))
	p.notify()
}

func (p *PipelineState) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stage = StageIdle
	p.percent = NoProgress
	p.total, p.done = 0, 0
	p.notify()
}

// raise never lets the percentage go down within a run
func (p *PipelineState) raise(v int) {
	if v > 100 {
		v = 100
	}
	if v > p.percent {
		p.percent = v
	}
}

func (p *PipelineState) notify() {
	if p.observer != nil {
		p.observer(p.batchID, p.stage, p.percent)
	}
}

//---------------------

// ProgressRegistry exposes the states of in-flight runs by batch id.
type ProgressRegistry struct {
	mu     sync.RWMutex
	states map[string]*PipelineState
}

func NewProgressRegistry() *ProgressRegistry {
	return &ProgressRegistry{states: make(map[string]*PipelineState)}
}

func (r *ProgressRegistry) open(batchID string, observer ProgressObserver) (*PipelineState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.states[batchID]; ok {
		return nil, model.ErrBatchActive
	}
	st := NewPipelineState(batchID, observer)
	r.states[batchID] = st
	return st, nil
}

func (r *ProgressRegistry) close(batchID string, st *PipelineState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.states[batchID] == st {
		delete(r.states, batchID)
	}
}

// Get returns the current percentage of a batch; ok is false for unknown or idle batches.
func (r *ProgressRegistry) Get(batchID string) (stage Stage, percent int, ok bool) {
	r.mu.RLock()
	st, found := r.states[batchID]
	r.mu.RUnlock()
	if !found {
		return StageIdle, NoProgress, false
	}
	stage, percent = st.Snapshot()
	return stage, percent, percent != NoProgress
}
