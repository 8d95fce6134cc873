package orchestrator

import (
	"sync"
	"time"

	"github.com/JakeFAU/firm-intel-crawler/internal/checkpoint"
	"github.com/JakeFAU/firm-intel-crawler/internal/metrics"
)

// TargetResult describes one finished target.
type TargetResult struct {
	Target   string
	Index    int
	Total    int
	Status   string
	Reason   string
	FirmName string
	Duration time.Duration
}

// Observer is notified of phase changes and target outcomes. Calls happen on
// the run goroutine, after the checkpoint has been saved.
type Observer interface {
	PhaseChanged(phase Phase, summary checkpoint.Summary)
	TargetFinished(result TargetResult, summary checkpoint.Summary)
}

// Observers fans out to several observers in order.
type Observers []Observer

// PhaseChanged implements Observer.
func (o Observers) PhaseChanged(phase Phase, summary checkpoint.Summary) {
	for _, obs := range o {
		obs.PhaseChanged(phase, summary)
	}
}

// TargetFinished implements Observer.
func (o Observers) TargetFinished(result TargetResult, summary checkpoint.Summary) {
	for _, obs := range o {
		obs.TargetFinished(result, summary)
	}
}

// MetricsObserver records Prometheus metrics.
type MetricsObserver struct{}

// PhaseChanged implements Observer.
func (MetricsObserver) PhaseChanged(_ Phase, summary checkpoint.Summary) {
	metrics.SetRemaining(summary.Remaining)
}

// TargetFinished implements Observer.
func (MetricsObserver) TargetFinished(result TargetResult, summary checkpoint.Summary) {
	metrics.ObserveTarget(result.Status, result.Reason, result.Duration)
	metrics.SetRemaining(summary.Remaining)
}

// Snapshot is the latest progress view, shared with the HTTP API.
type Snapshot struct {
	Phase   Phase              `json:"phase"`
	RunID   string             `json:"run_id,omitempty"`
	Summary checkpoint.Summary `json:"summary"`
	Last    *LastTarget        `json:"last_target,omitempty"`
	Updated time.Time          `json:"updated_at"`
}

// LastTarget is the JSON form of the most recent TargetResult.
type LastTarget struct {
	Target   string `json:"target"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
	FirmName string `json:"firm_name,omitempty"`
}

// Tracker keeps the latest Snapshot for concurrent readers.
type Tracker struct {
	mu    sync.RWMutex
	snap  Snapshot
	clock func() time.Time
}

// NewTracker creates a Tracker for runID.
func NewTracker(runID string) *Tracker {
	return &Tracker{
		snap:  Snapshot{Phase: PhaseInit, RunID: runID, Updated: time.Now().UTC()},
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// PhaseChanged implements Observer.
func (t *Tracker) PhaseChanged(phase Phase, summary checkpoint.Summary) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Phase = phase
	t.snap.Summary = summary
	t.snap.Updated = t.clock()
}

// TargetFinished implements Observer.
func (t *Tracker) TargetFinished(result TargetResult, summary checkpoint.Summary) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Summary = summary
	t.snap.Last = &LastTarget{
		Target:   result.Target,
		Status:   result.Status,
		Reason:   result.Reason,
		FirmName: result.FirmName,
	}
	t.snap.Updated = t.clock()
}

// Snapshot returns a copy of the latest progress.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap := t.snap
	if snap.Last != nil {
		last := *snap.Last
		snap.Last = &last
	}
	snap.Summary.Failures = append([]checkpoint.Failure(nil), snap.Summary.Failures...)
	return snap
}
