// Package orchestrator runs the resumable crawl: it reconciles the target
// list with the checkpoint, processes remaining targets one at a time within
// a wall-clock budget, and saves progress after every outcome.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/firm-intel-crawler/internal/checkpoint"
	"github.com/JakeFAU/firm-intel-crawler/internal/crawler"
	"github.com/JakeFAU/firm-intel-crawler/internal/metrics"
)

// Phase is a state of the run state machine.
type Phase string

// Phases in the order a run moves through them.
const (
	PhaseInit        Phase = "INIT"
	PhaseReconciling Phase = "RECONCILING"
	PhaseRunning     Phase = "RUNNING"
	PhaseTimedOut    Phase = "TIMED_OUT"
	PhaseCompleted   Phase = "COMPLETED"
	PhaseInterrupted Phase = "INTERRUPTED"
)

// DefaultBudget is the wall-clock window for one run.
const DefaultBudget = 3600 * time.Second

// Builder produces the crawl unit for one target.
type Builder interface {
	Build(ctx context.Context, target string) crawler.CrawlUnit
}

// Config tunes a run.
type Config struct {
	Budget     time.Duration
	MaxTargets int
}

// Deps are the collaborators a run needs.
type Deps struct {
	Store      checkpoint.Store
	Builder    Builder
	Extractor  crawler.Extractor
	Insights   crawler.InsightExtractor
	Records    crawler.RecordStore
	Clock      crawler.Clock
	Observer   Observer
	Logger     *zap.Logger
	TargetList func() []string
}

// Report summarizes one invocation.
type Report struct {
	Outcome   Phase
	Attempted int
	Succeeded int
	Failed    int
	Remaining int
}

// Orchestrator drives the state machine.
type Orchestrator struct {
	cfg  Config
	deps Deps
}

// New validates deps and builds an Orchestrator.
func New(cfg Config, deps Deps) (*Orchestrator, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("checkpoint store is required")
	case deps.Builder == nil:
		return nil, errors.New("crawl unit builder is required")
	case deps.Extractor == nil:
		return nil, errors.New("extractor is required")
	case deps.Records == nil:
		return nil, errors.New("record store is required")
	case deps.Clock == nil:
		return nil, errors.New("clock is required")
	case deps.TargetList == nil:
		return nil, errors.New("target list is required")
	}
	if cfg.Budget <= 0 {
		cfg.Budget = DefaultBudget
	}
	if deps.Observer == nil {
		deps.Observer = Observers{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Orchestrator{cfg: cfg, deps: deps}, nil
}

// Run performs one invocation. It returns after at most one budget timeout,
// when every remaining target has been attempted, or at the first target
// boundary after ctx is cancelled. The checkpoint is resumable in all cases.
func (o *Orchestrator) Run(ctx context.Context) Report {
	logger := o.deps.Logger

	// INIT
	state := o.deps.Store.Load(ctx)
	fresh := o.deps.TargetList()
	o.enter(PhaseInit, &state)
	logger.Info("run initialized",
		zap.String("phase", string(PhaseInit)),
		zap.Int("fresh_targets", len(fresh)),
		zap.Int("known_targets", len(state.AllTargets)),
		zap.Int("processed", len(state.Processed)),
	)

	// RECONCILING
	o.enter(PhaseReconciling, &state)
	changed := state.Reconcile(fresh)
	if changed {
		logger.Info("target list merged with checkpoint",
			zap.String("phase", string(PhaseReconciling)),
			zap.Int("targets", len(state.AllTargets)))
	} else {
		logger.Info("using target list from checkpoint", zap.String("phase", string(PhaseReconciling)))
	}
	if len(state.Processed) > 0 {
		logger.Info("resuming, first-run cap ignored", zap.String("phase", string(PhaseReconciling)))
	} else if state.ApplyFirstRunCap(o.cfg.MaxTargets) {
		changed = true
		logger.Info("first run capped",
			zap.String("phase", string(PhaseReconciling)),
			zap.Int("max_targets", o.cfg.MaxTargets))
	}
	if changed {
		o.save(ctx, state)
	}

	remaining := state.Remaining()
	report := Report{Remaining: len(remaining)}
	if len(remaining) == 0 {
		logger.Info("all targets already processed", zap.Int("total", len(state.AllTargets)))
		return o.complete(ctx, &state, report)
	}

	// RUNNING
	o.enter(PhaseRunning, &state)
	if state.StartTime == nil {
		now := o.deps.Clock.Now()
		state.StartTime = &now
		o.save(ctx, state)
	}
	start := *state.StartTime
	logger.Info("processing targets",
		zap.String("phase", string(PhaseRunning)),
		zap.Int("processed", len(state.Processed)),
		zap.Int("total", len(state.AllTargets)),
		zap.Int("remaining", len(remaining)),
		zap.Time("window_start", start),
	)

	for i, target := range remaining {
		if err := ctx.Err(); err != nil {
			logger.Warn("run interrupted, progress saved",
				zap.String("phase", string(PhaseInterrupted)),
				zap.Int("remaining", len(remaining)-i))
			o.save(ctx, state)
			report.Remaining = len(state.Remaining())
			report.Outcome = PhaseInterrupted
			o.finish(&state, report)
			return report
		}
		if elapsed := o.deps.Clock.Now().Sub(start); elapsed >= o.cfg.Budget {
			state.StartTime = nil
			o.save(ctx, state)
			logger.Warn("budget exhausted, progress saved; rerun to continue",
				zap.String("phase", string(PhaseTimedOut)),
				zap.Duration("elapsed", elapsed),
				zap.Int("remaining", len(remaining)-i))
			report.Remaining = len(state.Remaining())
			report.Outcome = PhaseTimedOut
			o.finish(&state, report)
			return report
		}

		if prev, ok := state.FailureReason(target); ok {
			logger.Info("retrying previously failed target",
				zap.String("target", target),
				zap.String("previous_reason", prev))
		}
		began := o.deps.Clock.Now()
		outcome := o.process(context.WithoutCancel(ctx), target, i+1, len(remaining))
		outcome.Duration = o.deps.Clock.Now().Sub(began)
		report.Attempted++
		if outcome.Status == StatusProcessed {
			state.MarkProcessed(target)
			report.Succeeded++
		} else {
			state.MarkFailed(target, outcome.Reason)
			report.Failed++
		}
		o.save(ctx, state)
		o.deps.Observer.TargetFinished(outcome, state.Summarize())
	}

	report.Remaining = len(state.Remaining())
	logger.Info("every remaining target attempted",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("total", len(state.AllTargets)))
	return o.complete(ctx, &state, report)
}

func (o *Orchestrator) complete(ctx context.Context, state *checkpoint.State, report Report) Report {
	report.Outcome = PhaseCompleted
	if len(state.Failed) > 0 {
		o.deps.Logger.Warn("archiving checkpoint with failed targets; rerun with a fresh list to retry them",
			zap.Int("failed", len(state.Failed)),
			zap.Int("total", len(state.AllTargets)))
	}
	if err := o.deps.Store.Archive(context.WithoutCancel(ctx)); err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			o.deps.Logger.Debug("no checkpoint to archive")
		} else {
			o.deps.Logger.Error("archive checkpoint failed", zap.Error(err))
		}
	}
	o.deps.Logger.Info("run completed", zap.String("phase", string(PhaseCompleted)))
	o.finish(state, report)
	return report
}

func (o *Orchestrator) finish(state *checkpoint.State, report Report) {
	metrics.ObserveRun(string(report.Outcome))
	o.enter(report.Outcome, state)
}

func (o *Orchestrator) enter(phase Phase, state *checkpoint.State) {
	o.deps.Observer.PhaseChanged(phase, state.Summarize())
}

// save persists state. A failed write is logged and the in-memory run goes on.
func (o *Orchestrator) save(ctx context.Context, state checkpoint.State) {
	if err := o.deps.Store.Save(context.WithoutCancel(ctx), state); err != nil {
		o.deps.Logger.Error("checkpoint save failed", zap.Error(err))
	}
}
