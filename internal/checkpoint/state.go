// Package checkpoint persists crawl progress so an interrupted or
// budget-limited run can resume without repeating finished targets.
package checkpoint

import (
	"slices"
	"time"
)

// Failure records why a target was not processed. The latest reason wins.
type Failure struct {
	Target string `json:"target"`
	Reason string `json:"reason"`
}

// State is the checkpoint document.
//
// Every processed target and every failed target is a member of AllTargets,
// and a target is never both processed and failed.
type State struct {
	AllTargets []string   `json:"all_targets"`
	Processed  []string   `json:"processed"`
	Failed     []Failure  `json:"failed"`
	StartTime  *time.Time `json:"start_time"`
}

// Summary is a read-only view of progress for status output.
type Summary struct {
	Total     int        `json:"total"`
	Processed int        `json:"processed"`
	Failed    int        `json:"failed"`
	Remaining int        `json:"remaining"`
	StartTime *time.Time `json:"start_time,omitempty"`
	Failures  []Failure  `json:"failures,omitempty"`
}

// IsZero reports whether the state has never been populated.
func (s State) IsZero() bool {
	return len(s.AllTargets) == 0 && len(s.Processed) == 0 && len(s.Failed) == 0 && s.StartTime == nil
}

// Clone returns a deep copy.
func (s *State) Clone() State {
	out := State{
		AllTargets: slices.Clone(s.AllTargets),
		Processed:  slices.Clone(s.Processed),
		Failed:     slices.Clone(s.Failed),
	}
	if s.StartTime != nil {
		t := *s.StartTime
		out.StartTime = &t
	}
	return out
}

// Reconcile merges a fresh target list into the state. When the known
// universe already set-equals fresh, its order is kept and Reconcile reports
// false. Otherwise the universe becomes the union, known targets first, and
// Reconcile reports true. No known target is ever dropped.
func (s *State) Reconcile(fresh []string) bool {
	if len(s.AllTargets) > 0 && sameSet(s.AllTargets, fresh) {
		return false
	}
	seen := make(map[string]struct{}, len(s.AllTargets)+len(fresh))
	merged := make([]string, 0, len(s.AllTargets)+len(fresh))
	for _, list := range [][]string{s.AllTargets, fresh} {
		for _, t := range list {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			merged = append(merged, t)
		}
	}
	s.AllTargets = merged
	return true
}

// ApplyFirstRunCap truncates the universe to its first n targets, but only
// while nothing has been processed. It reports whether the universe changed.
func (s *State) ApplyFirstRunCap(n int) bool {
	if n <= 0 || len(s.Processed) > 0 || len(s.AllTargets) <= n {
		return false
	}
	s.AllTargets = slices.Clone(s.AllTargets[:n])
	s.PruneToUniverse()
	return true
}

// PruneToUniverse drops processed and failed entries that are no longer in
// AllTargets.
func (s *State) PruneToUniverse() {
	universe := toSet(s.AllTargets)
	s.Processed = slices.DeleteFunc(s.Processed, func(t string) bool {
		_, ok := universe[t]
		return !ok
	})
	s.Failed = slices.DeleteFunc(s.Failed, func(f Failure) bool {
		_, ok := universe[f.Target]
		return !ok
	})
}

// Remaining lists unprocessed targets in universe order. Failed targets are
// included; a rerun retries them.
func (s *State) Remaining() []string {
	done := toSet(s.Processed)
	out := make([]string, 0, len(s.AllTargets))
	for _, t := range s.AllTargets {
		if _, ok := done[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// MarkProcessed records a success and clears any earlier failure.
func (s *State) MarkProcessed(target string) {
	s.Failed = slices.DeleteFunc(s.Failed, func(f Failure) bool { return f.Target == target })
	if !slices.Contains(s.Processed, target) {
		s.Processed = append(s.Processed, target)
	}
}

// MarkFailed records reason for target, replacing any earlier reason.
func (s *State) MarkFailed(target, reason string) {
	s.Processed = slices.DeleteFunc(s.Processed, func(t string) bool { return t == target })
	for i := range s.Failed {
		if s.Failed[i].Target == target {
			s.Failed[i].Reason = reason
			return
		}
	}
	s.Failed = append(s.Failed, Failure{Target: target, Reason: reason})
}

// FailureReason returns the recorded reason for target, if any.
func (s State) FailureReason(target string) (string, bool) {
	for _, f := range s.Failed {
		if f.Target == target {
			return f.Reason, true
		}
	}
	return "", false
}

// Summarize counts progress.
func (s *State) Summarize() Summary {
	clone := s.Clone()
	return Summary{
		Total:     len(s.AllTargets),
		Processed: len(s.Processed),
		Failed:    len(s.Failed),
		Remaining: len(s.Remaining()),
		StartTime: clone.StartTime,
		Failures:  clone.Failed,
	}
}

func sameSet(a, b []string) bool {
	as, bs := toSet(a), toSet(b)
	if len(as) != len(a) || len(as) != len(bs) {
		return false
	}
	for k := range as {
		if _, ok := bs[k]; !ok {
			return false
		}
	}
	return true
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		out[it] = struct{}{}
	}
	return out
}
