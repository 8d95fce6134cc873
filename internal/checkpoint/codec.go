package checkpoint

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Encode renders state as indented JSON with empty lists instead of nulls.
func Encode(state State) ([]byte, error) {
	out := state.Clone()
	if out.AllTargets == nil {
		out.AllTargets = []string{}
	}
	if out.Processed == nil {
		out.Processed = []string{}
	}
	if out.Failed == nil {
		out.Failed = []Failure{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode checkpoint: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a checkpoint document and repairs entries that break the
// state invariants.
func Decode(data []byte) (State, error) {
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("decode checkpoint: %w", err)
	}
	state.AllTargets = dedupe(state.AllTargets)
	state.Processed = dedupe(state.Processed)
	state.Failed = dedupeFailures(state.Failed)
	state.PruneToUniverse()
	done := toSet(state.Processed)
	state.Failed = slices.DeleteFunc(state.Failed, func(f Failure) bool {
		_, ok := done[f.Target]
		return ok
	})
	return state, nil
}

// dedupe keeps the first occurrence of each entry.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	return slices.DeleteFunc(items, func(t string) bool {
		if _, ok := seen[t]; ok {
			return true
		}
		seen[t] = struct{}{}
		return false
	})
}

// dedupeFailures keeps one entry per target, in first position with the last
// reason.
func dedupeFailures(failed []Failure) []Failure {
	out := make([]Failure, 0, len(failed))
	index := make(map[string]int, len(failed))
	for _, f := range failed {
		if i, ok := index[f.Target]; ok {
			out[i].Reason = f.Reason
			continue
		}
		index[f.Target] = len(out)
		out = append(out, f)
	}
	return out
}
