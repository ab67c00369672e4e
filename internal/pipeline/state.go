package pipeline

import (
	"fmt"
	"sync"
	"time"
)

// StageResult is the outcome of exactly one stage execution. A result
// either succeeded with a value map or failed with an error; it also
// carries the stage's wall-clock duration for reporting.
type StageResult struct {
	Stage    string
	Value    map[string]any
	Err      error
	Duration time.Duration
}

// Failed reports whether the stage produced an error instead of a value.
func (r StageResult) Failed() bool {
	return r.Err != nil
}

// SharedState is the append-only store of stage outputs for one pipeline
// run. Each stage key is written exactly once, by the executor, after the
// stage function has fully returned. Stage functions only read from it.
type SharedState struct {
	mu      sync.RWMutex
	results map[string]StageResult
}

// NewSharedState creates an empty shared state.
func NewSharedState() *SharedState {
	return &SharedState{
		results: make(map[string]StageResult),
	}
}

// Seed publishes an input value under a reserved key before the run
// starts. It is how callers hand the initial input (activities, profile)
// to the stages. Seeding an existing key is an error.
func (s *SharedState) Seed(key string, value map[string]any) error {
	return s.set(StageResult{Stage: key, Value: value})
}

// Result returns the raw result for a stage, if one has been published.
func (s *SharedState) Result(stage string) (StageResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[stage]
	return r, ok
}

// Value looks up a single key in a stage's output. A missing stage, a
// failed stage, or a missing key all return false: dependents treat any
// of those as "no data" rather than an error.
func (s *SharedState) Value(stage, key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[stage]
	if !ok || r.Err != nil {
		return nil, false
	}
	v, ok := r.Value[key]
	return v, ok
}

// Len returns the number of published stage results.
func (s *SharedState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// set merges a result into the state. Write-once per key: a second write
// for the same stage is rejected so no stage can clobber another's
// published output.
func (s *SharedState) set(r StageResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.results[r.Stage]; exists {
		return fmt.Errorf("stage %q already has a published result", r.Stage)
	}
	s.results[r.Stage] = r
	return nil
}
