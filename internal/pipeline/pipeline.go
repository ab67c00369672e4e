// Package pipeline implements the report computation engine: a registry
// of named stages with declared dependencies, executed as a directed
// acyclic graph. Independent stages run concurrently, a failed stage
// never aborts its siblings, and every stage ends up with exactly one
// result in the shared state.
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stridelab/stridecoach/internal/logging"
)

// ConfigurationError reports a malformed stage graph: a duplicate stage,
// a dependency on an undeclared stage, or a cycle. It is detected before
// any stage runs; a run that returns it executed nothing.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "pipeline configuration: " + e.Message
}

// StageFunc computes one stage's output from the shared state. It must
// tolerate failed or missing dependencies by degrading to a fallback
// value; returning an error marks this stage failed without affecting
// siblings.
type StageFunc func(ctx context.Context, state *SharedState) (map[string]any, error)

// Stage is a named computation unit with declared dependencies.
type Stage struct {
	Name      string
	DependsOn []string
	Fn        StageFunc
}

// Registry is the catalog of stages for one pipeline run.
type Registry struct {
	stages []Stage
}

// NewRegistry creates an empty stage registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a stage to the registry. Validation happens at Run time
// so registration order never matters.
func (r *Registry) Register(name string, dependsOn []string, fn StageFunc) {
	r.stages = append(r.stages, Stage{Name: name, DependsOn: dependsOn, Fn: fn})
}

// Stages returns the registered stages in registration order.
func (r *Registry) Stages() []Stage {
	return r.stages
}

// StageFailure is one recorded stage failure, in completion order.
type StageFailure struct {
	Stage   string
	Message string
}

// RunResult is everything the executor observed during one run.
type RunResult struct {
	RunID     string
	State     *SharedState
	Completed []string
	Durations map[string]time.Duration
	Failures  []StageFailure
}

// Executor schedules stages by topological readiness: a stage launches
// the moment every dependency has a published result, success or failure.
type Executor struct {
	logger *logrus.Logger
	tracer trace.Tracer
}

// NewExecutor creates an executor. The tracer is resolved from the global
// provider so runs show up as spans when telemetry is initialized.
func NewExecutor(logger *logrus.Logger) *Executor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Executor{
		logger: logger,
		tracer: otel.Tracer("stridecoach/pipeline"),
	}
}

// Run executes every stage in the registry and returns once each one has
// a result. The only error it can return is a *ConfigurationError; stage
// failures are isolated, recorded in the result, and never propagated.
//
// The context carries the overall deadline: once it expires, in-flight
// stages finish naturally, nothing new launches, and stages that never
// launched receive a synthetic timeout failure.
func (e *Executor) Run(ctx context.Context, reg *Registry, state *SharedState) (*RunResult, error) {
	if err := validate(reg); err != nil {
		return nil, err
	}
	if state == nil {
		state = NewSharedState()
	}

	runID := uuid.New().String()
	log := e.logger.WithFields(logrus.Fields{
		"run_id": runID,
		"stages": len(reg.stages),
	})
	log.Info("Starting pipeline run")

	ctx, span := e.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.Int("pipeline.stage_count", len(reg.stages))))
	defer span.End()

	result := &RunResult{
		RunID:     runID,
		State:     state,
		Durations: make(map[string]time.Duration, len(reg.stages)),
	}

	done := make(map[string]bool, len(reg.stages))
	launched := make(map[string]bool, len(reg.stages))
	results := make(chan StageResult, len(reg.stages))
	inFlight := 0

	ready := func(s Stage) bool {
		if launched[s.Name] {
			return false
		}
		for _, dep := range s.DependsOn {
			if !done[dep] {
				return false
			}
		}
		return true
	}

	launchReady := func() {
		if ctx.Err() != nil {
			return
		}
		for _, s := range reg.stages {
			if !ready(s) {
				continue
			}
			launched[s.Name] = true
			inFlight++
			go e.runStage(ctx, s, state, results)
		}
	}

	launchReady()

	for len(done) < len(reg.stages) {
		if inFlight == 0 {
			// Deadline hit before the remaining stages could launch.
			e.failUnlaunched(ctx, reg, launched, done, state, result)
			break
		}

		r := <-results
		inFlight--

		if err := state.set(r); err != nil {
			// Cannot happen while the executor owns all writes.
			log.WithError(err).Error("Dropped duplicate stage result")
			continue
		}
		done[r.Stage] = true
		result.Completed = append(result.Completed, r.Stage)
		result.Durations[r.Stage] = r.Duration
		if r.Failed() {
			result.Failures = append(result.Failures, StageFailure{
				Stage:   r.Stage,
				Message: r.Err.Error(),
			})
			log.WithFields(logrus.Fields{
				"stage":       r.Stage,
				"duration_ms": r.Duration.Milliseconds(),
			}).WithError(r.Err).Warn("Stage failed, continuing with siblings")
		}

		launchReady()
	}

	log.WithFields(logrus.Fields{
		"completed": len(result.Completed),
		"failures":  len(result.Failures),
	}).Info("Pipeline run finished")

	return result, nil
}

// runStage executes one stage function, converting panics into stage
// failures so a broken estimator never takes the run down.
func (e *Executor) runStage(ctx context.Context, s Stage, state *SharedState, results chan<- StageResult) {
	start := time.Now()

	_, span := e.tracer.Start(ctx, "pipeline.stage."+s.Name,
		trace.WithAttributes(attribute.String("pipeline.stage", s.Name)))
	defer span.End()

	var value map[string]any
	var err error

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("stage panicked: %v", rec)
				logging.WithStage(e.logger, s.Name).
					WithField("stack", string(debug.Stack())).
					Error("Recovered panicking stage")
			}
		}()
		value, err = s.Fn(ctx, state)
	}()

	results <- StageResult{
		Stage:    s.Name,
		Value:    value,
		Err:      err,
		Duration: time.Since(start),
	}
}

// failUnlaunched records a synthetic timeout failure for every stage that
// never got to run because the overall deadline expired.
func (e *Executor) failUnlaunched(ctx context.Context, reg *Registry, launched, done map[string]bool, state *SharedState, result *RunResult) {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = context.DeadlineExceeded
	}
	for _, s := range reg.stages {
		if launched[s.Name] || done[s.Name] {
			continue
		}
		r := StageResult{
			Stage: s.Name,
			Err:   fmt.Errorf("not started before pipeline deadline: %w", cause),
		}
		if err := state.set(r); err != nil {
			continue
		}
		done[s.Name] = true
		result.Completed = append(result.Completed, s.Name)
		result.Durations[s.Name] = 0
		result.Failures = append(result.Failures, StageFailure{
			Stage:   s.Name,
			Message: r.Err.Error(),
		})
	}
}

// validate rejects malformed graphs before anything runs: duplicate
// names, dependencies on undeclared stages, and cycles.
func validate(reg *Registry) error {
	if len(reg.stages) == 0 {
		return &ConfigurationError{Message: "no stages registered"}
	}

	byName := make(map[string]Stage, len(reg.stages))
	for _, s := range reg.stages {
		if s.Name == "" {
			return &ConfigurationError{Message: "stage with empty name"}
		}
		if s.Fn == nil {
			return &ConfigurationError{Message: fmt.Sprintf("stage %q has no function", s.Name)}
		}
		if _, dup := byName[s.Name]; dup {
			return &ConfigurationError{Message: fmt.Sprintf("duplicate stage %q", s.Name)}
		}
		byName[s.Name] = s
	}

	for _, s := range reg.stages {
		for _, dep := range s.DependsOn {
			if _, ok := byName[dep]; !ok {
				return &ConfigurationError{
					Message: fmt.Sprintf("stage %q depends on undeclared stage %q", s.Name, dep),
				}
			}
			if dep == s.Name {
				return &ConfigurationError{Message: fmt.Sprintf("stage %q depends on itself", s.Name)}
			}
		}
	}

	// Kahn's algorithm: anything left over after peeling ready stages is
	// part of a cycle.
	indegree := make(map[string]int, len(reg.stages))
	dependents := make(map[string][]string, len(reg.stages))
	for _, s := range reg.stages {
		indegree[s.Name] = len(s.DependsOn)
		for _, dep := range s.DependsOn {
			dependents[dep] = append(dependents[dep], s.Name)
		}
	}

	var queue []string
	for name, deg := range indegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}
	visited := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range dependents[name] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if visited != len(reg.stages) {
		var cyclic []string
		for name, deg := range indegree {
			if deg > 0 {
				cyclic = append(cyclic, name)
			}
		}
		sort.Strings(cyclic)
		return &ConfigurationError{Message: fmt.Sprintf("dependency cycle involving %v", cyclic)}
	}

	return nil
}
