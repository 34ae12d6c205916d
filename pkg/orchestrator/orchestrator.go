// Package orchestrator invokes loaded skills through a uniform contract and
// chains them into sequential workflows.
package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/jingkaihe/skillctl/pkg/logger"
	"github.com/jingkaihe/skillctl/pkg/skills"
	"github.com/jingkaihe/skillctl/pkg/telemetry"
	skilltypes "github.com/jingkaihe/skillctl/pkg/types/skills"
	"github.com/pkg/errors"
)

// DefaultTimeout bounds a single skill invocation.
const DefaultTimeout = 5 * time.Minute

// ExecutionError describes why an invocation failed.
type ExecutionError struct {
	Skill string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("skill %s failed: %v", e.Skill, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Orchestrator runs skills from a loaded skill set. The set is read-only
// after construction.
type Orchestrator struct {
	skills         map[string]*skills.Unit
	timeout        time.Duration
	abortOnFailure bool
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithTimeout bounds each invocation. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.timeout = d
		}
	}
}

// WithAbortOnFailure stops a workflow at the first failed step.
func WithAbortOnFailure(abort bool) Option {
	return func(o *Orchestrator) {
		o.abortOnFailure = abort
	}
}

// New creates an orchestrator over the loaded skill set.
func New(loaded map[string]*skills.Unit, opts ...Option) *Orchestrator {
	set := make(map[string]*skills.Unit, len(loaded))
	for name, unit := range loaded {
		set[name] = unit
	}

	o := &Orchestrator{
		skills:  set,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Skill returns the loaded unit with the given name.
func (o *Orchestrator) Skill(name string) (*skills.Unit, bool) {
	unit, ok := o.skills[name]
	return unit, ok
}

// RunSkill invokes a single skill by name. It never panics: unknown or
// non-executable skills, returned errors, panics and timeouts all become
// FAILURE results.
func (o *Orchestrator) RunSkill(ctx context.Context, name string, input skilltypes.Payload) skilltypes.Result {
	start := time.Now()
	log := logger.G(ctx).WithField("skill", name)

	var result skilltypes.Result
	_ = telemetry.WithSpan(ctx, "skill.run", func(ctx context.Context) error {
		result = o.runSkill(ctx, name, input)
		telemetry.SetAttributes(ctx, telemetry.SkillStatus.String(string(result.Status)))
		if !result.Succeeded() {
			return errors.New(result.Error)
		}
		return nil
	}, telemetry.SkillName.String(name))

	result.StartedAt = start
	result.Duration = time.Since(start)

	log = log.WithField("status", result.Status).WithField("duration", result.Duration)
	if result.Succeeded() {
		log.Debug("skill completed")
	} else {
		log.WithField("error", result.Error).Warn("skill failed")
	}
	return result
}

func (o *Orchestrator) runSkill(ctx context.Context, name string, input skilltypes.Payload) skilltypes.Result {
	unit, ok := o.skills[name]
	if !ok {
		return skilltypes.Failure(name, errors.Errorf("skill not found: %s", name))
	}
	if !unit.Ready() {
		return skilltypes.Failure(name, errors.Errorf("skill not executable: %s", name))
	}

	effective := input.Clone()
	output, err := o.invoke(ctx, unit, effective)

	var result skilltypes.Result
	if err != nil {
		result = skilltypes.Failure(name, &ExecutionError{Skill: name, Err: err})
	} else {
		result = skilltypes.Success(name, output)
	}
	result.Input = effective
	return result
}

type outcome struct {
	output skilltypes.Payload
	err    error
}

// invoke calls the skill in its own goroutine so the caller can stop
// waiting when the timeout fires. The goroutine is abandoned on timeout.
func (o *Orchestrator) invoke(ctx context.Context, unit *skills.Unit, input skilltypes.Payload) (skilltypes.Payload, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.G(ctx).WithField("skill", unit.Name).
					WithField("stack", string(debug.Stack())).
					Debug("recovered skill panic")
				done <- outcome{err: errors.Errorf("panic: %v", r)}
			}
		}()
		out, err := unit.Skill.Execute(ctx, input.Clone())
		done <- outcome{output: out, err: err}
	}()

	select {
	case res := <-done:
		return res.output, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.Errorf("timed out after %s", o.timeout)
		}
		return nil, errors.Wrap(ctx.Err(), "invocation cancelled")
	}
}

// RunWorkflow executes steps in order. The output of every successful step
// is merged into the context seen by later steps; explicit step input wins
// over inherited keys. The returned slice always has one result per step.
func (o *Orchestrator) RunWorkflow(ctx context.Context, steps []Step) []skilltypes.Result {
	return o.run(ctx, "", steps, o.abortOnFailure)
}

// RunWorkflowFile executes a parsed workflow definition. The workflow's
// abort_on_failure overrides the orchestrator default when set.
func (o *Orchestrator) RunWorkflowFile(ctx context.Context, wf *Workflow) []skilltypes.Result {
	abort := o.abortOnFailure
	if wf.AbortOnFailure != nil {
		abort = *wf.AbortOnFailure
	}
	return o.run(ctx, wf.Name, wf.Steps, abort)
}

func (o *Orchestrator) run(ctx context.Context, name string, steps []Step, abort bool) []skilltypes.Result {
	runID := uuid.New().String()
	log := logger.G(ctx).WithField("run_id", runID)
	if name != "" {
		log = log.WithField("workflow", name)
	}
	ctx = logger.WithLogger(ctx, log)

	results := make([]skilltypes.Result, 0, len(steps))

	telemetry.WithSpanFunc(ctx, "workflow.run", func(ctx context.Context) {
		state := NewContext()
		for i, step := range steps {
			if len(results) > 0 && abort && !results[len(results)-1].Succeeded() {
				failed := results[len(results)-1].Skill
				for _, rest := range steps[i:] {
					results = append(results, skilltypes.Failure(rest.Skill,
						errors.Errorf("skipped: previous step %s failed", failed)))
				}
				log.WithField("skipped", len(steps)-i).Warn("workflow aborted")
				break
			}

			result := o.RunSkill(ctx, step.Skill, state.Merge(step.Input))
			results = append(results, result)

			if result.Succeeded() {
				state = state.With(result.Output)
			}
		}

		summary := Summarize(results)
		telemetry.SetAttributes(ctx,
			telemetry.WorkflowSteps.Int(len(steps)),
			telemetry.WorkflowSucceeded.Int(summary.Succeeded),
			telemetry.WorkflowFailed.Int(summary.Failed),
		)
		log.WithField("succeeded", summary.Succeeded).WithField("failed", summary.Failed).Info("workflow finished")
	}, telemetry.WorkflowRunID.String(runID), telemetry.WorkflowName.String(name))

	return results
}

// Summary counts workflow outcomes.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// OK reports whether every step succeeded.
func (s Summary) OK() bool {
	return s.Failed == 0
}

// Summarize counts successes and failures.
func Summarize(results []skilltypes.Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Succeeded() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}
