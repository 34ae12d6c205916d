// Package skills defines the invocation contract shared by every skill:
// the untyped Payload used at the orchestration boundary, the Skill
// interface, the Result produced per invocation and the readiness states
// of a discovered skill unit.
package skills

import (
	"context"
	"time"
)

// Payload is the key/value document a skill consumes and produces.
type Payload map[string]any

// Clone returns a shallow copy of the payload. A nil payload clones to an
// empty, non-nil payload.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Skill is the capability contract every executable skill implements.
type Skill interface {
	Execute(ctx context.Context, input Payload) (Payload, error)
}

// Func adapts an ordinary function to the Skill interface.
type Func func(ctx context.Context, input Payload) (Payload, error)

// Execute calls f.
func (f Func) Execute(ctx context.Context, input Payload) (Payload, error) {
	return f(ctx, input)
}

// UnitStatus is the readiness of a discovered skill unit.
type UnitStatus string

const (
	// StatusReady marks a unit exposing a conforming Execute entry point
	StatusReady UnitStatus = "ready"
	// StatusDiscovered marks a unit that was found but cannot be invoked as-is
	StatusDiscovered UnitStatus = "discovered"
)

// ResultStatus is the outcome of a single invocation.
type ResultStatus string

const (
	// ResultSuccess means the skill ran to completion
	ResultSuccess ResultStatus = "SUCCESS"
	// ResultFailure means the skill could not be invoked or faulted
	ResultFailure ResultStatus = "FAILURE"
)

// Result is produced once per skill invocation. Output is only set on
// success and Error only on failure.
type Result struct {
	Skill     string        `json:"skill" yaml:"skill"`
	Status    ResultStatus  `json:"status" yaml:"status"`
	Output    Payload       `json:"output,omitempty" yaml:"output,omitempty"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	Input     Payload       `json:"input,omitempty" yaml:"input,omitempty"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// Succeeded reports whether the invocation completed without a fault.
func (r Result) Succeeded() bool {
	return r.Status == ResultSuccess
}

// Success builds a successful result.
func Success(skill string, output Payload) Result {
	if output == nil {
		output = Payload{}
	}
	return Result{Skill: skill, Status: ResultSuccess, Output: output}
}

// Failure builds a failed result from err.
func Failure(skill string, err error) Result {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Result{Skill: skill, Status: ResultFailure, Error: msg}
}
