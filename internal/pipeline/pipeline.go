// Package pipeline runs the fixed-order steps of one tracking call.
// Steps execute in order; local (fatal) errors abort immediately with their
// code preserved, and external-tool failures are handled by the Policy.
// Steps that already succeeded are never rolled back.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/logging"
)

// Step name constants.
const (
	StepValidate = "validate"
	StepProbe    = "probe"
	StepTrack    = "track"
	StepFallback = "fallback"
	StepStage    = "stage"
	StepRepro    = "repro"
	StepCommit   = "commit"
	StepPush     = "push"
)

// State is where a tracking call ended up.
type State string

// Terminal states. A failed step yields FailedAt(step).
const (
	StatePending     State = "pending"
	StateTracked     State = "tracked"
	StateMockTracked State = "mock-tracked"
	StateStaged      State = "staged"
	StateCommitted   State = "committed"
	StatePushed      State = "pushed"
)

// FailedAt returns the state for a failure in step.
func FailedAt(step string) State {
	return State("failed-at-" + step)
}

// Policy decides what a failed external step does to the call.
type Policy string

const (
	// PolicyWarn records the failure as a warning and returns no error.
	PolicyWarn Policy = "warn"
	// PolicyAbort returns an E_PARTIAL_PIPELINE error naming the step.
	PolicyAbort Policy = "abort"
)

// ParsePolicy validates a policy name; "" means PolicyWarn.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyWarn:
		return PolicyWarn, nil
	case PolicyAbort:
		return PolicyAbort, nil
	}
	return "", errors.NewWithDetails(errors.EInvalidConfig, "unknown on_tool_failure policy: "+s,
		map[string]string{"allowed": "warn, abort"})
}

// Warning represents a non-fatal problem recorded during the run.
type Warning struct {
	Step    string
	Code    errors.Code
	Message string
	Details map[string]string
}

// StepStatus is the per-step result.
type StepStatus string

const (
	StatusOK      StepStatus = "ok"
	StatusSkipped StepStatus = "skipped"
	StatusFailed  StepStatus = "failed"
)

// StepResult records what happened to one step.
type StepResult struct {
	Step   string
	Status StepStatus
	Err    error
}

// Outcome accumulates the result of a run. Steps fill in Hash and may add
// warnings through Warn.
type Outcome struct {
	Path     string
	State    State
	Hash     string
	Steps    []StepResult
	Warnings []Warning
}

// Warn records a non-fatal warning from step.
func (o *Outcome) Warn(step string, code errors.Code, msg string, details map[string]string) {
	o.Warnings = append(o.Warnings, Warning{Step: step, Code: code, Message: msg, Details: details})
}

// Step is one unit of the run.
type Step struct {
	Name string
	// When gates the step; nil always runs it. It is evaluated after the
	// preceding steps have run.
	When func() bool
	// Reaches is the state recorded when the step succeeds ("" keeps the
	// current state).
	Reaches State
	Run     func(ctx context.Context, out *Outcome) error
}

// Pipeline executes steps under a failure policy.
type Pipeline struct {
	Policy Policy
	Logger *slog.Logger
}

// New creates a pipeline. A nil logger discards output.
func New(policy Policy, logger *slog.Logger) *Pipeline {
	if policy == "" {
		policy = PolicyWarn
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pipeline{Policy: policy, Logger: logger}
}

// Run executes steps in order for path.
//
// Behavior:
//   - A fatal error (see errors.IsFatal) stops the run and is returned with
//     its code preserved; a plain error is wrapped as E_INTERNAL with the
//     step name in details.
//   - A non-fatal error marks the step failed, sets State to failed-at-<step>
//     and skips the remaining steps. Under PolicyWarn it becomes a Warning and
//     Run returns nil; under PolicyAbort Run returns E_PARTIAL_PIPELINE.
//   - The Outcome is returned in every case.
func (p *Pipeline) Run(ctx context.Context, path string, steps []Step) (*Outcome, error) {
	out := &Outcome{Path: path, State: StatePending}

	for i, step := range steps {
		if step.When != nil && !step.When() {
			out.Steps = append(out.Steps, StepResult{Step: step.Name, Status: StatusSkipped})
			continue
		}

		err := step.Run(ctx, out)
		if err == nil {
			out.Steps = append(out.Steps, StepResult{Step: step.Name, Status: StatusOK})
			if step.Reaches != "" {
				out.State = step.Reaches
			}
			p.Logger.Debug("step finished", "step", step.Name, "path", path, "state", out.State)
			continue
		}

		out.Steps = append(out.Steps, StepResult{Step: step.Name, Status: StatusFailed, Err: err})

		if errors.IsFatal(err) {
			return out, wrapStepError(err, step.Name)
		}

		reached := out.State
		out.State = FailedAt(step.Name)
		for _, rest := range steps[i+1:] {
			out.Steps = append(out.Steps, StepResult{Step: rest.Name, Status: StatusSkipped})
		}

		te, _ := errors.AsTothError(err)
		out.Warn(step.Name, te.Code, te.Msg, te.Details)
		p.Logger.Warn("step failed", "step", step.Name, "path", path, "code", string(te.Code), "error", te.Msg)

		if p.Policy == PolicyAbort {
			return out, errors.WrapWithDetails(errors.EPartialPipeline,
				"pipeline stopped at step "+step.Name+": "+te.Msg, err,
				map[string]string{"step": step.Name, "reached": string(reached), "cause": string(te.Code)})
		}
		return out, nil
	}
	return out, nil
}

// wrapStepError ensures the error is a *TothError.
// If already *TothError, returns it unchanged.
// Otherwise wraps it with E_INTERNAL and step name in details.
func wrapStepError(err error, stepName string) error {
	if _, ok := errors.AsTothError(err); ok {
		return err
	}
	return errors.WrapWithDetails(
		errors.EInternal,
		"internal error",
		err,
		map[string]string{"step": stepName},
	)
}
