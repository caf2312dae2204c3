package pipeline

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NielsdaWheelz/toth/internal/errors"
)

// recorder builds steps that log their names and return configured errors.
type recorder struct {
	errs   map[string]error
	called []string
}

func (r *recorder) step(name string, reaches State) Step {
	return Step{
		Name:    name,
		Reaches: reaches,
		Run: func(_ context.Context, _ *Outcome) error {
			r.called = append(r.called, name)
			return r.errs[name]
		},
	}
}

func (r *recorder) steps() []Step {
	return []Step{
		r.step(StepValidate, ""),
		r.step(StepTrack, StateTracked),
		r.step(StepCommit, StateCommitted),
		r.step(StepPush, StatePushed),
	}
}

func TestRun_AllStepsSucceed(t *testing.T) {
	r := &recorder{}
	out, err := New(PolicyWarn, nil).Run(context.Background(), "data/x.csv", r.steps())

	require.NoError(t, err)
	assert.Equal(t, "data/x.csv", out.Path)
	assert.Equal(t, StatePushed, out.State)
	assert.Equal(t, []string{StepValidate, StepTrack, StepCommit, StepPush}, r.called)
	assert.Empty(t, out.Warnings)
}

func TestRun_FatalErrorPreservesCode(t *testing.T) {
	r := &recorder{errs: map[string]error{
		StepValidate: errors.New(errors.EValidation, "path does not exist"),
	}}
	for _, policy := range []Policy{PolicyWarn, PolicyAbort} {
		r.called = nil
		out, err := New(policy, nil).Run(context.Background(), "x", r.steps())

		require.Error(t, err)
		assert.Equal(t, errors.EValidation, errors.GetCode(err))
		assert.Equal(t, []string{StepValidate}, r.called)
		assert.Equal(t, StatePending, out.State)
	}
}

func TestRun_WrapsPlainError(t *testing.T) {
	r := &recorder{errs: map[string]error{StepTrack: stderrors.New("boom")}}

	_, err := New(PolicyWarn, nil).Run(context.Background(), "x", r.steps())

	te, ok := errors.AsTothError(err)
	require.True(t, ok)
	assert.Equal(t, errors.EInternal, te.Code)
	assert.Equal(t, "internal error", te.Msg)
	assert.Equal(t, StepTrack, te.Details["step"])
	assert.EqualError(t, te.Cause, "boom")
}

func TestRun_WarnPolicyRecordsFailureAndStops(t *testing.T) {
	r := &recorder{errs: map[string]error{
		StepCommit: errors.NewWithDetails(errors.EExternalCommand, "git commit exited with status 1",
			map[string]string{"stderr": "nothing to commit"}),
	}}

	out, err := New(PolicyWarn, nil).Run(context.Background(), "x", r.steps())

	require.NoError(t, err)
	assert.Equal(t, FailedAt(StepCommit), out.State)
	assert.Equal(t, State("failed-at-commit"), out.State)
	assert.Equal(t, []string{StepValidate, StepTrack, StepCommit}, r.called)

	require.Len(t, out.Warnings, 1)
	assert.Equal(t, StepCommit, out.Warnings[0].Step)
	assert.Equal(t, errors.EExternalCommand, out.Warnings[0].Code)
	assert.Equal(t, "nothing to commit", out.Warnings[0].Details["stderr"])

	require.Len(t, out.Steps, 4)
	assert.Equal(t, StatusOK, out.Steps[1].Status)
	assert.Equal(t, StatusFailed, out.Steps[2].Status)
	assert.Equal(t, StatusSkipped, out.Steps[3].Status)
}

func TestRun_AbortPolicyReturnsPartialPipeline(t *testing.T) {
	r := &recorder{errs: map[string]error{
		StepPush: errors.New(errors.EExternalCommand, "git push exited with status 1"),
	}}

	out, err := New(PolicyAbort, nil).Run(context.Background(), "x", r.steps())

	te, ok := errors.AsTothError(err)
	require.True(t, ok)
	assert.Equal(t, errors.EPartialPipeline, te.Code)
	assert.Equal(t, StepPush, te.Details["step"])
	assert.Equal(t, string(StateCommitted), te.Details["reached"])
	assert.Equal(t, string(errors.EExternalCommand), te.Details["cause"])
	assert.Equal(t, errors.EExternalCommand, errors.GetCode(te.Cause))
	assert.Equal(t, FailedAt(StepPush), out.State)
}

func TestRun_WhenGatesSteps(t *testing.T) {
	available := false
	r := &recorder{}
	track := r.step(StepTrack, StateTracked)
	track.When = func() bool { return available }
	fallback := r.step(StepFallback, StateMockTracked)
	fallback.When = func() bool { return !available }

	out, err := New(PolicyWarn, nil).Run(context.Background(), "x", []Step{track, fallback})

	require.NoError(t, err)
	assert.Equal(t, StateMockTracked, out.State)
	assert.Equal(t, []string{StepFallback}, r.called)
	assert.Equal(t, StatusSkipped, out.Steps[0].Status)
}

func TestRun_StepCanWarnWithoutFailing(t *testing.T) {
	step := Step{Name: StepFallback, Reaches: StateMockTracked, Run: func(_ context.Context, out *Outcome) error {
		out.Hash = "abc"
		out.Warn(StepFallback, errors.EDvcMockFallback, "dvc unavailable", nil)
		return nil
	}}

	out, err := New("", nil).Run(context.Background(), "x", []Step{step})

	require.NoError(t, err)
	assert.Equal(t, "abc", out.Hash)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, errors.EDvcMockFallback, out.Warnings[0].Code)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyWarn, p)

	p, err = ParsePolicy("abort")
	require.NoError(t, err)
	assert.Equal(t, PolicyAbort, p)

	_, err = ParsePolicy("ignore")
	assert.Equal(t, errors.EInvalidConfig, errors.GetCode(err))
}
