// Package exectest provides a recording CommandRunner for tests.
package exectest

import (
	"context"
	"strings"

	"github.com/NielsdaWheelz/toth/internal/exec"
)

// Call is one recorded invocation.
type Call struct {
	Name string
	Args []string
	Dir  string
}

// String renders the call as "name arg1 arg2".
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Response is what the fake returns for a matched call.
type Response struct {
	Result exec.CmdResult
	Err    error
}

// Runner records every call and answers from Responses, keyed by the
// longest matching "name arg1 arg2..." prefix. Unmatched calls succeed with
// empty output. Tools listed in Missing behave as absent executables.
type Runner struct {
	Responses map[string]Response
	Missing   map[string]bool
	Calls     []Call
}

// New returns an empty fake runner.
func New() *Runner {
	return &Runner{Responses: map[string]Response{}, Missing: map[string]bool{}}
}

// On registers a response for calls whose rendered form starts with prefix.
func (r *Runner) On(prefix string, result exec.CmdResult) *Runner {
	r.Responses[prefix] = Response{Result: result}
	return r
}

// Fail registers a non-zero exit with the given stderr.
func (r *Runner) Fail(prefix string, code int, stderr string) *Runner {
	return r.On(prefix, exec.CmdResult{ExitCode: code, Stderr: stderr})
}

// Without marks a tool as missing.
func (r *Runner) Without(tool string) *Runner {
	r.Missing[tool] = true
	return r
}

// Run implements exec.CommandRunner.
func (r *Runner) Run(_ context.Context, name string, args []string, opts exec.RunOpts) (exec.CmdResult, error) {
	call := Call{Name: name, Args: append([]string(nil), args...), Dir: opts.Dir}
	r.Calls = append(r.Calls, call)

	if r.Missing[name] {
		return exec.CmdResult{ExitCode: exec.ExitNotFound}, &exec.NotFoundError{Name: name, Executable: name, Err: exec.ErrNotFound}
	}

	rendered := call.String()
	best := ""
	found := false
	for prefix := range r.Responses {
		if strings.HasPrefix(rendered, prefix) && len(prefix) >= len(best) {
			best = prefix
			found = true
		}
	}
	if !found {
		return exec.CmdResult{}, nil
	}
	resp := r.Responses[best]
	return resp.Result, resp.Err
}

// Rendered returns every call in "name args" form.
func (r *Runner) Rendered() []string {
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.String()
	}
	return out
}

// CallsTo returns the calls made to the named tool.
func (r *Runner) CallsTo(name string) []Call {
	var out []Call
	for _, c := range r.Calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}
