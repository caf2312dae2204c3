// Package exec provides a stub-friendly interface for running external commands.
package exec

import (
	"bytes"
	"context"
	stderrors "errors"
	iofs "io/fs"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/NielsdaWheelz/toth/internal/logging"
)

// Exit codes reported when the process never produced one.
const (
	// ExitNotFound mirrors the shell's "command not found" status.
	ExitNotFound = 127
	// ExitStartFail is used for any other failure to start the process.
	ExitStartFail = -1
)

// ErrNotFound is returned (wrapped) when the executable cannot be resolved.
var ErrNotFound = stderrors.New("executable not found")

// CmdResult holds the result of a command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// StdoutLines splits stdout into lines, dropping the trailing empty line.
func (r CmdResult) StdoutLines() []string {
	return splitLines(r.Stdout)
}

// StderrLines splits stderr into lines, dropping the trailing empty line.
func (r CmdResult) StderrLines() []string {
	return splitLines(r.Stderr)
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// RunOpts holds optional parameters for command execution.
type RunOpts struct {
	Dir string            // working directory (optional, defaults to the caller's)
	Env map[string]string // extra environment variables (overlay)
}

// CommandRunner is the interface for running external commands.
// Implementations must be safe for stubbing in tests.
type CommandRunner interface {
	// Run executes a command and returns the result.
	// Returns CmdResult with ExitCode set if the process exits (even non-zero).
	// Returns error only for execution failures (binary not found, ctx canceled, io failure).
	Run(ctx context.Context, name string, args []string, opts RunOpts) (CmdResult, error)
}

// ToolPaths maps a tool name (git, dvc, ...) to the executable to invoke.
// Tools without an entry are resolved on PATH by name.
type ToolPaths map[string]string

// Resolve returns the configured executable for name, or name itself.
func (p ToolPaths) Resolve(name string) string {
	if path := strings.TrimSpace(p[name]); path != "" {
		return path
	}
	return name
}

// RealRunner is the production implementation of CommandRunner using os/exec.
type RealRunner struct {
	Paths  ToolPaths
	Logger *slog.Logger
}

// NewRealRunner creates a new RealRunner. Paths are resolved once here and
// never re-read from the environment.
func NewRealRunner(paths ToolPaths, logger *slog.Logger) *RealRunner {
	if logger == nil {
		logger = logging.Discard()
	}
	cp := make(ToolPaths, len(paths))
	for k, v := range paths {
		cp[k] = v
	}
	return &RealRunner{Paths: cp, Logger: logger}
}

// Run executes the command and captures stdout/stderr.
// Arguments are passed straight to the process; no shell is involved.
func (r *RealRunner) Run(ctx context.Context, name string, args []string, opts RunOpts) (CmdResult, error) {
	executable := r.Paths.Resolve(name)
	cmd := exec.CommandContext(ctx, executable, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}

	if len(opts.Env) > 0 {
		cmd.Env = cmd.Environ()
		for k, v := range opts.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	err := cmd.Run()

	result := CmdResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			r.Logger.Debug("command finished", "tool", name, "args", args, "exit_code", result.ExitCode)
			return result, nil
		}
		if stderrors.Is(err, exec.ErrNotFound) || stderrors.Is(err, iofs.ErrNotExist) {
			result.ExitCode = ExitNotFound
			r.Logger.Debug("command not found", "tool", name, "executable", executable)
			return result, &NotFoundError{Name: name, Executable: executable, Err: err}
		}
		result.ExitCode = ExitStartFail
		r.Logger.Debug("command failed to start", "tool", name, "error", err)
		return result, err
	}

	result.ExitCode = 0
	r.Logger.Debug("command finished", "tool", name, "args", args, "exit_code", 0)
	return result, nil
}

// NotFoundError reports an executable that could not be resolved.
type NotFoundError struct {
	Name       string
	Executable string
	Err        error
}

func (e *NotFoundError) Error() string {
	return e.Name + ": executable not found: " + e.Executable
}

// Is makes errors.Is(err, ErrNotFound) true.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err (or the result) indicates a missing executable.
func IsNotFound(result CmdResult, err error) bool {
	return stderrors.Is(err, ErrNotFound) || (err != nil && result.ExitCode == ExitNotFound)
}
