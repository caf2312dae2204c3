// Package dvc wraps the dvc subcommands toth drives.
package dvc

import (
	"context"

	"github.com/NielsdaWheelz/toth/internal/args"
	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/exec"
)

// Files dvc maintains at the project root for pipelines.
const (
	PipelineFile = "dvc.yaml"
	LockFile     = "dvc.lock"
)

// Client runs dvc subcommands in Dir. Errors follow exec.Invoke.
type Client struct {
	Runner exec.CommandRunner
	Dir    string
}

// New returns a Client rooted at dir.
func New(cr exec.CommandRunner, dir string) *Client {
	return &Client{Runner: cr, Dir: dir}
}

func (c *Client) run(ctx context.Context, a ...string) (exec.Invocation, error) {
	return exec.Invoke(ctx, c.Runner, c.Dir, "dvc", a)
}

// Init runs `dvc init [--quiet]`.
func (c *Client) Init(ctx context.Context, quiet bool) (exec.Invocation, error) {
	if quiet {
		return c.run(ctx, "init", "--quiet")
	}
	return c.run(ctx, "init")
}

// Add runs `dvc add [-f] [--recursive] <path>`.
func (c *Client) Add(ctx context.Context, path string, force, recursive bool) (exec.Invocation, error) {
	if path == "" {
		return exec.Invocation{}, errors.New(errors.EValidation, "dvc add needs a path")
	}
	a := []string{"add"}
	if force {
		a = append(a, "-f")
	}
	if recursive {
		a = append(a, "--recursive")
	}
	return c.run(ctx, append(a, path)...)
}

// Commit runs `dvc commit --force --quiet <path>`.
func (c *Client) Commit(ctx context.Context, path string) (exec.Invocation, error) {
	return c.run(ctx, "commit", "--force", "--quiet", path)
}

// StageAdd registers spec with `dvc stage add`, using cmd as the stage command.
// spec must already pass Validate.
func (c *Client) StageAdd(ctx context.Context, spec args.StageSpec, cmd string) (exec.Invocation, error) {
	return c.run(ctx, args.StageArgs(spec, cmd)...)
}

// Repro runs `dvc repro [<stage>]`.
func (c *Client) Repro(ctx context.Context, stage string) (exec.Invocation, error) {
	if stage == "" {
		return c.run(ctx, "repro")
	}
	return c.run(ctx, "repro", stage)
}

// Push runs `dvc push [--remote <r>] [<path>]`.
func (c *Client) Push(ctx context.Context, remote, path string) (exec.Invocation, error) {
	return c.run(ctx, transferArgs("push", remote, path)...)
}

// Pull runs `dvc pull [--remote <r>] [<path>]`.
func (c *Client) Pull(ctx context.Context, remote, path string) (exec.Invocation, error) {
	return c.run(ctx, transferArgs("pull", remote, path)...)
}

func transferArgs(verb, remote, path string) []string {
	a := []string{verb}
	if remote != "" {
		a = append(a, "--remote", remote)
	}
	if path != "" {
		a = append(a, path)
	}
	return a
}
