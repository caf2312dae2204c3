package git

import (
	"context"
	"strconv"

	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/exec"
)

// Client runs git subcommands in Dir. Every method returns the completed
// Invocation alongside E_TOOL_MISSING (git absent) or E_EXTERNAL_COMMAND
// (non-zero exit, stderr in details).
type Client struct {
	Runner exec.CommandRunner
	Dir    string
}

// New returns a Client rooted at dir ("" means the caller's working directory).
func New(cr exec.CommandRunner, dir string) *Client {
	return &Client{Runner: cr, Dir: dir}
}

func (c *Client) run(ctx context.Context, args ...string) (exec.Invocation, error) {
	return exec.Invoke(ctx, c.Runner, c.Dir, "git", args)
}

// Init runs `git init`.
func (c *Client) Init(ctx context.Context) (exec.Invocation, error) {
	return c.run(ctx, "init")
}

// Add runs `git add [-f] <path>...`.
func (c *Client) Add(ctx context.Context, paths []string, force bool) (exec.Invocation, error) {
	if len(paths) == 0 {
		return exec.Invocation{}, errors.New(errors.EValidation, "git add needs at least one path")
	}
	args := []string{"add"}
	if force {
		args = append(args, "-f")
	}
	return c.run(ctx, append(args, paths...)...)
}

// Commit runs `git commit -m <msg> [-a]`. The message travels as a single
// argument and is never shell-interpolated.
func (c *Client) Commit(ctx context.Context, msg string, all bool) (exec.Invocation, error) {
	if msg == "" {
		return exec.Invocation{}, errors.New(errors.EValidation, "commit message is empty")
	}
	args := []string{"commit", "-m", msg}
	if all {
		args = append(args, "-a")
	}
	return c.run(ctx, args...)
}

// Push runs `git push [<remote> [<branch>]]`. A branch without a remote is
// pushed to origin.
func (c *Client) Push(ctx context.Context, remote, branch string) (exec.Invocation, error) {
	return c.run(ctx, remoteArgs("push", remote, branch)...)
}

// Pull runs `git pull [<remote> [<branch>]]`.
func (c *Client) Pull(ctx context.Context, remote, branch string) (exec.Invocation, error) {
	return c.run(ctx, remoteArgs("pull", remote, branch)...)
}

func remoteArgs(verb, remote, branch string) []string {
	args := []string{verb}
	if remote == "" && branch != "" {
		remote = "origin"
	}
	if remote != "" {
		args = append(args, remote)
	}
	if branch != "" {
		args = append(args, branch)
	}
	return args
}

// Status runs `git status [--short]`.
func (c *Client) Status(ctx context.Context, short bool) (exec.Invocation, error) {
	if short {
		return c.run(ctx, "status", "--short")
	}
	return c.run(ctx, "status")
}

// Branch lists branches (name == "", with -a when all) or creates name.
func (c *Client) Branch(ctx context.Context, name string, all bool) (exec.Invocation, error) {
	if name != "" {
		return c.run(ctx, "branch", name)
	}
	if all {
		return c.run(ctx, "branch", "-a")
	}
	return c.run(ctx, "branch")
}

// Checkout runs `git checkout [-b] <name>`.
func (c *Client) Checkout(ctx context.Context, name string, create bool) (exec.Invocation, error) {
	if name == "" {
		return exec.Invocation{}, errors.New(errors.EValidation, "checkout needs a branch name")
	}
	if create {
		return c.run(ctx, "checkout", "-b", name)
	}
	return c.run(ctx, "checkout", name)
}

// Log runs `git log [--oneline] [-n <n>]`; n <= 0 means no limit.
func (c *Client) Log(ctx context.Context, oneline bool, n int) (exec.Invocation, error) {
	args := []string{"log"}
	if oneline {
		args = append(args, "--oneline")
	}
	if n > 0 {
		args = append(args, "-n", strconv.Itoa(n))
	}
	return c.run(ctx, args...)
}

// RmCached runs `git rm --cached <path>`, untracking a file dvc should own.
func (c *Client) RmCached(ctx context.Context, path string) (exec.Invocation, error) {
	if path == "" {
		return exec.Invocation{}, errors.New(errors.EValidation, "rm --cached needs a path")
	}
	return c.run(ctx, "rm", "--cached", path)
}
