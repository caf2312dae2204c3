// Package git provides repo discovery and thin git subcommand wrappers via
// CommandRunner.
package git

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/exec"
)

// RepoRoot holds the absolute path to a git repository root.
type RepoRoot struct {
	Path string // absolute, clean, no trailing newline
}

// GetRepoRoot discovers the git repository root from the given working directory.
// Uses `git rev-parse --show-toplevel` via CommandRunner.
//
// Returns E_NO_REPO if:
//   - Not inside a git repository (exit code != 0)
//   - Git outputs empty or multi-line stdout
//   - cwd is empty
//
// Returns E_TOOL_MISSING if git itself is absent.
func GetRepoRoot(ctx context.Context, cr exec.CommandRunner, cwd string) (RepoRoot, error) {
	if cwd == "" {
		return RepoRoot{}, errors.New(errors.ENoRepo, "working directory is empty")
	}

	result, err := cr.Run(ctx, "git", []string{"rev-parse", "--show-toplevel"}, exec.RunOpts{Dir: cwd})
	if exec.IsNotFound(result, err) {
		return RepoRoot{}, errors.Wrap(errors.EToolMissing, "git is not installed or not on PATH", err)
	}
	if err != nil {
		return RepoRoot{}, errors.Wrap(errors.ENoRepo, "failed to run git rev-parse", err)
	}

	if result.ExitCode != 0 {
		return RepoRoot{}, errors.New(errors.ENoRepo, "not inside a git repository")
	}

	out := strings.TrimSpace(result.Stdout)
	if out == "" {
		return RepoRoot{}, errors.New(errors.ENoRepo, "git rev-parse returned empty output")
	}
	if strings.Contains(out, "\n") {
		return RepoRoot{}, errors.New(errors.ENoRepo, "git rev-parse returned unexpected multi-line output")
	}

	var absPath string
	if filepath.IsAbs(out) {
		absPath = filepath.Clean(out)
	} else {
		absPath = filepath.Clean(filepath.Join(cwd, out))
	}

	absPath, err = filepath.Abs(absPath)
	if err != nil {
		return RepoRoot{}, errors.Wrap(errors.ENoRepo, "failed to resolve absolute path", err)
	}

	return RepoRoot{Path: absPath}, nil
}

// IsInsideRepo reports whether dir is inside a git work tree. A missing git
// binary reports false.
func IsInsideRepo(ctx context.Context, cr exec.CommandRunner, dir string) bool {
	result, err := cr.Run(ctx, "git", []string{"rev-parse", "--is-inside-work-tree"}, exec.RunOpts{Dir: dir})
	return err == nil && result.ExitCode == 0 && strings.TrimSpace(result.Stdout) == "true"
}

// HasCommits checks if the repository has at least one commit.
// Uses `git rev-parse --verify HEAD` via CommandRunner.
//
// Returns (false, error) only for execution failures (binary not found, etc.).
func HasCommits(ctx context.Context, cr exec.CommandRunner, repoRoot string) (bool, error) {
	result, err := cr.Run(ctx, "git", []string{"rev-parse", "--verify", "HEAD"}, exec.RunOpts{Dir: repoRoot})
	if err != nil {
		return false, errors.Wrap(errors.EInternal, "failed to run git rev-parse --verify HEAD", err)
	}
	return result.ExitCode == 0, nil
}

// GetOriginURL retrieves the origin remote URL using `git remote get-url origin`.
// Returns the URL if origin exists, or empty string if missing.
// Never returns an error; failures result in empty string.
func GetOriginURL(ctx context.Context, cr exec.CommandRunner, repoRoot string) string {
	result, err := cr.Run(ctx, "git", []string{"remote", "get-url", "origin"}, exec.RunOpts{Dir: repoRoot})
	if err != nil {
		return ""
	}
	if result.ExitCode != 0 {
		return ""
	}
	return strings.TrimSpace(result.Stdout)
}
