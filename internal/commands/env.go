// Package commands implements toth CLI commands.
package commands

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/NielsdaWheelz/toth/internal/config"
	"github.com/NielsdaWheelz/toth/internal/dvc"
	"github.com/NielsdaWheelz/toth/internal/exec"
	"github.com/NielsdaWheelz/toth/internal/fs"
	"github.com/NielsdaWheelz/toth/internal/git"
	"github.com/NielsdaWheelz/toth/internal/logging"
	"github.com/NielsdaWheelz/toth/internal/pipeline"
	"github.com/NielsdaWheelz/toth/internal/render"
	"github.com/NielsdaWheelz/toth/internal/store"
	"github.com/NielsdaWheelz/toth/internal/tools"
	"github.com/NielsdaWheelz/toth/internal/track"
)

// Env carries what every command needs. Stdout receives stable output;
// Stderr receives warnings and tool diagnostics.
type Env struct {
	Runner exec.CommandRunner
	FS     fs.FS
	Prober *tools.Prober
	Config config.Config
	Cwd    string
	Stdout io.Writer
	Stderr io.Writer
	Styler *render.Styler
	Logger *slog.Logger
	Now    func() time.Time
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return logging.Discard()
	}
	return e.Logger
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// projectRoot is the enclosing git repository root, or the working
// directory outside a repository.
func (e *Env) projectRoot(ctx context.Context) string {
	root, err := git.GetRepoRoot(ctx, e.Runner, e.Cwd)
	if err != nil {
		e.logger().Debug("no repository; using working directory", "cwd", e.Cwd, "error", err)
		return e.Cwd
	}
	return root.Path
}

// relPath maps a path given relative to the working directory onto the
// project root. Paths outside the root stay absolute.
func (e *Env) relPath(root, p string) string {
	if p == "" {
		return p
	}
	abs := p
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(e.Cwd, p)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs
	}
	return rel
}

func (e *Env) relPaths(root string, ps []string) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = e.relPath(root, p)
	}
	return out
}

func (e *Env) tracker(root string) *track.Tracker {
	t := track.New(e.FS, e.Runner, e.Prober, root)
	t.DvcMinVersion = e.Config.Dvc.MinVersion
	t.Policy = e.Config.Policy
	if t.Policy == "" {
		t.Policy = pipeline.PolicyWarn
	}
	t.Logger = e.logger()
	return t
}

// withGitDefaults fills remote and branch from configuration.
func (e *Env) withGitDefaults(opts track.Options) track.Options {
	if opts.Remote == "" {
		opts.Remote = e.Config.Git.Remote
	}
	if opts.Branch == "" {
		opts.Branch = e.Config.Git.Branch
	}
	return opts
}

func (e *Env) store(root string) *store.Store {
	dir := e.Config.Decisions.Dir
	if dir == "" {
		dir = store.DefaultDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return store.NewStore(e.FS, dir, e.now)
}

// Git returns a git client for the working directory.
func (e *Env) Git() *git.Client { return git.New(e.Runner, e.Cwd) }

// Dvc returns a dvc client for the working directory.
func (e *Env) Dvc() *dvc.Client { return dvc.New(e.Runner, e.Cwd) }

// writeOutcome renders a tracking outcome and its warnings. err is passed
// through so callers can return the result directly.
func (e *Env) writeOutcome(out *pipeline.Outcome, asJSON bool, err error) error {
	if out == nil {
		return err
	}
	var werr error
	if asJSON {
		werr = render.WriteOutcomeJSON(e.Stdout, out)
	} else {
		werr = render.WriteKV(e.Stdout, render.OutcomeKV(out))
	}
	if werr == nil {
		werr = render.WriteWarnings(e.Stderr, e.Styler, out.Warnings)
	}
	if err != nil {
		return err
	}
	return werr
}

// Passthrough echoes a wrapped tool's output and returns its error. On
// failure stderr is left to the error's details.
func (e *Env) Passthrough(inv exec.Invocation, err error) error {
	if inv.Stdout != "" {
		_, _ = io.WriteString(e.Stdout, inv.Stdout)
	}
	if inv.Stderr != "" && err == nil {
		_, _ = io.WriteString(e.Stderr, inv.Stderr)
	}
	e.logger().Debug("ran", "command", inv.String(), "exit_code", inv.ExitCode)
	return err
}
