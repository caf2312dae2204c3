package commands

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/NielsdaWheelz/toth/internal/dvc"
	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/fs"
	"github.com/NielsdaWheelz/toth/internal/git"
	"github.com/NielsdaWheelz/toth/internal/pipeline"
	"github.com/NielsdaWheelz/toth/internal/render"
	"github.com/NielsdaWheelz/toth/internal/scaffold"
)

// InitOpts holds options for the init command.
type InitOpts struct {
	Force       bool // overwrite existing templates
	NoGitignore bool
	NoGit       bool
	NoDvc       bool
}

// Tool setup states reported by init.
const (
	SetupInitialized = "initialized"
	SetupExisting    = "existing"
	SetupSkipped     = "skipped"
	SetupFailed      = "failed"
	DockerAvailable  = "available"
	DockerMissing    = "missing"
)

// InitResult holds the result of the init command for output formatting.
type InitResult struct {
	ProjectRoot      string
	DirsCreated      []string
	TemplatesCreated []string
	TemplatesSkipped []string
	GitignoreState   scaffold.GitignoreResult
	Git              string
	Dvc              string
	Docker           string
	Warnings         []pipeline.Warning
}

// Init implements the `toth init` command.
// Creates the project layout and templates (never overwriting without
// --force), updates .gitignore, and initializes git and dvc when they are
// usable. Tool problems are warnings; filesystem problems are errors.
func Init(ctx context.Context, env *Env, dir string, opts InitOpts) error {
	root := dir
	if root == "" {
		root = env.Cwd
	} else if !filepath.IsAbs(root) {
		root = filepath.Join(env.Cwd, root)
	}
	if err := env.FS.MkdirAll(root, 0o755); err != nil {
		return errors.WrapWithDetails(errors.EPersistFailed, "cannot create project directory", err,
			map[string]string{"path": root})
	}

	result := InitResult{ProjectRoot: root}

	layout, err := scaffold.CreateLayout(env.FS, root)
	if err != nil {
		return err
	}
	result.DirsCreated = layout.Created

	templates, err := scaffold.CreateTemplates(env.FS, root, scaffold.TemplateData{Name: filepath.Base(root)}, opts.Force)
	if err != nil {
		return err
	}
	result.TemplatesCreated = templates.Created
	result.TemplatesSkipped = templates.Skipped

	if opts.NoGitignore {
		result.GitignoreState = scaffold.GitignoreSkipped
	} else {
		result.GitignoreState, err = scaffold.EnsureGitignore(env.FS, filepath.Join(root, ".gitignore"), scaffold.DefaultIgnoreEntries)
		if err != nil {
			return errors.Wrap(errors.EPersistFailed, "failed to update .gitignore", err)
		}
	}

	result.Git = initGit(ctx, env, root, opts, &result)
	result.Dvc = initDvc(ctx, env, root, opts, &result)

	result.Docker = DockerAvailable
	if !env.Prober.Installed("docker") {
		result.Docker = DockerMissing
		result.Warnings = append(result.Warnings, pipeline.Warning{
			Step:    "docker",
			Code:    errors.EToolMissing,
			Message: "docker_missing: docker is not installed; the Dockerfile cannot be built locally",
		})
	}

	if err := render.WriteKV(env.Stdout, initKV(result)); err != nil {
		return err
	}
	return render.WriteWarnings(env.Stderr, env.Styler, result.Warnings)
}

func initGit(ctx context.Context, env *Env, root string, opts InitOpts, result *InitResult) string {
	if opts.NoGit {
		return SetupSkipped
	}
	if git.IsInsideRepo(ctx, env.Runner, root) {
		return SetupExisting
	}
	if _, err := git.New(env.Runner, root).Init(ctx); err != nil {
		result.Warnings = append(result.Warnings, toolWarning("git", "git_skipped", err))
		return SetupFailed
	}
	return SetupInitialized
}

func initDvc(ctx context.Context, env *Env, root string, opts InitOpts, result *InitResult) string {
	if opts.NoDvc {
		return SetupSkipped
	}
	if ok, _ := fs.Exists(env.FS, filepath.Join(root, ".dvc")); ok {
		return SetupExisting
	}
	if !env.Prober.IsAvailable(ctx, "dvc", env.Config.Dvc.MinVersion) {
		result.Warnings = append(result.Warnings, pipeline.Warning{
			Step:    "dvc",
			Code:    errors.EToolMissing,
			Message: "dvc_skipped: dvc is not available; run `dvc init` once it is installed",
			Details: map[string]string{"min_version": env.Config.Dvc.MinVersion},
		})
		return SetupSkipped
	}
	if _, err := dvc.New(env.Runner, root).Init(ctx, true); err != nil {
		result.Warnings = append(result.Warnings, toolWarning("dvc", "dvc_skipped", err))
		return SetupFailed
	}
	return SetupInitialized
}

func toolWarning(step, key string, err error) pipeline.Warning {
	w := pipeline.Warning{Step: step, Code: errors.GetCode(err), Message: key + ": " + err.Error()}
	if te, ok := errors.AsTothError(err); ok {
		w.Message = key + ": " + te.Msg
		w.Details = te.Details
	}
	return w
}

// initKV returns the stable key: value output for init.
func initKV(r InitResult) []render.KV {
	return []render.KV{
		{Key: "project_root", Value: r.ProjectRoot},
		{Key: "dirs_created", Value: listOrNone(r.DirsCreated)},
		{Key: "templates_created", Value: listOrNone(r.TemplatesCreated)},
		{Key: "templates_skipped", Value: listOrNone(r.TemplatesSkipped)},
		{Key: "gitignore", Value: string(r.GitignoreState)},
		{Key: "git", Value: r.Git},
		{Key: "dvc", Value: r.Dvc},
		{Key: "docker", Value: r.Docker},
	}
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// absFrom resolves p against the working directory.
func absFrom(cwd, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cwd, p)
}
