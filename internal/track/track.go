// Package track records data artifacts with dvc and optionally commits and
// pushes the result with git. When dvc is unavailable it writes a mock
// sidecar so downstream steps can proceed.
package track

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/NielsdaWheelz/toth/internal/dvc"
	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/exec"
	"github.com/NielsdaWheelz/toth/internal/fs"
	"github.com/NielsdaWheelz/toth/internal/git"
	"github.com/NielsdaWheelz/toth/internal/logging"
	"github.com/NielsdaWheelz/toth/internal/pipeline"
	"github.com/NielsdaWheelz/toth/internal/sidecar"
)

// Availability answers whether a tool can be used.
type Availability interface {
	IsAvailable(ctx context.Context, tool, minVersion string) bool
}

// Options gate the optional git steps.
type Options struct {
	Message string // commit when non-empty
	Push    bool
	Remote  string
	Branch  string
}

// Tracker runs tracking calls against one project directory.
type Tracker struct {
	FS            fs.FS
	Runner        exec.CommandRunner
	Tools         Availability
	Dir           string // project root; "" is the working directory
	DvcMinVersion string
	Policy        pipeline.Policy
	Logger        *slog.Logger
}

// New returns a Tracker. A nil logger discards output.
func New(fsys fs.FS, cr exec.CommandRunner, tools Availability, dir string) *Tracker {
	return &Tracker{
		FS:     fsys,
		Runner: cr,
		Tools:  tools,
		Dir:    dir,
		Policy: pipeline.PolicyWarn,
		Logger: logging.Discard(),
	}
}

func (t *Tracker) pipeline() *pipeline.Pipeline {
	return pipeline.New(t.Policy, t.Logger)
}

func (t *Tracker) git() *git.Client { return git.New(t.Runner, t.Dir) }
func (t *Tracker) dvc() *dvc.Client { return dvc.New(t.Runner, t.Dir) }

// resolve maps a project-relative path onto the filesystem.
func (t *Tracker) resolve(p string) string {
	if t.Dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(t.Dir, p)
}

// Track records exactly one existing file. It returns the input path
// unchanged on every outcome except a validation failure, so calls chain.
//
// Steps: validate, probe, track (dvc add -f) or fallback (mock sidecar),
// commit (opts.Message), push (opts.Push).
func (t *Tracker) Track(ctx context.Context, paths []string, opts Options) (string, *pipeline.Outcome, error) {
	path := ""
	if len(paths) == 1 {
		path = paths[0]
	}
	available := false

	steps := []pipeline.Step{
		{
			Name: pipeline.StepValidate,
			Run: func(context.Context, *pipeline.Outcome) error {
				return t.validatePaths(paths)
			},
		},
		t.probeStep(&available),
		{
			Name:    pipeline.StepTrack,
			When:    func() bool { return available },
			Reaches: pipeline.StateTracked,
			Run: func(ctx context.Context, out *pipeline.Outcome) error {
				if _, err := t.dvc().Add(ctx, path, true, false); err != nil {
					return err
				}
				out.Hash = t.recordedHash(path)
				return nil
			},
		},
		{
			Name:    pipeline.StepFallback,
			When:    func() bool { return !available },
			Reaches: pipeline.StateMockTracked,
			Run: func(_ context.Context, out *pipeline.Outcome) error {
				sc, err := sidecar.Write(t.FS, t.resolve(path))
				if err != nil {
					return err
				}
				out.Hash = sc.Hash()
				out.Warn(pipeline.StepFallback, errors.EDvcMockFallback,
					"dvc is not available; wrote mock sidecar "+sidecar.PathFor(path),
					map[string]string{"sidecar": sidecar.PathFor(path)})
				return nil
			},
		},
		t.commitStep(opts, func() []string { return t.trackedFiles(path) }),
		t.pushStep(opts),
	}

	out, err := t.pipeline().Run(ctx, path, steps)
	if err != nil && errors.GetCode(err) == errors.EValidation {
		return "", out, err
	}
	return path, out, err
}

func (t *Tracker) validatePaths(paths []string) error {
	if len(paths) != 1 {
		return errors.NewWithDetails(errors.EValidation, "track takes exactly one path",
			map[string]string{"count": strconv.Itoa(len(paths))})
	}
	if paths[0] == "" {
		return errors.New(errors.EValidation, "path is empty")
	}
	ok, err := fs.IsRegularFile(t.FS, t.resolve(paths[0]))
	if err != nil {
		return errors.WrapWithDetails(errors.EValidation, "cannot stat path", err,
			map[string]string{"path": paths[0]})
	}
	if !ok {
		return errors.NewWithDetails(errors.EValidation, "path is not an existing file: "+paths[0],
			map[string]string{"path": paths[0]})
	}
	return nil
}

func (t *Tracker) probeStep(available *bool) pipeline.Step {
	return pipeline.Step{
		Name: pipeline.StepProbe,
		Run: func(ctx context.Context, _ *pipeline.Outcome) error {
			*available = t.Tools.IsAvailable(ctx, "dvc", t.DvcMinVersion)
			t.Logger.Debug("probed dvc", "available", *available, "min_version", t.DvcMinVersion)
			return nil
		},
	}
}

// commitStep stages files() (when non-empty) and commits with opts.Message.
func (t *Tracker) commitStep(opts Options, files func() []string) pipeline.Step {
	return pipeline.Step{
		Name:    pipeline.StepCommit,
		When:    func() bool { return opts.Message != "" },
		Reaches: pipeline.StateCommitted,
		Run: func(ctx context.Context, _ *pipeline.Outcome) error {
			g := t.git()
			if add := files(); len(add) > 0 {
				if _, err := g.Add(ctx, add, false); err != nil {
					return err
				}
			}
			_, err := g.Commit(ctx, opts.Message, false)
			return err
		},
	}
}

func (t *Tracker) pushStep(opts Options) pipeline.Step {
	return pipeline.Step{
		Name:    pipeline.StepPush,
		When:    func() bool { return opts.Push },
		Reaches: pipeline.StatePushed,
		Run: func(ctx context.Context, _ *pipeline.Outcome) error {
			_, err := t.git().Push(ctx, opts.Remote, opts.Branch)
			return err
		},
	}
}

// trackedFiles lists the sidecar and, when present, the .gitignore dvc
// maintains next to the artifact.
func (t *Tracker) trackedFiles(path string) []string {
	files := []string{sidecar.PathFor(path)}
	ignore := filepath.Join(filepath.Dir(path), ".gitignore")
	if ok, _ := fs.Exists(t.FS, t.resolve(ignore)); ok {
		files = append(files, ignore)
	}
	return files
}

// recordedHash prefers the hash dvc wrote and falls back to hashing the file.
func (t *Tracker) recordedHash(path string) string {
	if sc, err := sidecar.Read(t.FS, sidecar.PathFor(t.resolve(path))); err == nil && sc.Hash() != "" {
		return sc.Hash()
	}
	if sc, err := sidecar.Build(t.FS, t.resolve(path)); err == nil {
		return sc.Hash()
	}
	return ""
}
