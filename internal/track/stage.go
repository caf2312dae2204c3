package track

import (
	"context"
	"path/filepath"

	"github.com/NielsdaWheelz/toth/internal/args"
	"github.com/NielsdaWheelz/toth/internal/core"
	"github.com/NielsdaWheelz/toth/internal/dvc"
	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/fs"
	"github.com/NielsdaWheelz/toth/internal/pipeline"
)

// StageScriptDir holds scripts generated from inline stage bodies.
const StageScriptDir = ".toth/stages"

// StageOptions extend Options for pipeline stages.
type StageOptions struct {
	Options
	Run bool // dvc repro <name> after registration
}

// Stage registers spec as a dvc pipeline stage.
//
// Steps: validate (spec invariants, name unique in dvc.yaml unless Force),
// probe, stage (script file + dvc stage add + git add of the pipeline files),
// repro (opts.Run), commit, push. Missing dvc is an E_TOOL_MISSING failure
// of the stage step.
func (t *Tracker) Stage(ctx context.Context, spec args.StageSpec, opts StageOptions) (*pipeline.Outcome, error) {
	available := false

	steps := []pipeline.Step{
		{
			Name: pipeline.StepValidate,
			Run: func(context.Context, *pipeline.Outcome) error {
				return t.validateStage(spec)
			},
		},
		t.probeStep(&available),
		{
			Name:    pipeline.StepStage,
			Reaches: pipeline.StateStaged,
			Run: func(ctx context.Context, _ *pipeline.Outcome) error {
				if !available {
					return errors.NewWithDetails(errors.EToolMissing, "dvc is not available; stage "+spec.Name+" not registered",
						map[string]string{"tool": "dvc", "stage": spec.Name})
				}
				return t.addStage(ctx, spec)
			},
		},
		{
			Name: pipeline.StepRepro,
			When: func() bool { return opts.Run },
			Run: func(ctx context.Context, _ *pipeline.Outcome) error {
				_, err := t.dvc().Repro(ctx, spec.Name)
				return err
			},
		},
		t.commitStep(opts.Options, func() []string {
			// dvc.lock only exists after a repro.
			return t.existing(dvc.LockFile)
		}),
		t.pushStep(opts.Options),
	}

	return t.pipeline().Run(ctx, dvc.PipelineFile, steps)
}

func (t *Tracker) validateStage(spec args.StageSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if spec.Force {
		return nil
	}
	exists, err := dvc.HasStage(t.FS, t.resolve(dvc.PipelineFile), spec.Name)
	if err != nil {
		return err
	}
	if exists {
		return errors.NewWithDetails(errors.EValidation, "stage already exists: "+spec.Name+" (use --force to overwrite)",
			map[string]string{"stage": spec.Name})
	}
	return nil
}

// addStage writes the inline script (if any), registers the stage and
// stages the pipeline files. When registration fails the script is put back
// as it was: removed if it was created here, its old body restored otherwise.
func (t *Tracker) addStage(ctx context.Context, spec args.StageSpec) error {
	cmd := spec.Command
	restore := func() {}
	if spec.Script != "" {
		script := ScriptPath(spec.Name)
		full := t.resolve(script)
		previous, readErr := t.FS.ReadFile(full)
		if err := t.writeScript(script, spec.Script); err != nil {
			return err
		}
		restore = func() {
			if readErr != nil {
				_ = t.FS.Remove(full)
				return
			}
			if err := fs.WriteFileAtomic(t.FS, full, previous, 0755); err != nil {
				t.Logger.Warn("cannot restore stage script", "path", script, "error", err)
			}
		}
		cmd = core.ShellCommand("sh", script)
	}

	if _, err := t.dvc().StageAdd(ctx, spec, cmd); err != nil {
		restore()
		return err
	}

	files := t.existing(dvc.PipelineFile, dvc.LockFile)
	if spec.Script != "" {
		files = append(files, ScriptPath(spec.Name))
	}
	if len(files) == 0 {
		return nil
	}
	_, err := t.git().Add(ctx, files, false)
	return err
}

// ScriptPath returns where an inline stage body is written.
func ScriptPath(stage string) string {
	return filepath.ToSlash(filepath.Join(StageScriptDir, stage+".sh"))
}

func (t *Tracker) writeScript(rel, body string) error {
	full := t.resolve(rel)
	if err := t.FS.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return errors.WrapWithDetails(errors.EPersistFailed, "cannot create stage script directory", err,
			map[string]string{"path": filepath.Dir(rel)})
	}
	content := "#!/bin/sh\nset -e\n" + body
	if content[len(content)-1] != '\n' {
		content += "\n"
	}
	if err := fs.WriteFileAtomic(t.FS, full, []byte(content), 0755); err != nil {
		return errors.WrapWithDetails(errors.EPersistFailed, "cannot write stage script", err,
			map[string]string{"path": rel})
	}
	return nil
}

// existing filters project-relative paths down to those present on disk.
func (t *Tracker) existing(paths ...string) []string {
	var out []string
	for _, p := range paths {
		if ok, _ := fs.Exists(t.FS, t.resolve(p)); ok {
			out = append(out, p)
		}
	}
	return out
}
