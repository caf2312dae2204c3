package commands

import (
	"context"

	"github.com/NielsdaWheelz/toth/internal/args"
	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/track"
)

// TrackOpts holds options for the track command.
type TrackOpts struct {
	track.Options
	JSON bool
}

// Track implements `toth track <path>`.
func Track(ctx context.Context, env *Env, path string, opts TrackOpts) error {
	root := env.projectRoot(ctx)
	_, out, err := env.tracker(root).Track(ctx, []string{env.relPath(root, path)}, env.withGitDefaults(opts.Options))
	return env.writeOutcome(out, opts.JSON, err)
}

// StageOpts holds options for the stage add command.
type StageOpts struct {
	track.StageOptions
	ScriptFile string // read into the spec's inline script
	JSON       bool
}

// StageAdd implements `toth stage add`. Dependency and output paths are
// taken relative to the working directory.
func StageAdd(ctx context.Context, env *Env, spec args.StageSpec, opts StageOpts) error {
	root := env.projectRoot(ctx)

	if opts.ScriptFile != "" {
		if spec.Command != "" {
			return errors.New(errors.EUsage, "give either a command or --script, not both")
		}
		body, err := env.FS.ReadFile(absFrom(env.Cwd, opts.ScriptFile))
		if err != nil {
			return errors.WrapWithDetails(errors.EValidation, "cannot read script", err,
				map[string]string{"path": opts.ScriptFile})
		}
		spec.Script = string(body)
	}

	spec.Deps = env.relPaths(root, spec.Deps)
	outputs := make([]args.Output, len(spec.Outputs))
	for i, o := range spec.Outputs {
		o.Path = env.relPath(root, o.Path)
		outputs[i] = o
	}
	spec.Outputs = outputs

	opts.Options = env.withGitDefaults(opts.Options)
	out, err := env.tracker(root).Stage(ctx, spec, opts.StageOptions)
	return env.writeOutcome(out, opts.JSON, err)
}
