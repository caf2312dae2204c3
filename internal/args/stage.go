package args

import (
	stderrors "errors"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/NielsdaWheelz/toth/internal/errors"
)

// StageSpec describes one pipeline stage to register with `dvc stage add`.
type StageSpec struct {
	Name    string   `validate:"required,stagename"`
	Command string   `validate:"required_without=Script"`
	Script  string   `validate:"required_without=Command"` // inline script body; see track.Stage
	Deps    []string `validate:"dive,required"`
	Outputs []Output `validate:"dive"`
	Params  Params   `validate:"-"`

	AlwaysChanged bool
	Force         bool // overwrite an existing stage of the same name
}

// A leading "-" would be parsed by dvc as a flag.
var stageNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

var stageValidate *validator.Validate

func init() {
	stageValidate = validator.New()
	_ = stageValidate.RegisterValidation("stagename", func(fl validator.FieldLevel) bool {
		return stageNameRe.MatchString(fl.Field().String())
	})
}

// Validate rejects bad names, missing commands and empty paths. A path may not
// be declared twice, so an output is never both plain and a metric.
func (s StageSpec) Validate() error {
	if err := stageValidate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.NewWithDetails(errors.EValidation,
				"invalid stage spec: "+fe.Namespace()+" failed "+fe.Tag(),
				map[string]string{"field": fe.Namespace(), "rule": fe.Tag()})
		}
		return errors.Wrap(errors.EValidation, "invalid stage spec", err)
	}

	seenDeps := make(map[string]bool, len(s.Deps))
	for _, d := range s.Deps {
		if seenDeps[d] {
			return errors.NewWithDetails(errors.EValidation, "dependency declared twice: "+d,
				map[string]string{"path": d})
		}
		seenDeps[d] = true
	}

	seenOuts := make(map[string]string, len(s.Outputs))
	for _, o := range s.Outputs {
		if prev, ok := seenOuts[o.Path]; ok {
			return errors.NewWithDetails(errors.EValidation,
				"output declared twice ("+prev+" and "+o.Flag()+"): "+o.Path,
				map[string]string{"path": o.Path})
		}
		seenOuts[o.Path] = o.Flag()
	}
	return nil
}

// StageArgs assembles the full `dvc stage add` argument vector:
//
//	stage add [--force] -n <name> [-d dep]... [-o|-M|--plots out]... [-p k=v]... [--always-changed] <cmd>
//
// cmd is passed as the final single argument; dvc stores it verbatim.
func StageArgs(s StageSpec, cmd string) []string {
	out := []string{"stage", "add"}
	if s.Force {
		out = append(out, "--force")
	}
	out = append(out, "-n", s.Name)
	out = append(out, BuildDeps(s.Deps)...)
	out = append(out, BuildOutputs(s.Outputs)...)
	out = append(out, BuildParams(s.Params)...)
	out = append(out, BuildAlwaysChanged(s.AlwaysChanged)...)
	return append(out, cmd)
}

// MergeOutputs combines the CLI's separate --out/--metric/--plot lists into
// ordered Outputs. A path repeated across lists is kept twice so that
// Validate can reject it.
func MergeOutputs(outs, metrics, plots []string) []Output {
	merged := make([]Output, 0, len(outs)+len(metrics)+len(plots))
	for _, p := range outs {
		merged = append(merged, Output{Path: p})
	}
	for _, p := range metrics {
		merged = append(merged, Output{Path: p, Metric: true})
	}
	for _, p := range plots {
		merged = append(merged, Output{Path: p, Plot: true})
	}
	return merged
}
