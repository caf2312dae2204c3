// Package args turns structured stage and tracking inputs into ordered
// argument vectors for dvc and git. Every function here is pure.
package args

// Output flags understood by `dvc stage add`.
const (
	FlagDep    = "-d"
	FlagOut    = "-o"
	FlagMetric = "-M"
	FlagPlot   = "--plots"
	FlagParam  = "-p"

	FlagAlwaysChanged = "--always-changed"
)

// Output is one declared stage output.
type Output struct {
	Path   string `validate:"required"`
	Metric bool   // emitted as -M; never also as -o
	Plot   bool   // emitted as --plots unless Metric is set
}

// Flag returns the single flag this output is declared with.
func (o Output) Flag() string {
	switch {
	case o.Metric:
		return FlagMetric
	case o.Plot:
		return FlagPlot
	default:
		return FlagOut
	}
}

// BuildDeps returns ["-d", p1, "-d", p2, ...] in input order.
func BuildDeps(paths []string) []string {
	out := make([]string, 0, 2*len(paths))
	for _, p := range paths {
		out = append(out, FlagDep, p)
	}
	return out
}

// BuildOutputs interleaves each output path with exactly one of -M, --plots or -o.
func BuildOutputs(outputs []Output) []string {
	out := make([]string, 0, 2*len(outputs))
	for _, o := range outputs {
		out = append(out, o.Flag(), o.Path)
	}
	return out
}

// BuildParams returns ["-p", "name=value", ...] in the order the caller
// inserted the parameters.
func BuildParams(params Params) []string {
	out := make([]string, 0, 2*params.Len())
	for _, name := range params.keys {
		out = append(out, FlagParam, name+"="+params.values[name].Format())
	}
	return out
}

// BuildAlwaysChanged returns ["--always-changed"] when flag is set.
func BuildAlwaysChanged(flag bool) []string {
	if !flag {
		return []string{}
	}
	return []string{FlagAlwaysChanged}
}
