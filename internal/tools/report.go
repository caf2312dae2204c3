package tools

import "context"

// Requirement names a tool the project uses.
type Requirement struct {
	Tool       string
	MinVersion string
	Required   bool // false: absence only degrades behaviour (mock tracking, no docker)
}

// Status is the probe outcome for one Requirement.
type Status struct {
	Requirement
	Installed bool
	Version   string
	OK        bool
	Err       error
}

// DefaultRequirements lists the tools a reproducible-analytics project drives.
// dvcMin may be empty.
func DefaultRequirements(dvcMin string) []Requirement {
	return []Requirement{
		{Tool: "git", Required: true},
		{Tool: "dvc", MinVersion: dvcMin},
		{Tool: "docker"},
		{Tool: "quarto"},
	}
}

// Report probes every requirement in order.
func (p *Prober) Report(ctx context.Context, reqs []Requirement) []Status {
	out := make([]Status, 0, len(reqs))
	for _, r := range reqs {
		st := Status{Requirement: r, Installed: p.Installed(r.Tool)}
		if st.Installed {
			st.Version, st.Err = p.Version(ctx, r.Tool)
			switch {
			case st.Err != nil:
			case r.MinVersion == "":
				st.OK = true
			default:
				st.OK, st.Err = AtLeast(st.Version, r.MinVersion)
			}
		}
		out = append(out, st)
	}
	return out
}

// MissingRequired returns the required tools that are not usable.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, s := range statuses {
		if s.Required && !s.OK {
			missing = append(missing, s.Tool)
		}
	}
	return missing
}
