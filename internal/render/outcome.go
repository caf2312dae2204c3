package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/NielsdaWheelz/toth/internal/pipeline"
)

// KV is one `key: value` output line.
type KV struct {
	Key   string
	Value string
}

// WriteKV writes stable `key: value` lines in order.
func WriteKV(w io.Writer, pairs []KV) error {
	for _, p := range pairs {
		if _, err := fmt.Fprintf(w, "%s: %s\n", p.Key, p.Value); err != nil {
			return err
		}
	}
	return nil
}

// OutcomeKV returns the stable lines for a tracking outcome. The step list
// is `name=status` pairs in execution order.
func OutcomeKV(out *pipeline.Outcome) []KV {
	pairs := []KV{
		{"path", out.Path},
		{"state", string(out.State)},
	}
	if out.Hash != "" {
		pairs = append(pairs, KV{"md5", out.Hash})
	}
	steps := make([]string, 0, len(out.Steps))
	for _, s := range out.Steps {
		steps = append(steps, s.Step+"="+string(s.Status))
	}
	pairs = append(pairs,
		KV{"steps", strings.Join(steps, " ")},
		KV{"warnings", fmt.Sprintf("%d", len(out.Warnings))},
	)
	return pairs
}

// WriteWarnings writes one `warning: <code>: <message>` line per warning,
// followed by indented details sorted by key.
func WriteWarnings(w io.Writer, s *Styler, warnings []pipeline.Warning) error {
	if s == nil {
		s = PlainStyler()
	}
	for _, warn := range warnings {
		label := s.Warning("warning:")
		if _, err := fmt.Fprintf(w, "%s %s: %s\n", label, warn.Code, warn.Message); err != nil {
			return err
		}
		keys := make([]string, 0, len(warn.Details))
		for k := range warn.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := warn.Details[k]
			if v == "" {
				continue
			}
			if _, err := fmt.Fprintf(w, "  %s\n", s.Subtle(k+": "+oneLine(v))); err != nil {
				return err
			}
		}
	}
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
