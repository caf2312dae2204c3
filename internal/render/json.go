package render

import (
	"encoding/json"
	"io"

	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/pipeline"
)

// SchemaVersion of the --json envelopes.
const SchemaVersion = "1.0"

// OutcomeJSON is the public contract for `track --json` and
// `stage add --json`.
type OutcomeJSON struct {
	Path     string        `json:"path"`
	State    string        `json:"state"`
	MD5      *string       `json:"md5"`
	Steps    []StepJSON    `json:"steps"`
	Warnings []WarningJSON `json:"warnings"`
}

// StepJSON is one executed or skipped step.
type StepJSON struct {
	Step   string  `json:"step"`
	Status string  `json:"status"`
	Code   *string `json:"error_code"`
}

// WarningJSON is one non-fatal problem.
type WarningJSON struct {
	Step    string            `json:"step"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// OutcomeEnvelope wraps OutcomeJSON with a schema version.
type OutcomeEnvelope struct {
	SchemaVersion string       `json:"schema_version"`
	Data          *OutcomeJSON `json:"data"`
}

// NewOutcomeJSON converts an outcome to its JSON form.
func NewOutcomeJSON(out *pipeline.Outcome) *OutcomeJSON {
	j := &OutcomeJSON{
		Path:     out.Path,
		State:    string(out.State),
		Steps:    []StepJSON{},
		Warnings: []WarningJSON{},
	}
	if out.Hash != "" {
		h := out.Hash
		j.MD5 = &h
	}
	for _, s := range out.Steps {
		sj := StepJSON{Step: s.Step, Status: string(s.Status)}
		if s.Err != nil {
			code := string(errors.GetCode(s.Err))
			sj.Code = &code
		}
		j.Steps = append(j.Steps, sj)
	}
	for _, w := range out.Warnings {
		j.Warnings = append(j.Warnings, WarningJSON{
			Step:    w.Step,
			Code:    string(w.Code),
			Message: w.Message,
			Details: w.Details,
		})
	}
	return j
}

// WriteOutcomeJSON writes the outcome envelope as indented JSON.
func WriteOutcomeJSON(w io.Writer, out *pipeline.Outcome) error {
	env := OutcomeEnvelope{SchemaVersion: SchemaVersion, Data: NewOutcomeJSON(out)}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}
