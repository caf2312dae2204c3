package track

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"path/filepath"

	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/fs"
	"github.com/NielsdaWheelz/toth/internal/pipeline"
)

// WriteCSV writes rows to path (creating parent directories) and tracks it.
func (t *Tracker) WriteCSV(ctx context.Context, path string, rows [][]string, opts Options) (string, *pipeline.Outcome, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return "", nil, errors.Wrap(errors.EValidation, "cannot encode rows as CSV", err)
	}
	if err := t.writeArtifact(path, buf.Bytes()); err != nil {
		return "", nil, err
	}
	return t.Track(ctx, []string{path}, opts)
}

// WriteJSON writes v to path as indented JSON and tracks it.
func (t *Tracker) WriteJSON(ctx context.Context, path string, v any, opts Options) (string, *pipeline.Outcome, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", nil, errors.Wrap(errors.EValidation, "cannot encode value as JSON", err)
	}
	if err := t.writeArtifact(path, append(data, '\n')); err != nil {
		return "", nil, err
	}
	return t.Track(ctx, []string{path}, opts)
}

func (t *Tracker) writeArtifact(path string, data []byte) error {
	if path == "" {
		return errors.New(errors.EValidation, "path is empty")
	}
	full := t.resolve(path)
	if err := t.FS.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return errors.WrapWithDetails(errors.EPersistFailed, "cannot create directory", err,
			map[string]string{"path": filepath.Dir(path)})
	}
	if err := fs.WriteFileAtomic(t.FS, full, data, 0644); err != nil {
		return errors.WrapWithDetails(errors.EPersistFailed, "cannot write artifact", err,
			map[string]string{"path": path})
	}
	return nil
}
