package dvc

import (
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/fs"
)

// pipelineDoc is the part of dvc.yaml toth reads.
type pipelineDoc struct {
	Stages map[string]yaml.Node `yaml:"stages"`
}

// StageNames returns the stage names declared in the dvc.yaml at path,
// sorted. A missing file yields no names.
func StageNames(fsys fs.FS, path string) ([]string, error) {
	ok, err := fs.Exists(fsys, path)
	if err != nil {
		return nil, errors.Wrap(errors.EPersistFailed, "cannot stat "+path, err)
	}
	if !ok {
		return nil, nil
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.EPersistFailed, "cannot read "+path, err)
	}
	var doc pipelineDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapWithDetails(errors.EValidation, "malformed pipeline file", err,
			map[string]string{"path": path})
	}
	names := make([]string, 0, len(doc.Stages))
	for name := range doc.Stages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// HasStage reports whether the dvc.yaml at path declares name.
func HasStage(fsys fs.FS, path, name string) (bool, error) {
	names, err := StageNames(fsys, path)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}
