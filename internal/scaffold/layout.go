package scaffold

import (
	"os"
	"path/filepath"

	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/fs"
)

// LayoutDirs is the project directory layout, relative to the root.
var LayoutDirs = []string{
	"data/raw",
	"data/processed",
	"analysis",
	"reports",
	"outputs",
	"decisions",
	".toth/stages",
}

// Result lists what a scaffolding step did, by relative path.
type Result struct {
	Created []string
	Skipped []string // already present
}

// CreateLayout creates LayoutDirs under root. Existing directories are
// reported as skipped; a file in the way is E_PERSIST_FAILED.
func CreateLayout(fsys fs.FS, root string) (Result, error) {
	var result Result
	for _, rel := range LayoutDirs {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		info, err := fsys.Stat(abs)
		if err == nil {
			if !info.IsDir() {
				return result, errors.NewWithDetails(errors.EPersistFailed, "path exists and is not a directory: "+rel,
					map[string]string{"path": rel})
			}
			result.Skipped = append(result.Skipped, rel)
			continue
		}
		if !os.IsNotExist(err) {
			return result, errors.Wrap(errors.EPersistFailed, "cannot stat "+rel, err)
		}
		if err := fsys.MkdirAll(abs, 0o755); err != nil {
			return result, errors.WrapWithDetails(errors.EPersistFailed, "cannot create directory", err,
				map[string]string{"path": rel})
		}
		result.Created = append(result.Created, rel)
	}
	return result, nil
}

// CreateTemplates writes the starter files under root. Existing files are
// skipped unless force is set. Files are written atomically.
func CreateTemplates(fsys fs.FS, root string, data TemplateData, force bool) (Result, error) {
	var result Result
	for _, tmpl := range DefaultTemplates() {
		abs := filepath.Join(root, filepath.FromSlash(tmpl.RelPath))

		exists, err := fs.Exists(fsys, abs)
		if err != nil {
			return result, errors.Wrap(errors.EPersistFailed, "cannot stat "+tmpl.RelPath, err)
		}
		if exists && !force {
			result.Skipped = append(result.Skipped, tmpl.RelPath)
			continue
		}

		content, err := tmpl.Render(data)
		if err != nil {
			return result, errors.Wrap(errors.EInternal, "failed to render "+tmpl.RelPath, err)
		}
		if err := fsys.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return result, errors.WrapWithDetails(errors.EPersistFailed, "cannot create directory", err,
				map[string]string{"path": filepath.Dir(tmpl.RelPath)})
		}
		if err := fs.WriteFileAtomic(fsys, abs, content, os.FileMode(tmpl.Mode)); err != nil {
			return result, errors.WrapWithDetails(errors.EPersistFailed, "cannot write "+tmpl.RelPath, err,
				map[string]string{"path": tmpl.RelPath})
		}
		result.Created = append(result.Created, tmpl.RelPath)
	}
	return result, nil
}
