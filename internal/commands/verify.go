package commands

import (
	"context"
	"path/filepath"

	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/fs"
	"github.com/NielsdaWheelz/toth/internal/render"
	"github.com/NielsdaWheelz/toth/internal/sidecar"
)

// Sidecar states reported by verify.
const (
	SidecarUnchanged = "unchanged"
	SidecarStale     = "stale"
	SidecarMissing   = "missing"
)

// Verify implements `toth verify <path>`: it compares a tracked artifact
// with the hash recorded in its sidecar. A stale or missing sidecar is
// reported, not an error.
func Verify(ctx context.Context, env *Env, path string) error {
	root := env.projectRoot(ctx)
	rel := env.relPath(root, path)
	artifact := rel
	if !filepath.IsAbs(artifact) {
		artifact = filepath.Join(root, rel)
	}

	ok, err := fs.IsRegularFile(env.FS, artifact)
	if err != nil || !ok {
		return errors.NewWithDetails(errors.EValidation, "not a regular file: "+path,
			map[string]string{"path": rel})
	}

	status := SidecarMissing
	exists, err := fs.Exists(env.FS, sidecar.PathFor(artifact))
	if err != nil {
		return errors.WrapWithDetails(errors.EPersistFailed, "cannot stat sidecar", err,
			map[string]string{"path": sidecar.PathFor(rel)})
	}
	if exists {
		unchanged, err := sidecar.Verify(env.FS, artifact)
		if err != nil {
			return err
		}
		status = SidecarStale
		if unchanged {
			status = SidecarUnchanged
		}
	}

	return render.WriteKV(env.Stdout, []render.KV{
		{Key: "path", Value: rel},
		{Key: "sidecar", Value: sidecar.PathFor(rel)},
		{Key: "status", Value: status},
	})
}
