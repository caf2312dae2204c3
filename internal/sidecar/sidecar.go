// Package sidecar reads and writes the `<artifact>.dvc` files that record a
// tracked artifact's content hash.
package sidecar

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/fs"
)

// Ext is appended to an artifact path to name its sidecar.
const Ext = ".dvc"

// Out is one tracked output.
type Out struct {
	MD5  string `yaml:"md5"`
	Path string `yaml:"path"`
}

// Sidecar mirrors the subset of dvc's .dvc file that toth writes.
type Sidecar struct {
	Outs []Out `yaml:"outs"`
}

// Hash returns the first output's hash, or "" if there is none.
func (s Sidecar) Hash() string {
	if len(s.Outs) == 0 {
		return ""
	}
	return s.Outs[0].MD5
}

// PathFor returns the sidecar path for an artifact.
func PathFor(artifactPath string) string {
	return artifactPath + Ext
}

// HashFile returns the lowercase hex MD5 of the file's content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes is HashFile for content already in memory.
func HashBytes(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Marshal renders the sidecar in dvc's block layout:
//
//	outs:
//	- md5: <hash>
//	  path: <name>
func Marshal(s Sidecar) ([]byte, error) {
	return yaml.Marshal(s)
}

// Build hashes artifactPath through fsys and returns its sidecar. The
// recorded path is the base name, relative to the sidecar's directory.
func Build(fsys fs.FS, artifactPath string) (Sidecar, error) {
	data, err := fsys.ReadFile(artifactPath)
	if err != nil {
		return Sidecar{}, errors.WrapWithDetails(errors.EPersistFailed, "cannot read artifact", err,
			map[string]string{"path": artifactPath})
	}
	return Sidecar{Outs: []Out{{MD5: HashBytes(data), Path: filepath.Base(artifactPath)}}}, nil
}

// Write hashes artifactPath and atomically writes `<artifactPath>.dvc`.
// Rewriting an unchanged artifact produces an identical file.
func Write(fsys fs.FS, artifactPath string) (Sidecar, error) {
	sc, err := Build(fsys, artifactPath)
	if err != nil {
		return Sidecar{}, err
	}
	data, err := Marshal(sc)
	if err != nil {
		return Sidecar{}, errors.Wrap(errors.EInternal, "failed to encode sidecar", err)
	}
	if err := fs.WriteFileAtomic(fsys, PathFor(artifactPath), data, 0644); err != nil {
		return Sidecar{}, errors.WrapWithDetails(errors.EPersistFailed, "failed to write sidecar", err,
			map[string]string{"path": PathFor(artifactPath)})
	}
	return sc, nil
}

// Read parses a sidecar file.
func Read(fsys fs.FS, sidecarPath string) (Sidecar, error) {
	data, err := fsys.ReadFile(sidecarPath)
	if err != nil {
		return Sidecar{}, errors.WrapWithDetails(errors.EPersistFailed, "cannot read sidecar", err,
			map[string]string{"path": sidecarPath})
	}
	var sc Sidecar
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Sidecar{}, errors.WrapWithDetails(errors.EValidation, "malformed sidecar", err,
			map[string]string{"path": sidecarPath})
	}
	return sc, nil
}

// Verify reports whether the sidecar's recorded hash matches the artifact's
// current content.
func Verify(fsys fs.FS, artifactPath string) (bool, error) {
	sc, err := Read(fsys, PathFor(artifactPath))
	if err != nil {
		return false, err
	}
	current, err := Build(fsys, artifactPath)
	if err != nil {
		return false, err
	}
	return sc.Hash() != "" && sc.Hash() == current.Hash(), nil
}
