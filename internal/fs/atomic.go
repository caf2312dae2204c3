package fs

import (
	"bytes"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// tempPattern names in-flight temp files; anything matching it in a project
// directory is debris from an interrupted write.
const tempPattern = ".toth-tmp-*"

// WriteFileAtomic writes data to path atomically using a temp file + rename.
// The temp file is created in the same directory as path so the rename stays
// on one filesystem. The temp file is removed on every failure path and the
// original file (if any) is left unchanged.
// The caller must ensure the parent directory exists.
func WriteFileAtomic(fs FS, path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpPath, w, err := fs.CreateTemp(dir, tempPattern)
	if err != nil {
		return err
	}

	success := false
	defer func() {
		if !success {
			fs.Remove(tmpPath)
		}
	}()

	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}

	if err := w.Close(); err != nil {
		return err
	}

	if err := fs.Chmod(tmpPath, perm); err != nil {
		return err
	}

	if err := fs.Rename(tmpPath, path); err != nil {
		return err
	}

	success = true
	return nil
}

// WriteYAMLAtomic marshals v with two-space indentation and writes it atomically.
func WriteYAMLAtomic(fs FS, path string, v any, perm os.FileMode) error {
	data, err := MarshalYAML(v)
	if err != nil {
		return err
	}
	return WriteFileAtomic(fs, path, data, perm)
}

// MarshalYAML encodes v the way toth writes every YAML file it owns.
func MarshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
