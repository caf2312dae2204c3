// Package store persists decision logs as YAML files, one per analysis.
// Files are written atomically via temp file + rename. There is no locking:
// two processes updating the same log concurrently lose one update.
package store

import (
	"path/filepath"
	"time"

	"github.com/NielsdaWheelz/toth/internal/core"
	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/fs"
)

// DefaultDir is the project-relative directory holding decision logs.
const DefaultDir = "decisions"

// maxStemLen caps the file stem derived from an analysis id.
const maxStemLen = 64

// Store handles persistence of decision logs.
type Store struct {
	FS  fs.FS            // filesystem interface for stubbing
	Dir string           // decision log directory
	Now func() time.Time // injectable clock for deterministic tests
}

// NewStore creates a new Store with the given dependencies. A nil now uses time.Now.
func NewStore(filesystem fs.FS, dir string, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		FS:  filesystem,
		Dir: dir,
		Now: now,
	}
}

// LogPath returns the path of an analysis's log.
// Format: <dir>/<stem(analysis_id)>.yaml
func (s *Store) LogPath(analysisID string) string {
	return filepath.Join(s.Dir, Stem(analysisID)+".yaml")
}

// Stem is the file stem for an analysis id. Distinct ids can share a stem;
// the id stored inside the file tells them apart.
func Stem(analysisID string) string {
	return core.FileStem(analysisID, maxStemLen)
}

// EnsureDir creates the decision directory.
// Fails with E_PERSIST_FAILED if it cannot be created.
func (s *Store) EnsureDir() error {
	if err := s.FS.MkdirAll(s.Dir, 0o755); err != nil {
		return errors.WrapWithDetails(
			errors.EPersistFailed,
			"failed to create decision directory",
			err,
			map[string]string{"dir": s.Dir},
		)
	}
	return nil
}
