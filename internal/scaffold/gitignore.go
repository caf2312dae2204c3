package scaffold

import (
	"os"
	"strings"

	"github.com/NielsdaWheelz/toth/internal/fs"
)

// DefaultIgnoreEntries are the project's .gitignore entries. Data files are
// ignored by dvc itself as they get tracked.
var DefaultIgnoreEntries = []string{
	".Rproj.user/",
	".Rhistory",
	".RData",
	"renv/library/",
	".quarto/",
	".toth-tmp-*",
}

// GitignoreResult indicates what happened to .gitignore.
type GitignoreResult string

const (
	GitignoreUpdated   GitignoreResult = "updated"
	GitignoreUnchanged GitignoreResult = "unchanged"
	GitignoreSkipped   GitignoreResult = "skipped"
)

// EnsureGitignore ensures every entry is in .gitignore.
// Creates the file if missing. Does not add duplicate entries.
// Ensures file ends with newline.
//
// Returns the result indicating what action was taken.
func EnsureGitignore(fsys fs.FS, gitignorePath string, entries []string) (GitignoreResult, error) {
	content, err := fsys.ReadFile(gitignorePath)
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}
	existing := string(content)

	var missing []string
	for _, e := range entries {
		if !hasEntry(existing, e) && !contains(missing, e) {
			missing = append(missing, e)
		}
	}

	newContent := existing
	if len(newContent) > 0 && !strings.HasSuffix(newContent, "\n") {
		newContent += "\n"
	}
	for _, e := range missing {
		newContent += e + "\n"
	}

	if err == nil && newContent == existing {
		return GitignoreUnchanged, nil
	}
	if err := fs.WriteFileAtomic(fsys, gitignorePath, []byte(newContent), 0644); err != nil {
		return "", err
	}
	return GitignoreUpdated, nil
}

// hasEntry checks if entry is present in content.
// Treats "dir/" and "dir" as equivalent.
func hasEntry(content, entry string) bool {
	want := strings.TrimSuffix(entry, "/")
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSuffix(strings.TrimSpace(line), "/") == want {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
