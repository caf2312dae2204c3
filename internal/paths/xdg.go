// Package paths resolves toth's user-level directories following XDG conventions.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigFileName is the user config file inside the config directory.
const ConfigFileName = "config.yaml"

// Dirs holds the resolved user-level directories.
type Dirs struct {
	ConfigDir string
}

// ConfigFile returns the path of the user config file.
func (d Dirs) ConfigFile() string {
	return filepath.Join(d.ConfigDir, ConfigFileName)
}

// Env is the interface for environment variable lookups.
// Implementations must return "" for unset variables.
type Env interface {
	Get(key string) string
}

// OSEnv reads the process environment.
type OSEnv struct{}

// Get implements Env.
func (OSEnv) Get(key string) string { return os.Getenv(key) }

// ResolveDirs computes toth's directories from environment variables and
// platform defaults.
//
// Resolution order for the config directory:
//  1. TOTH_CONFIG_DIR env var (if set)
//  2. macOS: ~/Library/Preferences/toth
//  3. XDG_CONFIG_HOME/toth (if set)
//  4. ~/.config/toth
//
// The homeDir parameter must be an absolute path to the user's home directory.
// This function does not touch the filesystem (no mkdir).
// ~ inside env vars is treated as literal (not expanded).
func ResolveDirs(env Env, homeDir string) Dirs {
	return ResolveDirsWithOS(env, homeDir, IsDarwin())
}

// IsDarwin returns true if the current OS is macOS.
// Exported for testing purposes.
func IsDarwin() bool {
	return runtime.GOOS == "darwin"
}

// ResolveDirsWithOS is like ResolveDirs but accepts an explicit OS flag for testing.
func ResolveDirsWithOS(env Env, homeDir string, isDarwin bool) Dirs {
	return Dirs{ConfigDir: resolveConfigDir(env, homeDir, isDarwin)}
}

func resolveConfigDir(env Env, homeDir string, isDarwin bool) string {
	if v := env.Get("TOTH_CONFIG_DIR"); v != "" {
		return v
	}
	if isDarwin {
		return filepath.Join(homeDir, "Library", "Preferences", "toth")
	}
	if v := env.Get("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "toth")
	}
	return filepath.Join(homeDir, ".config", "toth")
}
