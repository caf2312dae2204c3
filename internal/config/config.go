// Package config loads toth settings from flags, TOTH_* environment
// variables, the project's toth.yaml, the user config file and defaults,
// in that order of precedence.
package config

import (
	stderrors "errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/exec"
	"github.com/NielsdaWheelz/toth/internal/pipeline"
)

// ProjectFile is the per-project config file at the project root.
const ProjectFile = "toth.yaml"

// EnvPrefix prefixes every environment override (TOTH_GIT_REMOTE, ...).
const EnvPrefix = "TOTH"

// Config is the resolved configuration.
type Config struct {
	Tools         Tools     `mapstructure:"tools"`
	Dvc           Dvc       `mapstructure:"dvc"`
	OnToolFailure string    `mapstructure:"on_tool_failure"`
	Git           Git       `mapstructure:"git"`
	Decisions     Decisions `mapstructure:"decisions"`
	Log           Log       `mapstructure:"log"`

	// Derived (not from config):
	Policy  pipeline.Policy `mapstructure:"-"`
	Sources []string        `mapstructure:"-"` // config files that were read
}

// Tools holds executable paths; empty means "look up on PATH".
type Tools struct {
	Git    string `mapstructure:"git"`
	Dvc    string `mapstructure:"dvc"`
	Docker string `mapstructure:"docker"`
	Quarto string `mapstructure:"quarto"`
}

// Dvc holds dvc settings.
type Dvc struct {
	MinVersion string `mapstructure:"min_version"`
}

// Git holds defaults for push and pull.
type Git struct {
	Remote string `mapstructure:"remote"`
	Branch string `mapstructure:"branch"`
}

// Decisions holds decision log settings.
type Decisions struct {
	Dir string `mapstructure:"dir"`
}

// Log holds logger settings.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ToolPaths returns the executable map handed to the command runner.
func (c Config) ToolPaths() exec.ToolPaths {
	return exec.ToolPaths{
		"git":    c.Tools.Git,
		"dvc":    c.Tools.Dvc,
		"docker": c.Tools.Docker,
		"quarto": c.Tools.Quarto,
	}
}

// Defaults are applied below every other source.
var Defaults = map[string]any{
	"tools.git":       "",
	"tools.dvc":       "",
	"tools.docker":    "",
	"tools.quarto":    "",
	"dvc.min_version": "",
	"on_tool_failure": string(pipeline.PolicyWarn),
	"git.remote":      "",
	"git.branch":      "",
	"decisions.dir":   "decisions",
	"log.level":       "warn",
	"log.format":      "text",
}

// FlagKeys maps CLI flag names onto config keys.
var FlagKeys = map[string]string{
	"on-tool-failure": "on_tool_failure",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"dvc-min-version": "dvc.min_version",
}

// LoadOptions say where to look.
type LoadOptions struct {
	ProjectDir string         // directory holding toth.yaml
	UserFile   string         // user config file; "" skips it
	File       string         // --config: read only this file
	Flags      *pflag.FlagSet // bound through FlagKeys when set
}

// Load resolves configuration and validates it.
// Returns E_INVALID_CONFIG for unreadable files and invalid values.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range Defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range FlagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, errors.Wrap(errors.EInternal, "failed to bind flag "+name, err)
				}
			}
		}
	}

	var sources []string
	if opts.File != "" {
		if err := readFile(v, opts.File, false); err != nil {
			return Config{}, err
		}
		sources = append(sources, opts.File)
	} else {
		files := []string{opts.UserFile}
		if opts.ProjectDir != "" {
			files = append(files, filepath.Join(opts.ProjectDir, ProjectFile))
		}
		for _, f := range files {
			if f == "" {
				continue
			}
			read, err := mergeOptional(v, f, len(sources) > 0)
			if err != nil {
				return Config{}, err
			}
			if read {
				sources = append(sources, f)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(errors.EInvalidConfig, "invalid configuration", err)
	}
	cfg.Sources = sources

	return Validate(cfg)
}

// mergeOptional reads f if it exists. Later files override earlier ones.
func mergeOptional(v *viper.Viper, f string, merge bool) (bool, error) {
	if _, err := os.Stat(f); stderrors.Is(err, iofs.ErrNotExist) {
		return false, nil
	}
	if err := readFile(v, f, merge); err != nil {
		return false, err
	}
	return true, nil
}

func readFile(v *viper.Viper, f string, merge bool) error {
	v.SetConfigFile(f)
	var err error
	if merge {
		err = v.MergeInConfig()
	} else {
		err = v.ReadInConfig()
	}
	if err == nil {
		return nil
	}
	return errors.WrapWithDetails(errors.EInvalidConfig, "failed to read config file", err,
		map[string]string{"path": f})
}
