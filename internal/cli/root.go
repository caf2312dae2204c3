// Package cli builds the toth command tree and wires commands to their
// dependencies.
package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/toth/internal/commands"
	"github.com/NielsdaWheelz/toth/internal/config"
	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/exec"
	"github.com/NielsdaWheelz/toth/internal/fs"
	"github.com/NielsdaWheelz/toth/internal/git"
	"github.com/NielsdaWheelz/toth/internal/logging"
	"github.com/NielsdaWheelz/toth/internal/paths"
	"github.com/NielsdaWheelz/toth/internal/render"
	"github.com/NielsdaWheelz/toth/internal/tools"
	"github.com/NielsdaWheelz/toth/internal/version"
)

// Deps are the collaborators a command run uses. Zero fields fall back to
// the real implementations.
type Deps struct {
	Runner   exec.CommandRunner
	FS       fs.FS
	LookPath func(file string) (string, error)
	Env      paths.Env
	Cwd      string
	HomeDir  string
	Now      func() time.Time
}

// Run parses arguments and dispatches to the appropriate subcommand.
// Returns an error if the command fails; the caller should print the error and exit.
func Run(args []string, stdout, stderr io.Writer) error {
	return RunWith(context.Background(), Deps{}, args, stdout, stderr)
}

// RunWith is Run with explicit dependencies.
func RunWith(ctx context.Context, deps Deps, args []string, stdout, stderr io.Writer) error {
	a := &app{deps: deps, stdout: stdout, stderr: stderr}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	if _, ok := errors.AsTothError(err); ok {
		return err
	}
	// Anything cobra rejects before a command runs is a usage error.
	return errors.Wrap(errors.EUsage, err.Error(), err)
}

type app struct {
	deps   Deps
	stdout io.Writer
	stderr io.Writer

	configFile    string
	verbose       bool
	onToolFailure string
	logLevel      string
	logFormat     string
	dvcMinVersion string
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "toth",
		Short: "Reproducible analysis projects with dvc, git and a decision log",
		Long: `toth - reproducible analysis project tooling

Tracks data artifacts with dvc (or a mock sidecar when dvc is absent),
commits and pushes them with git, registers pipeline stages, and keeps an
auditable log of analysis decisions.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.New(errors.EUsage, "no command specified")
		},
	}
	root.SetVersionTemplate("toth {{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Wrap(errors.EUsage, "invalid flags: "+err.Error(), err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "read configuration from this file only")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")
	pf.StringVar(&a.onToolFailure, "on-tool-failure", "", "warn or abort when an external tool step fails")
	pf.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&a.logFormat, "log-format", "", "text or json")
	pf.StringVar(&a.dvcMinVersion, "dvc-min-version", "", "minimum dvc version treated as available")

	root.AddCommand(
		a.initCommand(),
		a.doctorCommand(),
		a.trackCommand(),
		a.verifyCommand(),
		a.stageCommand(),
		a.gitCommand(),
		a.dvcCommand(),
		a.decisionCommand(),
	)
	return root
}

// env resolves configuration and builds the command environment.
func (a *app) env(cmd *cobra.Command) (*commands.Env, error) {
	ctx := cmd.Context()

	cwd := a.deps.Cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(errors.EInternal, "failed to get working directory", err)
		}
		cwd = wd
	}
	home := a.deps.HomeDir
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(errors.EInternal, "failed to get home directory", err)
		}
		home = h
	}
	penv := a.deps.Env
	if penv == nil {
		penv = paths.OSEnv{}
	}
	fsys := a.deps.FS
	if fsys == nil {
		fsys = fs.NewRealFS()
	}

	// Tool paths come from configuration, so the project root is found
	// with git from PATH (or the injected runner).
	bootstrap := a.deps.Runner
	if bootstrap == nil {
		bootstrap = exec.NewRealRunner(nil, nil)
	}
	projectDir := cwd
	if root, err := git.GetRepoRoot(ctx, bootstrap, cwd); err == nil {
		projectDir = root.Path
	}

	cfg, err := config.Load(config.LoadOptions{
		ProjectDir: projectDir,
		UserFile:   paths.ResolveDirs(penv, home).ConfigFile(),
		File:       a.configFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return nil, err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(a.stderr, logging.Config{Level: cfg.Log.Level, Format: logging.Format(cfg.Log.Format)})
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded", "sources", cfg.Sources, "project_dir", projectDir, "policy", cfg.Policy)

	runner := a.deps.Runner
	if runner == nil {
		runner = exec.NewRealRunner(cfg.ToolPaths(), logger)
	}
	prober := tools.NewProber(runner, cfg.ToolPaths())
	if a.deps.LookPath != nil {
		prober.LookPath = a.deps.LookPath
	}

	return &commands.Env{
		Runner: runner,
		FS:     fsys,
		Prober: prober,
		Config: cfg,
		Cwd:    cwd,
		Stdout: a.stdout,
		Stderr: a.stderr,
		Styler: render.NewStyler(a.stderr),
		Logger: logger,
		Now:    a.deps.Now,
	}, nil
}

// withEnv adapts a command body to cobra's RunE.
func (a *app) withEnv(fn func(cmd *cobra.Command, env *commands.Env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env, err := a.env(cmd)
		if err != nil {
			return err
		}
		if err := fn(cmd, env, args); err != nil {
			if _, ok := errors.AsTothError(err); ok {
				return err
			}
			return errors.Wrap(errors.EInternal, "command failed", err)
		}
		return nil
	}
}
