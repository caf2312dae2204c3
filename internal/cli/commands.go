package cli

import (
	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/toth/internal/args"
	"github.com/NielsdaWheelz/toth/internal/commands"
	"github.com/NielsdaWheelz/toth/internal/core"
	"github.com/NielsdaWheelz/toth/internal/decision"
	"github.com/NielsdaWheelz/toth/internal/track"
)

func (a *app) initCommand() *cobra.Command {
	var opts commands.InitOpts
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create the project layout, templates, git and dvc repositories",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.withEnv(func(cmd *cobra.Command, env *commands.Env, argv []string) error {
			dir := ""
			if len(argv) == 1 {
				dir = argv[0]
			}
			return commands.Init(cmd.Context(), env, dir, opts)
		}),
	}
	f := cmd.Flags()
	f.BoolVar(&opts.Force, "force", false, "overwrite existing templates")
	f.BoolVar(&opts.NoGitignore, "no-gitignore", false, "do not modify .gitignore")
	f.BoolVar(&opts.NoGit, "no-git", false, "do not run git init")
	f.BoolVar(&opts.NoDvc, "no-dvc", false, "do not run dvc init")
	return cmd
}

func (a *app) doctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check tools and show resolved configuration",
		Args:  cobra.NoArgs,
		RunE: a.withEnv(func(cmd *cobra.Command, env *commands.Env, _ []string) error {
			return commands.Doctor(cmd.Context(), env)
		}),
	}
}

// addGitFlags registers the commit/push flags shared by track and stage.
func addGitFlags(cmd *cobra.Command, opts *track.Options) {
	f := cmd.Flags()
	f.StringVarP(&opts.Message, "message", "m", "", "commit the tracked files with this message")
	f.BoolVar(&opts.Push, "push", false, "git push after committing")
	f.StringVar(&opts.Remote, "remote", "", "git remote to push to (default: git.remote)")
	f.StringVar(&opts.Branch, "branch", "", "git branch to push (default: git.branch)")
}

func (a *app) trackCommand() *cobra.Command {
	var opts commands.TrackOpts
	cmd := &cobra.Command{
		Use:   "track <path>",
		Short: "Track a data file with dvc, or a mock sidecar without dvc",
		Args:  cobra.ExactArgs(1),
		RunE: a.withEnv(func(cmd *cobra.Command, env *commands.Env, argv []string) error {
			return commands.Track(cmd.Context(), env, argv[0], opts)
		}),
	}
	addGitFlags(cmd, &opts.Options)
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the outcome as JSON")
	return cmd
}

func (a *app) verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <path>",
		Short: "Check a tracked file against the hash in its .dvc sidecar",
		Args:  cobra.ExactArgs(1),
		RunE: a.withEnv(func(cmd *cobra.Command, env *commands.Env, argv []string) error {
			return commands.Verify(cmd.Context(), env, argv[0])
		}),
	}
}

func (a *app) stageCommand() *cobra.Command {
	stage := &cobra.Command{
		Use:   "stage",
		Short: "Manage dvc pipeline stages",
	}

	var (
		spec            args.StageSpec
		opts            commands.StageOpts
		outs, metrics   []string
		plots, rawParam []string
	)
	add := &cobra.Command{
		Use:   "add --name <name> [flags] -- <command...>",
		Short: "Register a pipeline stage with dvc stage add",
		RunE: a.withEnv(func(cmd *cobra.Command, env *commands.Env, argv []string) error {
			params, err := args.ParseParams(rawParam)
			if err != nil {
				return err
			}
			s := spec
			s.Params = params
			s.Outputs = args.MergeOutputs(outs, metrics, plots)
			s.Command = stageCommandLine(argv)
			return commands.StageAdd(cmd.Context(), env, s, opts)
		}),
	}
	f := add.Flags()
	f.StringVarP(&spec.Name, "name", "n", "", "stage name")
	f.StringArrayVarP(&spec.Deps, "dep", "d", nil, "dependency path (repeatable)")
	f.StringArrayVarP(&outs, "out", "o", nil, "output path (repeatable)")
	f.StringArrayVarP(&metrics, "metric", "M", nil, "metrics output path (repeatable)")
	f.StringArrayVar(&plots, "plot", nil, "plots output path (repeatable)")
	f.StringArrayVarP(&rawParam, "param", "p", nil, "parameter name=value (repeatable)")
	f.BoolVar(&spec.AlwaysChanged, "always-changed", false, "always re-run the stage")
	f.BoolVar(&spec.Force, "force", false, "overwrite an existing stage of the same name")
	f.BoolVar(&opts.Run, "run", false, "dvc repro the stage after registering it")
	f.StringVar(&opts.ScriptFile, "script", "", "use this file's contents as the stage body")
	f.BoolVar(&opts.JSON, "json", false, "print the outcome as JSON")
	addGitFlags(add, &opts.Options)
	_ = add.MarkFlagRequired("name")

	stage.AddCommand(add)
	return stage
}

// stageCommandLine joins the words after "--". A single word is kept
// verbatim so a quoted shell line passes through unchanged.
func stageCommandLine(argv []string) string {
	switch len(argv) {
	case 0:
		return ""
	case 1:
		return argv[0]
	}
	return core.ShellCommand(argv[0], argv[1:]...)
}

func (a *app) decisionCommand() *cobra.Command {
	dec := &cobra.Command{
		Use:   "decision",
		Short: "Keep a log of analysis decisions",
	}

	var id, analyst, description string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a decision log",
		Args:  cobra.NoArgs,
		RunE: a.withEnv(func(cmd *cobra.Command, env *commands.Env, _ []string) error {
			return commands.DecisionInit(cmd.Context(), env, id, analyst, description)
		}),
	}
	initCmd.Flags().StringVar(&id, "id", "", "analysis id")
	initCmd.Flags().StringVar(&analyst, "analyst", "", "analyst name")
	initCmd.Flags().StringVar(&description, "description", "", "what the analysis is for")
	_ = initCmd.MarkFlagRequired("id")

	var recID string
	var in decision.Input
	record := &cobra.Command{
		Use:   "record",
		Short: "Append a decision to a log",
		Args:  cobra.NoArgs,
		RunE: a.withEnv(func(cmd *cobra.Command, env *commands.Env, _ []string) error {
			return commands.DecisionRecord(cmd.Context(), env, recID, in)
		}),
	}
	rf := record.Flags()
	rf.StringVar(&recID, "id", "", "analysis id")
	rf.StringVar(&in.Check, "check", "", "what was checked")
	rf.StringVar(&in.Observation, "observation", "", "what was observed")
	rf.StringVar(&in.Decision, "decision", "", "what was decided")
	rf.StringVar(&in.Reasoning, "reasoning", "", "why")
	rf.StringVar(&in.Evidence, "evidence", "", "path or URL supporting the decision")
	_ = record.MarkFlagRequired("id")
	_ = record.MarkFlagRequired("decision")

	var showID string
	var markdown bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Summarize a decision log",
		Args:  cobra.NoArgs,
		RunE: a.withEnv(func(cmd *cobra.Command, env *commands.Env, _ []string) error {
			return commands.DecisionShow(cmd.Context(), env, showID, markdown)
		}),
	}
	show.Flags().StringVar(&showID, "id", "", "analysis id")
	show.Flags().BoolVar(&markdown, "markdown", false, "print the markdown report")
	_ = show.MarkFlagRequired("id")

	var expID, format, out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Render a decision log as markdown, html, pdf or docx",
		Args:  cobra.NoArgs,
		RunE: a.withEnv(func(cmd *cobra.Command, env *commands.Env, _ []string) error {
			return commands.DecisionExport(cmd.Context(), env, expID, format, out)
		}),
	}
	export.Flags().StringVar(&expID, "id", "", "analysis id")
	export.Flags().StringVar(&format, "format", "markdown", "markdown, html, pdf or docx")
	export.Flags().StringVar(&out, "out", "", "report path (default: next to the log)")
	_ = export.MarkFlagRequired("id")

	dec.AddCommand(initCmd, record, show, export)
	return dec
}
