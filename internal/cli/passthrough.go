package cli

import (
	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/toth/internal/commands"
)

// passthrough builds a subcommand whose body returns a tool invocation.
func (a *app) passthrough(cmd *cobra.Command, fn func(cmd *cobra.Command, env *commands.Env, argv []string) error) *cobra.Command {
	cmd.RunE = a.withEnv(fn)
	return cmd
}

func (a *app) gitCommand() *cobra.Command {
	g := &cobra.Command{
		Use:   "git",
		Short: "Run common git operations",
	}

	var addForce bool
	add := a.passthrough(&cobra.Command{Use: "add <path>...", Short: "git add", Args: cobra.MinimumNArgs(1)},
		func(cmd *cobra.Command, env *commands.Env, argv []string) error {
			return env.Passthrough(env.Git().Add(cmd.Context(), argv, addForce))
		})
	add.Flags().BoolVarP(&addForce, "force", "f", false, "add ignored files")

	var msg string
	var all bool
	commit := a.passthrough(&cobra.Command{Use: "commit", Short: "git commit", Args: cobra.NoArgs},
		func(cmd *cobra.Command, env *commands.Env, _ []string) error {
			return env.Passthrough(env.Git().Commit(cmd.Context(), msg, all))
		})
	commit.Flags().StringVarP(&msg, "message", "m", "", "commit message")
	commit.Flags().BoolVarP(&all, "all", "a", false, "commit all tracked changes")
	_ = commit.MarkFlagRequired("message")

	push := a.passthrough(&cobra.Command{Use: "push [remote] [branch]", Short: "git push", Args: cobra.MaximumNArgs(2)},
		func(cmd *cobra.Command, env *commands.Env, argv []string) error {
			remote, branch := remoteBranch(env, argv)
			return env.Passthrough(env.Git().Push(cmd.Context(), remote, branch))
		})
	pull := a.passthrough(&cobra.Command{Use: "pull [remote] [branch]", Short: "git pull", Args: cobra.MaximumNArgs(2)},
		func(cmd *cobra.Command, env *commands.Env, argv []string) error {
			remote, branch := remoteBranch(env, argv)
			return env.Passthrough(env.Git().Pull(cmd.Context(), remote, branch))
		})

	var short bool
	status := a.passthrough(&cobra.Command{Use: "status", Short: "git status", Args: cobra.NoArgs},
		func(cmd *cobra.Command, env *commands.Env, _ []string) error {
			return env.Passthrough(env.Git().Status(cmd.Context(), short))
		})
	status.Flags().BoolVarP(&short, "short", "s", false, "short format")

	var allBranches bool
	branch := a.passthrough(&cobra.Command{Use: "branch [name]", Short: "list or create branches", Args: cobra.MaximumNArgs(1)},
		func(cmd *cobra.Command, env *commands.Env, argv []string) error {
			name := ""
			if len(argv) == 1 {
				name = argv[0]
			}
			return env.Passthrough(env.Git().Branch(cmd.Context(), name, allBranches))
		})
	branch.Flags().BoolVarP(&allBranches, "all", "a", false, "list remote branches too")

	var create bool
	checkout := a.passthrough(&cobra.Command{Use: "checkout <name>", Short: "git checkout", Args: cobra.ExactArgs(1)},
		func(cmd *cobra.Command, env *commands.Env, argv []string) error {
			return env.Passthrough(env.Git().Checkout(cmd.Context(), argv[0], create))
		})
	checkout.Flags().BoolVarP(&create, "create", "b", false, "create the branch")

	var oneline bool
	var n int
	log := a.passthrough(&cobra.Command{Use: "log", Short: "git log", Args: cobra.NoArgs},
		func(cmd *cobra.Command, env *commands.Env, _ []string) error {
			return env.Passthrough(env.Git().Log(cmd.Context(), oneline, n))
		})
	log.Flags().BoolVar(&oneline, "oneline", false, "one line per commit")
	log.Flags().IntVarP(&n, "max-count", "n", 0, "limit the number of commits")

	rmCached := a.passthrough(&cobra.Command{Use: "rm-cached <path>", Short: "stop tracking a file in git, keep it on disk", Args: cobra.ExactArgs(1)},
		func(cmd *cobra.Command, env *commands.Env, argv []string) error {
			return env.Passthrough(env.Git().RmCached(cmd.Context(), argv[0]))
		})

	g.AddCommand(add, commit, push, pull, status, branch, checkout, log, rmCached)
	return g
}

// remoteBranch takes [remote] [branch] positionals, defaulting from config.
func remoteBranch(env *commands.Env, argv []string) (string, string) {
	remote, branch := env.Config.Git.Remote, env.Config.Git.Branch
	if len(argv) > 0 {
		remote = argv[0]
	}
	if len(argv) > 1 {
		branch = argv[1]
	}
	return remote, branch
}

func (a *app) dvcCommand() *cobra.Command {
	d := &cobra.Command{
		Use:   "dvc",
		Short: "Move tracked data to and from dvc remotes",
	}

	var pushRemote, pullRemote string
	push := a.passthrough(&cobra.Command{Use: "push [path]", Short: "dvc push", Args: cobra.MaximumNArgs(1)},
		func(cmd *cobra.Command, env *commands.Env, argv []string) error {
			return env.Passthrough(env.Dvc().Push(cmd.Context(), pushRemote, first(argv)))
		})
	push.Flags().StringVarP(&pushRemote, "remote", "r", "", "dvc remote name")

	pull := a.passthrough(&cobra.Command{Use: "pull [path]", Short: "dvc pull", Args: cobra.MaximumNArgs(1)},
		func(cmd *cobra.Command, env *commands.Env, argv []string) error {
			return env.Passthrough(env.Dvc().Pull(cmd.Context(), pullRemote, first(argv)))
		})
	pull.Flags().StringVarP(&pullRemote, "remote", "r", "", "dvc remote name")

	repro := a.passthrough(&cobra.Command{Use: "repro [stage]", Short: "dvc repro", Args: cobra.MaximumNArgs(1)},
		func(cmd *cobra.Command, env *commands.Env, argv []string) error {
			return env.Passthrough(env.Dvc().Repro(cmd.Context(), first(argv)))
		})

	d.AddCommand(push, pull, repro)
	return d
}

func first(argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	return argv[0]
}
