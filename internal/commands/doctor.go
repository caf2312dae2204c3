package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/NielsdaWheelz/toth/internal/dvc"
	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/fs"
	"github.com/NielsdaWheelz/toth/internal/git"
	"github.com/NielsdaWheelz/toth/internal/render"
	"github.com/NielsdaWheelz/toth/internal/tools"
)

// DoctorReport holds all the data for doctor output.
type DoctorReport struct {
	ProjectRoot    string
	InRepo         bool
	HasCommits     string // true, false, or "unknown" when git could not be run
	OriginURL      string
	ConfigSources  []string
	OnToolFailure  string
	DecisionsDir   string
	DvcMinVersion  string
	DvcInitialized bool
	DvcStages      string // count, or "error" for an unreadable dvc.yaml
	Tools          []tools.Status
}

// Doctor implements the `toth doctor` command.
// Reports project state and tool availability. Fails with E_TOOL_MISSING
// only when a required tool (git) is unusable; optional tools degrade.
func Doctor(ctx context.Context, env *Env) error {
	root := env.projectRoot(ctx)

	report := DoctorReport{
		ProjectRoot:   root,
		InRepo:        git.IsInsideRepo(ctx, env.Runner, root),
		ConfigSources: env.Config.Sources,
		OnToolFailure: string(env.Config.Policy),
		DecisionsDir:  env.store(root).Dir,
		DvcMinVersion: env.Config.Dvc.MinVersion,
	}
	report.HasCommits = "false"
	if report.InRepo {
		report.OriginURL = git.GetOriginURL(ctx, env.Runner, root)
		hasCommits, err := git.HasCommits(ctx, env.Runner, root)
		if err != nil {
			report.HasCommits = "unknown"
		} else {
			report.HasCommits = boolStr(hasCommits)
		}
	}
	report.DvcInitialized, _ = fs.Exists(env.FS, filepath.Join(root, ".dvc"))

	stages, err := dvc.StageNames(env.FS, filepath.Join(root, dvc.PipelineFile))
	if err != nil {
		report.DvcStages = "error"
		env.logger().Warn("cannot read pipeline", "path", dvc.PipelineFile, "error", err)
	} else {
		report.DvcStages = strconv.Itoa(len(stages))
	}

	report.Tools = env.Prober.Report(ctx, tools.DefaultRequirements(env.Config.Dvc.MinVersion))

	if err := render.WriteKV(env.Stdout, doctorKV(report)); err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout)
	if err := render.WriteToolTable(env.Stdout, env.Styler, render.ToolRows(report.Tools)); err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout)

	if missing := tools.MissingRequired(report.Tools); len(missing) > 0 {
		fmt.Fprintln(env.Stdout, "status: missing_required_tools")
		return errors.NewWithDetails(errors.EToolMissing, "required tools are not usable: "+strings.Join(missing, ", "),
			map[string]string{"tools": strings.Join(missing, ",")})
	}
	fmt.Fprintln(env.Stdout, "status: ok")
	return nil
}

// doctorKV returns the stable key: value output for doctor.
func doctorKV(r DoctorReport) []render.KV {
	origin := r.OriginURL
	if origin == "" {
		origin = "none"
	}
	minVersion := r.DvcMinVersion
	if minVersion == "" {
		minVersion = "none"
	}
	return []render.KV{
		{Key: "project_root", Value: r.ProjectRoot},
		{Key: "git_repo", Value: boolStr(r.InRepo)},
		{Key: "has_commits", Value: r.HasCommits},
		{Key: "origin_url", Value: origin},
		{Key: "config_sources", Value: listOrNone(r.ConfigSources)},
		{Key: "on_tool_failure", Value: r.OnToolFailure},
		{Key: "decisions_dir", Value: r.DecisionsDir},
		{Key: "dvc_min_version", Value: minVersion},
		{Key: "dvc_initialized", Value: boolStr(r.DvcInitialized)},
		{Key: "dvc_stages", Value: r.DvcStages},
	}
}
