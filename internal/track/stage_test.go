package track

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NielsdaWheelz/toth/internal/args"
	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/pipeline"
)

func trainSpec() args.StageSpec {
	return args.StageSpec{
		Name:    "train",
		Command: "Rscript analysis/train.R",
		Deps:    []string{"data/processed/train.csv"},
		Outputs: []args.Output{{Path: "outputs/model.rds"}, {Path: "outputs/metrics.json", Metric: true}},
	}
}

func stageCalls(f *fixture) []string {
	var out []string
	for _, c := range f.runner.CallsTo("dvc") {
		if len(c.Args) > 1 && c.Args[0] == "stage" {
			out = append(out, c.Args...)
		}
	}
	return out
}

func TestStage_OneMetricOnePlain(t *testing.T) {
	f := newFixture(t, true)

	out, err := f.t.Stage(context.Background(), trainSpec(), StageOptions{})
	require.NoError(t, err)
	assert.Equal(t, pipeline.StateStaged, out.State)

	vec := stageCalls(f)
	counts := map[string]int{}
	for _, a := range vec {
		counts[a]++
	}
	assert.Equal(t, 1, counts["-M"])
	assert.Equal(t, 1, counts["-o"])
	assert.Equal(t, "Rscript analysis/train.R", vec[len(vec)-1])
}

func TestStage_StagesPipelineFilesThatExist(t *testing.T) {
	f := newFixture(t, true)
	f.write(t, "dvc.yaml", "stages:\n  clean:\n    cmd: make\n")

	_, err := f.t.Stage(context.Background(), trainSpec(), StageOptions{Options: Options{Message: "add train"}})
	require.NoError(t, err)

	rendered := f.runner.Rendered()
	require.Len(t, rendered, 3)
	assert.True(t, strings.HasPrefix(rendered[0], "dvc stage add -n train"))
	assert.Equal(t, "git add dvc.yaml", rendered[1])
	assert.Equal(t, "git commit -m add train", rendered[2])
}

func TestStage_InlineScript(t *testing.T) {
	f := newFixture(t, true)
	spec := args.StageSpec{Name: "clean", Script: "Rscript analysis/clean.R", Outputs: []args.Output{{Path: "data/processed/clean.csv"}}}

	_, err := f.t.Stage(context.Background(), spec, StageOptions{})
	require.NoError(t, err)

	vec := stageCalls(f)
	assert.Equal(t, "sh .toth/stages/clean.sh", vec[len(vec)-1])

	script := filepath.Join(f.dir, ".toth/stages/clean.sh")
	data, err := os.ReadFile(script)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\nset -e\nRscript analysis/clean.R\n", string(data))
	info, err := os.Stat(script)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())

	assert.Contains(t, f.runner.Rendered(), "git add .toth/stages/clean.sh")
}

func TestStage_FailedRegistrationRemovesNewScript(t *testing.T) {
	f := newFixture(t, true)
	f.runner.Fail("dvc stage add", 1, "ERROR: bad stage")
	spec := args.StageSpec{Name: "clean", Script: "echo hi"}

	out, err := f.t.Stage(context.Background(), spec, StageOptions{})
	require.NoError(t, err)
	assert.Equal(t, pipeline.FailedAt(pipeline.StepStage), out.State)
	assert.NoFileExists(t, filepath.Join(f.dir, ".toth/stages/clean.sh"))

	entries, err := os.ReadDir(filepath.Join(f.dir, ".toth/stages"))
	require.NoError(t, err)
	assert.Empty(t, entries, "no temp files left behind")
}

func TestStage_FailedRegistrationRestoresExistingScript(t *testing.T) {
	f := newFixture(t, true)
	previous := "#!/bin/sh\nset -e\nRscript analysis/clean.R\n"
	f.write(t, ".toth/stages/clean.sh", previous)
	f.runner.Fail("dvc stage add", 1, "ERROR: bad stage")
	spec := args.StageSpec{Name: "clean", Script: "echo replaced", Force: true}

	out, err := f.t.Stage(context.Background(), spec, StageOptions{})
	require.NoError(t, err)
	assert.Equal(t, pipeline.FailedAt(pipeline.StepStage), out.State)

	data, err := os.ReadFile(filepath.Join(f.dir, ".toth/stages/clean.sh"))
	require.NoError(t, err)
	assert.Equal(t, previous, string(data))

	entries, err := os.ReadDir(filepath.Join(f.dir, ".toth/stages"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestStage_DuplicateNameRejected(t *testing.T) {
	f := newFixture(t, true)
	f.write(t, "dvc.yaml", "stages:\n  train:\n    cmd: make\n")

	_, err := f.t.Stage(context.Background(), trainSpec(), StageOptions{})
	assert.Equal(t, errors.EValidation, errors.GetCode(err))
	assert.Empty(t, f.runner.Calls)

	spec := trainSpec()
	spec.Force = true
	_, err = f.t.Stage(context.Background(), spec, StageOptions{})
	require.NoError(t, err)
	assert.Contains(t, stageCalls(f), "--force")
}

func TestStage_InvalidSpec(t *testing.T) {
	f := newFixture(t, true)
	spec := trainSpec()
	spec.Outputs = append(spec.Outputs, args.Output{Path: "outputs/model.rds", Metric: true})

	_, err := f.t.Stage(context.Background(), spec, StageOptions{})
	assert.Equal(t, errors.EValidation, errors.GetCode(err))
	assert.Empty(t, f.runner.Calls)
	assert.Zero(t, f.tools.calls)
}

func TestStage_DvcMissingWarnsAndSkips(t *testing.T) {
	f := newFixture(t, false)
	spec := args.StageSpec{Name: "clean", Script: "echo hi"}

	out, err := f.t.Stage(context.Background(), spec, StageOptions{Options: Options{Message: "m"}})
	require.NoError(t, err)
	assert.Equal(t, pipeline.FailedAt(pipeline.StepStage), out.State)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, errors.EToolMissing, out.Warnings[0].Code)
	assert.Empty(t, f.runner.Calls)
	assert.NoDirExists(t, filepath.Join(f.dir, ".toth"))
}

func TestStage_DvcMissingAbort(t *testing.T) {
	f := newFixture(t, false)
	f.t.Policy = pipeline.PolicyAbort

	_, err := f.t.Stage(context.Background(), trainSpec(), StageOptions{})
	te, ok := errors.AsTothError(err)
	require.True(t, ok)
	assert.Equal(t, errors.EPartialPipeline, te.Code)
	assert.Equal(t, pipeline.StepStage, te.Details["step"])
}

func TestStage_RunReproAndStageLock(t *testing.T) {
	f := newFixture(t, true)
	f.write(t, "dvc.lock", "schema: '2.0'\n")

	out, err := f.t.Stage(context.Background(), trainSpec(),
		StageOptions{Run: true, Options: Options{Message: "run train", Push: true}})
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatePushed, out.State)

	rendered := f.runner.Rendered()
	assert.Equal(t, []string{
		"git add dvc.lock",
		"dvc repro train",
		"git add dvc.lock",
		"git commit -m run train",
		"git push",
	}, rendered[1:])
}
