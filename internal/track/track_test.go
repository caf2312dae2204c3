package track

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/exec/exectest"
	"github.com/NielsdaWheelz/toth/internal/fs"
	"github.com/NielsdaWheelz/toth/internal/pipeline"
	"github.com/NielsdaWheelz/toth/internal/sidecar"
)

type fakeTools struct {
	available bool
	calls     int
}

func (f *fakeTools) IsAvailable(context.Context, string, string) bool {
	f.calls++
	return f.available
}

type fixture struct {
	dir    string
	runner *exectest.Runner
	tools  *fakeTools
	t      *Tracker
}

func newFixture(t *testing.T, dvcAvailable bool) *fixture {
	t.Helper()
	dir := t.TempDir()
	cr := exectest.New()
	tools := &fakeTools{available: dvcAvailable}
	return &fixture{dir: dir, runner: cr, tools: tools, t: New(fs.NewRealFS(), cr, tools, dir)}
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	full := filepath.Join(f.dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func TestTrack_ReturnsPathForEveryAvailability(t *testing.T) {
	for _, available := range []bool{true, false} {
		f := newFixture(t, available)
		f.write(t, "data/out.csv", "a,b\n1,2\n")

		got, out, err := f.t.Track(context.Background(), []string{"data/out.csv"}, Options{})
		require.NoError(t, err)
		assert.Equal(t, "data/out.csv", got)
		assert.Equal(t, "data/out.csv", out.Path)
	}
}

func TestTrack_MissingPathIsValidationError(t *testing.T) {
	for _, available := range []bool{true, false} {
		f := newFixture(t, available)

		got, _, err := f.t.Track(context.Background(), []string{"data/nope.csv"}, Options{Message: "m", Push: true})
		assert.Equal(t, errors.EValidation, errors.GetCode(err))
		assert.Empty(t, got)
		assert.Empty(t, f.runner.Calls)
	}
}

func TestTrack_MultiplePathsRejectedBeforeAnyCommand(t *testing.T) {
	f := newFixture(t, true)
	f.write(t, "a.csv", "1")
	f.write(t, "b.csv", "2")

	for _, paths := range [][]string{{"a.csv", "b.csv"}, {}, nil} {
		_, _, err := f.t.Track(context.Background(), paths, Options{Message: "m"})
		assert.Equal(t, errors.EValidation, errors.GetCode(err))
	}
	assert.Empty(t, f.runner.Calls)
	assert.Zero(t, f.tools.calls, "probe must not run")
}

func TestTrack_DirectoryRejected(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, os.MkdirAll(filepath.Join(f.dir, "data"), 0755))

	_, _, err := f.t.Track(context.Background(), []string{"data"}, Options{})
	assert.Equal(t, errors.EValidation, errors.GetCode(err))
}

// Artifact exists, dvc unavailable: sidecar written, no process spawned.
func TestTrack_MockFallback(t *testing.T) {
	f := newFixture(t, false)
	f.write(t, "data/out.csv", "x,y\n3,4\n")

	got, out, err := f.t.Track(context.Background(), []string{"data/out.csv"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "data/out.csv", got)
	assert.Empty(t, f.runner.Calls)
	assert.Equal(t, pipeline.StateMockTracked, out.State)

	sc, err := sidecar.Read(fs.NewRealFS(), filepath.Join(f.dir, "data/out.csv.dvc"))
	require.NoError(t, err)
	want, err := sidecar.HashFile(filepath.Join(f.dir, "data/out.csv"))
	require.NoError(t, err)
	assert.Equal(t, want, sc.Hash())
	assert.Equal(t, want, out.Hash)
	assert.Equal(t, "out.csv", sc.Outs[0].Path)

	require.Len(t, out.Warnings, 1)
	assert.Equal(t, errors.EDvcMockFallback, out.Warnings[0].Code)
}

func TestTrack_IdempotentHash(t *testing.T) {
	for _, available := range []bool{true, false} {
		f := newFixture(t, available)
		f.write(t, "model.json", `{"coef": 1.5}`)

		_, first, err := f.t.Track(context.Background(), []string{"model.json"}, Options{})
		require.NoError(t, err)
		_, second, err := f.t.Track(context.Background(), []string{"model.json"}, Options{})
		require.NoError(t, err)

		assert.NotEmpty(t, first.Hash)
		assert.Equal(t, first.Hash, second.Hash)
	}
}

func TestTrack_DvcAvailable(t *testing.T) {
	f := newFixture(t, true)
	f.write(t, "data/out.csv", "1\n")

	_, out, err := f.t.Track(context.Background(), []string{"data/out.csv"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, pipeline.StateTracked, out.State)
	assert.Equal(t, []string{"dvc add -f data/out.csv"}, f.runner.Rendered())
	assert.Equal(t, f.dir, f.runner.Calls[0].Dir)
	assert.Empty(t, out.Warnings)
}

func TestTrack_UsesHashFromDvcSidecar(t *testing.T) {
	f := newFixture(t, true)
	f.write(t, "raw.csv", "1\n")
	f.write(t, "raw.csv.dvc", "outs:\n- md5: 0123456789abcdef0123456789abcdef\n  path: raw.csv\n")

	_, out, err := f.t.Track(context.Background(), []string{"raw.csv"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", out.Hash)
}

func TestTrack_CommitAndPush(t *testing.T) {
	f := newFixture(t, true)
	f.write(t, "data/out.csv", "1\n")
	f.write(t, "data/.gitignore", "/out.csv\n")

	_, out, err := f.t.Track(context.Background(), []string{"data/out.csv"},
		Options{Message: "track out", Push: true, Branch: "main"})
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatePushed, out.State)
	assert.Equal(t, []string{
		"dvc add -f data/out.csv",
		"git add data/out.csv.dvc data/.gitignore",
		"git commit -m track out",
		"git push origin main",
	}, f.runner.Rendered())
}

func TestTrack_CommitWithoutPush(t *testing.T) {
	f := newFixture(t, false)
	f.write(t, "out.csv", "1\n")

	_, out, err := f.t.Track(context.Background(), []string{"out.csv"}, Options{Message: "m"})
	require.NoError(t, err)
	assert.Equal(t, pipeline.StateCommitted, out.State)
	assert.Equal(t, []string{"git add out.csv.dvc", "git commit -m m"}, f.runner.Rendered())
}

func TestTrack_DvcFailureIsWarning(t *testing.T) {
	f := newFixture(t, true)
	f.write(t, "out.csv", "1\n")
	f.runner.Fail("dvc add", 255, "ERROR: failed to add")

	got, out, err := f.t.Track(context.Background(), []string{"out.csv"}, Options{Message: "m"})
	require.NoError(t, err)
	assert.Equal(t, "out.csv", got)
	assert.Equal(t, pipeline.FailedAt(pipeline.StepTrack), out.State)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, errors.EExternalCommand, out.Warnings[0].Code)
	assert.Equal(t, "ERROR: failed to add", out.Warnings[0].Details["stderr"])
	assert.Empty(t, f.runner.CallsTo("git"))
}

func TestTrack_AbortPolicy(t *testing.T) {
	f := newFixture(t, true)
	f.t.Policy = pipeline.PolicyAbort
	f.write(t, "out.csv", "1\n")
	f.runner.Fail("git push", 1, "rejected")

	got, out, err := f.t.Track(context.Background(), []string{"out.csv"}, Options{Message: "m", Push: true})
	assert.Equal(t, "out.csv", got)
	te, ok := errors.AsTothError(err)
	require.True(t, ok)
	assert.Equal(t, errors.EPartialPipeline, te.Code)
	assert.Equal(t, pipeline.StepPush, te.Details["step"])
	assert.Equal(t, string(pipeline.StateCommitted), te.Details["reached"])
	assert.Equal(t, pipeline.FailedAt(pipeline.StepPush), out.State)
}

func TestTrack_CommitFailureKeepsSidecar(t *testing.T) {
	f := newFixture(t, false)
	f.write(t, "out.csv", "1\n")
	f.runner.Fail("git commit", 1, "nothing to commit")

	_, out, err := f.t.Track(context.Background(), []string{"out.csv"}, Options{Message: "m", Push: true})
	require.NoError(t, err)
	assert.Equal(t, pipeline.FailedAt(pipeline.StepCommit), out.State)
	assert.FileExists(t, filepath.Join(f.dir, "out.csv.dvc"))
	assert.Empty(t, f.runner.CallsTo("git")[2:], "push must not run after a failed commit")
}

func TestTrack_GitMissingIsWarning(t *testing.T) {
	f := newFixture(t, false)
	f.write(t, "out.csv", "1\n")
	f.runner.Without("git")

	got, out, err := f.t.Track(context.Background(), []string{"out.csv"}, Options{Message: "m"})
	require.NoError(t, err)
	assert.Equal(t, "out.csv", got)
	assert.Equal(t, errors.EToolMissing, out.Warnings[len(out.Warnings)-1].Code)
}

func TestWriteCSV(t *testing.T) {
	f := newFixture(t, false)

	got, out, err := f.t.WriteCSV(context.Background(), "data/processed/clean.csv",
		[][]string{{"id", "name"}, {"1", "a, b"}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "data/processed/clean.csv", got)
	assert.Equal(t, pipeline.StateMockTracked, out.State)

	data, err := os.ReadFile(filepath.Join(f.dir, "data/processed/clean.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,\"a, b\"\n", string(data))
	assert.FileExists(t, filepath.Join(f.dir, "data/processed/clean.csv.dvc"))
}

func TestWriteJSON(t *testing.T) {
	f := newFixture(t, true)

	_, _, err := f.t.WriteJSON(context.Background(), "outputs/model.json", map[string]float64{"coef": 0.5}, Options{})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(f.dir, "outputs/model.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"coef\": 0.5\n}\n", string(data))
	assert.Equal(t, []string{"dvc add -f outputs/model.json"}, f.runner.Rendered())
}

func TestWriteJSON_Unencodable(t *testing.T) {
	f := newFixture(t, true)
	_, _, err := f.t.WriteJSON(context.Background(), "x.json", make(chan int), Options{})
	assert.Equal(t, errors.EValidation, errors.GetCode(err))
	assert.NoFileExists(t, filepath.Join(f.dir, "x.json"))
}
