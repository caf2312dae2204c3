package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NielsdaWheelz/toth/internal/decision"
	"github.com/NielsdaWheelz/toth/internal/errors"
)

func TestDecision_InitRecordShow(t *testing.T) {
	e := newTestEnv(t, "git")
	ctx := context.Background()
	logPath := filepath.Join(e.dir, "decisions", "churn-2026.yaml")

	require.NoError(t, DecisionInit(ctx, e.Env, "churn-2026", "ana", "quarterly churn model"))
	assert.Equal(t, "analysis_id: churn-2026\npath: "+logPath+"\ndecision_log: created\n", e.stdout.String())

	e.reset()
	in := decision.Input{
		Check:       "missingness",
		Observation: "12% of tenure is NA",
		Decision:    "impute with median",
		Reasoning:   "MAR pattern",
	}
	require.NoError(t, DecisionRecord(ctx, e.Env, "churn-2026", in))
	id := decision.RecordID(in, fixedNow)
	assert.Contains(t, e.stdout.String(), "decision_id: "+id+"\n")
	assert.Contains(t, e.stdout.String(), "timestamp: 2026-03-14T09:30:00Z\n")

	e.reset()
	require.NoError(t, DecisionShow(ctx, e.Env, "churn-2026", false))
	assert.Contains(t, e.stdout.String(), "decisions: 1\n")
	assert.Contains(t, e.stdout.String(), "latest_id: "+id+"\n")

	e.reset()
	require.NoError(t, DecisionShow(ctx, e.Env, "churn-2026", true))
	assert.True(t, strings.HasPrefix(e.stdout.String(), "# Decision log: churn-2026\n"))
}

func TestDecision_InitTwiceFails(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, DecisionInit(ctx, e.Env, "a", "", ""))
	err := DecisionInit(ctx, e.Env, "a", "", "")
	assert.Equal(t, errors.EDecisionLogExists, errors.GetCode(err))
}

func TestDecision_RecordUnknownLog(t *testing.T) {
	e := newTestEnv(t)

	err := DecisionRecord(context.Background(), e.Env, "nope", decision.Input{Decision: "x"})
	assert.Equal(t, errors.EDecisionLogNotFound, errors.GetCode(err))
}

func TestDecision_RecordRequiresDecision(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, DecisionInit(ctx, e.Env, "a", "", ""))

	err := DecisionRecord(ctx, e.Env, "a", decision.Input{Check: "c"})
	assert.Equal(t, errors.EValidation, errors.GetCode(err))
}

func TestDecision_ExportMarkdown(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, DecisionInit(ctx, e.Env, "a", "ana", ""))
	e.reset()

	require.NoError(t, DecisionExport(ctx, e.Env, "a", "md", "reports/decisions.md"))
	want := filepath.Join(e.dir, "reports", "decisions.md")
	assert.Equal(t, "format: markdown\npath: "+want+"\n", e.stdout.String())
	_, err := os.Stat(want)
	assert.NoError(t, err)
	assert.Empty(t, e.runner.CallsTo("quarto"))
}

func TestDecision_ExportHTMLWithoutQuarto(t *testing.T) {
	e := newTestEnv(t)
	e.runner.Without("quarto")
	ctx := context.Background()
	require.NoError(t, DecisionInit(ctx, e.Env, "a", "", ""))
	e.reset()

	err := DecisionExport(ctx, e.Env, "a", "html", "")
	assert.Equal(t, errors.EToolMissing, errors.GetCode(err))
	assert.Equal(t, "markdown: "+filepath.Join(e.dir, "decisions", "a.md")+"\n", e.stdout.String())
}

func TestDecision_ExportHTML(t *testing.T) {
	e := newTestEnv(t, "quarto")
	ctx := context.Background()
	require.NoError(t, DecisionInit(ctx, e.Env, "a", "", ""))
	e.reset()

	require.NoError(t, DecisionExport(ctx, e.Env, "a", "html", ""))
	assert.Equal(t, []string{"quarto render a.md --to html"}, renderedTo(e, "quarto"))
	assert.Contains(t, e.stdout.String(), "path: "+filepath.Join(e.dir, "decisions", "a.html")+"\n")
}

func TestDecision_ExportUnknownFormat(t *testing.T) {
	e := newTestEnv(t)
	err := DecisionExport(context.Background(), e.Env, "a", "rtf", "")
	assert.Equal(t, errors.EValidation, errors.GetCode(err))
}

func renderedTo(e *testEnv, tool string) []string {
	var out []string
	for _, c := range e.runner.CallsTo(tool) {
		out = append(out, c.String())
	}
	return out
}
