package commands

import (
	"context"
	"strconv"

	"github.com/NielsdaWheelz/toth/internal/decision"
	"github.com/NielsdaWheelz/toth/internal/render"
)

// DecisionInit implements `toth decision init`.
func DecisionInit(ctx context.Context, env *Env, id, analyst, description string) error {
	s := env.store(env.projectRoot(ctx))
	h, err := decision.Init(s, id, analyst, description)
	if err != nil {
		return err
	}
	return render.WriteKV(env.Stdout, []render.KV{
		{Key: "analysis_id", Value: h.AnalysisID},
		{Key: "path", Value: h.Path},
		{Key: "decision_log", Value: "created"},
	})
}

// DecisionRecord implements `toth decision record`.
func DecisionRecord(ctx context.Context, env *Env, id string, in decision.Input) error {
	s := env.store(env.projectRoot(ctx))
	h, _, err := decision.Open(s, id)
	if err != nil {
		return err
	}
	rec, err := decision.Record(s, h, in)
	if err != nil {
		return err
	}
	return render.WriteKV(env.Stdout, []render.KV{
		{Key: "analysis_id", Value: h.AnalysisID},
		{Key: "decision_id", Value: rec.ID},
		{Key: "timestamp", Value: rec.Timestamp},
		{Key: "path", Value: h.Path},
	})
}

// DecisionShow implements `toth decision show`. With markdown set it
// prints the rendered report instead of the summary.
func DecisionShow(ctx context.Context, env *Env, id string, markdown bool) error {
	s := env.store(env.projectRoot(ctx))
	h, log, err := decision.Open(s, id)
	if err != nil {
		return err
	}
	if markdown {
		_, err := env.Stdout.Write([]byte(decision.Render(log)))
		return err
	}
	sum := decision.Summarize(log)
	latest := sum.LatestID
	if latest == "" {
		latest = "none"
	}
	analyst := sum.Analyst
	if analyst == "" {
		analyst = "none"
	}
	return render.WriteKV(env.Stdout, []render.KV{
		{Key: "analysis_id", Value: sum.AnalysisID},
		{Key: "analyst", Value: analyst},
		{Key: "path", Value: h.Path},
		{Key: "decisions", Value: strconv.Itoa(sum.Count)},
		{Key: "latest_id", Value: latest},
	})
}

// DecisionExport implements `toth decision export`. When a rich format
// fails to render, the markdown report is still reported.
func DecisionExport(ctx context.Context, env *Env, id, format, out string) error {
	f, err := decision.ParseFormat(format)
	if err != nil {
		return err
	}
	s := env.store(env.projectRoot(ctx))
	h, log, err := decision.Open(s, id)
	if err != nil {
		return err
	}
	exporter := &decision.Exporter{FS: env.FS, Runner: env.Runner}
	path, err := exporter.Export(ctx, h, log, f, absFrom(env.Cwd, out))
	if err != nil {
		if path != "" {
			_ = render.WriteKV(env.Stdout, []render.KV{{Key: "markdown", Value: path}})
		}
		return err
	}
	return render.WriteKV(env.Stdout, []render.KV{
		{Key: "format", Value: string(f)},
		{Key: "path", Value: path},
	})
}
