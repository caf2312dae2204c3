package args

import (
	"math/rand"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NielsdaWheelz/toth/internal/errors"
)

func TestBuildDeps(t *testing.T) {
	assert.Equal(t, []string{"-d", "a.csv", "-d", "b.csv"}, BuildDeps([]string{"a.csv", "b.csv"}))
	assert.Empty(t, BuildDeps(nil))
	assert.Empty(t, BuildDeps([]string{}))
}

func TestBuildOutputs_Flags(t *testing.T) {
	got := BuildOutputs([]Output{
		{Path: "model.rds"},
		{Path: "metrics.json", Metric: true},
		{Path: "roc.csv", Plot: true},
		{Path: "both.json", Metric: true, Plot: true},
	})
	want := []string{
		"-o", "model.rds",
		"-M", "metrics.json",
		"--plots", "roc.csv",
		"-M", "both.json",
	}
	assert.Equal(t, want, got)
	assert.Empty(t, BuildOutputs(nil))
}

// Every output gets exactly one flag and a metric is never also an -o.
func TestBuildOutputs_ExclusivityProperty(t *testing.T) {
	prop := func(metric, plot []bool) bool {
		n := len(metric)
		if len(plot) < n {
			n = len(plot)
		}
		outputs := make([]Output, n)
		for i := 0; i < n; i++ {
			outputs[i] = Output{Path: string(rune('a'+i%26)) + ".out", Metric: metric[i], Plot: plot[i]}
		}

		got := BuildOutputs(outputs)
		if len(got) != 2*n {
			return false
		}
		for i := 0; i < n; i++ {
			flag, path := got[2*i], got[2*i+1]
			if path != outputs[i].Path {
				return false
			}
			if outputs[i].Metric && flag != FlagMetric {
				return false
			}
			if !outputs[i].Metric && flag == FlagMetric {
				return false
			}
			if outputs[i].Plot && !outputs[i].Metric && flag != FlagPlot {
				return false
			}
		}
		return true
	}
	cfg := &quick.Config{MaxCount: 500, Rand: rand.New(rand.NewSource(7))}
	require.NoError(t, quick.Check(prop, cfg))
}

func TestBuildParams(t *testing.T) {
	var empty Params
	assert.Empty(t, BuildParams(empty))

	p := NewParams(
		Param{"n", NumberValue(10)},
		Param{"flag", BoolValue(true)},
		Param{"name", StringValue("x")},
	)
	assert.Equal(t, []string{"-p", "n=10", "-p", "flag=true", "-p", "name='x'"}, BuildParams(p))
}

func TestBuildParams_InsertionOrderNotSorted(t *testing.T) {
	var p Params
	p.Set("zeta", NumberValue(1))
	p.Set("alpha", NumberValue(2))
	p.Set("zeta", NumberValue(3)) // replace keeps position

	assert.Equal(t, []string{"-p", "zeta=3", "-p", "alpha=2"}, BuildParams(p))
	assert.Equal(t, []string{"zeta", "alpha"}, p.Keys())
}

func TestParamValue_Format(t *testing.T) {
	tests := []struct {
		name  string
		value ParamValue
		want  string
	}{
		{"integer", NumberValue(10), "10"},
		{"fraction", NumberValue(0.5), "0.5"},
		{"negative", NumberValue(-3.25), "-3.25"},
		{"large", NumberValue(1e6), "1000000"},
		{"true", BoolValue(true), "true"},
		{"false", BoolValue(false), "false"},
		{"string", StringValue("glm"), "'glm'"},
		{"string with quote", StringValue("it's"), `'it'"'"'s'`},
		{"empty string", StringValue(""), "''"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.Format())
		})
	}
}

func TestBuildAlwaysChanged(t *testing.T) {
	assert.Equal(t, []string{"--always-changed"}, BuildAlwaysChanged(true))
	assert.Empty(t, BuildAlwaysChanged(false))
}

func TestParseParam(t *testing.T) {
	tests := []struct {
		raw  string
		name string
		want ParamValue
	}{
		{"n=10", "n", NumberValue(10)},
		{"alpha=0.05", "alpha", NumberValue(0.05)},
		{"flag=true", "flag", BoolValue(true)},
		{"flag=FALSE", "flag", BoolValue(false)},
		{"model=glm", "model", StringValue("glm")},
		{"expr=a=b", "expr", StringValue("a=b")},
		{"empty=", "empty", StringValue("")},
		{"hex=0x10", "hex", StringValue("0x10")},
		{"nan=NaN", "nan", StringValue("NaN")},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseParam(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.name, got.Name)
			assert.Equal(t, tt.want, got.Value)
		})
	}
}

func TestParseParam_Malformed(t *testing.T) {
	for _, raw := range []string{"novalue", "=x", " =x", ""} {
		_, err := ParseParam(raw)
		assert.Equal(t, errors.EValidation, errors.GetCode(err), raw)
	}
}

func TestParseParams_Order(t *testing.T) {
	p, err := ParseParams([]string{"b=1", "a=two"})
	require.NoError(t, err)
	assert.Equal(t, []string{"-p", "b=1", "-p", "a='two'"}, BuildParams(p))

	_, err = ParseParams([]string{"ok=1", "bad"})
	assert.Error(t, err)
}
