package args

import (
	"math"
	"strconv"
	"strings"

	"github.com/NielsdaWheelz/toth/internal/core"
	"github.com/NielsdaWheelz/toth/internal/errors"
)

// ParamValue is a stage parameter value. The concrete types are
// StringValue, NumberValue and BoolValue; each knows its own formatting.
type ParamValue interface {
	// Format renders the value as it appears after "name=" on the dvc command line.
	Format() string
	isParamValue()
}

// StringValue is shell-quoted: x -> 'x'.
type StringValue string

// NumberValue is written in its shortest decimal form: 10, 0.5, -3.25.
type NumberValue float64

// BoolValue is written lowercase: true, false.
type BoolValue bool

func (v StringValue) Format() string { return core.ShellEscapePosix(string(v)) }
func (v NumberValue) Format() string { return strconv.FormatFloat(float64(v), 'f', -1, 64) }
func (v BoolValue) Format() string   { return strconv.FormatBool(bool(v)) }

func (StringValue) isParamValue() {}
func (NumberValue) isParamValue() {}
func (BoolValue) isParamValue()   {}

// Params is an insertion-ordered map of parameter name to value.
// The zero value is ready to use.
type Params struct {
	keys   []string
	values map[string]ParamValue
}

// NewParams builds Params from pairs, in order.
func NewParams(pairs ...Param) Params {
	var p Params
	for _, kv := range pairs {
		p.Set(kv.Name, kv.Value)
	}
	return p
}

// Param is a single name/value pair.
type Param struct {
	Name  string
	Value ParamValue
}

// Set adds or replaces a parameter. Replacing keeps the original position.
func (p *Params) Set(name string, value ParamValue) {
	if p.values == nil {
		p.values = make(map[string]ParamValue)
	}
	if _, ok := p.values[name]; !ok {
		p.keys = append(p.keys, name)
	}
	p.values[name] = value
}

// Get returns the value for name.
func (p Params) Get(name string) (ParamValue, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Keys returns parameter names in insertion order.
func (p Params) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Len returns the number of parameters.
func (p Params) Len() int {
	return len(p.keys)
}

// ParseParam parses CLI input of the form "name=value".
// true/false become BoolValue, anything strconv can parse as a float becomes
// NumberValue, and everything else is a StringValue.
func ParseParam(raw string) (Param, error) {
	name, value, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Param{}, errors.NewWithDetails(errors.EValidation,
			"malformed parameter "+strconv.Quote(raw)+"; expected name=value",
			map[string]string{"param": raw})
	}
	return Param{Name: name, Value: inferValue(value)}, nil
}

func inferValue(s string) ParamValue {
	switch s {
	case "true", "TRUE":
		return BoolValue(true)
	case "false", "FALSE":
		return BoolValue(false)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) && !strings.ContainsAny(s, "xXpP_") {
		return NumberValue(f)
	}
	return StringValue(s)
}

// ParseParams parses a list of "name=value" strings, preserving order.
func ParseParams(raw []string) (Params, error) {
	var p Params
	for _, r := range raw {
		kv, err := ParseParam(r)
		if err != nil {
			return Params{}, err
		}
		p.Set(kv.Name, kv.Value)
	}
	return p, nil
}
