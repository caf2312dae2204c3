// Package tools answers "is this external tool usable?" for git, dvc,
// docker and quarto.
package tools

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/NielsdaWheelz/toth/internal/errors"
	tothexec "github.com/NielsdaWheelz/toth/internal/exec"
)

var versionRe = regexp.MustCompile(`\d+\.\d+\.\d+`)

// Prober checks tool presence and versions. LookPath is injectable so tests
// never depend on what is installed on the machine.
type Prober struct {
	Runner   tothexec.CommandRunner
	Paths    tothexec.ToolPaths
	LookPath func(file string) (string, error)
}

// NewProber returns a Prober using exec.LookPath.
func NewProber(cr tothexec.CommandRunner, paths tothexec.ToolPaths) *Prober {
	return &Prober{Runner: cr, Paths: paths, LookPath: exec.LookPath}
}

// Installed reports whether the tool's executable resolves. The tool is not run.
func (p *Prober) Installed(tool string) bool {
	_, err := p.LookPath(p.Paths.Resolve(tool))
	return err == nil
}

// IsAvailable reports whether tool is installed and, when minVersion is
// non-empty, whether `tool --version` reports at least minVersion.
// Any failure along the way (missing binary, non-zero exit, unparseable
// output, malformed minVersion) yields false.
func (p *Prober) IsAvailable(ctx context.Context, tool, minVersion string) bool {
	if !p.Installed(tool) {
		return false
	}
	if minVersion == "" {
		return true
	}
	version, err := p.Version(ctx, tool)
	if err != nil {
		return false
	}
	ok, err := AtLeast(version, minVersion)
	return err == nil && ok
}

// Version runs `tool --version` and returns the first x.y.z found in its output.
func (p *Prober) Version(ctx context.Context, tool string) (string, error) {
	result, err := p.Runner.Run(ctx, tool, []string{"--version"}, tothexec.RunOpts{})
	if tothexec.IsNotFound(result, err) {
		return "", errors.Wrap(errors.EToolMissing, tool+" is not installed or not on PATH", err)
	}
	if err != nil {
		return "", errors.Wrap(errors.EExternalCommand, tool+" --version failed to start", err)
	}
	if result.ExitCode != 0 {
		return "", errors.NewWithDetails(errors.EExternalCommand, tool+" --version failed",
			map[string]string{"exit_code": strconv.Itoa(result.ExitCode), "stderr": strings.TrimSpace(result.Stderr)})
	}
	version, ok := ParseVersion(result.Stdout + "\n" + result.Stderr)
	if !ok {
		return "", errors.NewWithDetails(errors.EExternalCommand, "no version found in "+tool+" --version output",
			map[string]string{"output": strings.TrimSpace(result.Stdout)})
	}
	return version, nil
}

// ParseVersion extracts the first substring matching \d+\.\d+\.\d+.
func ParseVersion(output string) (string, bool) {
	m := versionRe.FindString(output)
	return m, m != ""
}

// AtLeast compares two x.y.z versions component-wise.
func AtLeast(version, minVersion string) (bool, error) {
	v, err := canonical(version)
	if err != nil {
		return false, err
	}
	floor, err := canonical(minVersion)
	if err != nil {
		return false, err
	}
	return semver.Compare(v, floor) >= 0, nil
}

// canonical turns "3.48.0" into "v3.48.0" and rejects anything else.
func canonical(s string) (string, error) {
	parsed, ok := ParseVersion(s)
	if !ok || parsed != strings.TrimPrefix(strings.TrimSpace(s), "v") {
		return "", errors.New(errors.EValidation, "not a x.y.z version: "+s)
	}
	v := "v" + parsed
	if !semver.IsValid(v) {
		return "", errors.New(errors.EValidation, "not a valid version: "+s)
	}
	return v, nil
}
