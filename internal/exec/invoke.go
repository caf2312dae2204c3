package exec

import (
	"context"
	"strconv"
	"strings"

	"github.com/NielsdaWheelz/toth/internal/core"
	"github.com/NielsdaWheelz/toth/internal/errors"
)

// stderrLimit caps the stderr carried in error details.
const stderrLimit = 2048

// Invocation is one completed tool call.
type Invocation struct {
	CmdResult
	Tool string
	Args []string
}

// String renders the invocation as a copy-pasteable shell line.
func (i Invocation) String() string {
	return core.ShellCommand(i.Tool, i.Args...)
}

// Invoke runs tool in dir and converts failures into coded errors:
//   - executable missing: E_TOOL_MISSING
//   - failed to start: E_EXTERNAL_COMMAND
//   - non-zero exit: E_EXTERNAL_COMMAND with exit_code and stderr details
//
// The Invocation is returned in every case so callers can report output.
func Invoke(ctx context.Context, cr CommandRunner, dir, tool string, args []string) (Invocation, error) {
	result, err := cr.Run(ctx, tool, args, RunOpts{Dir: dir})
	inv := Invocation{CmdResult: result, Tool: tool, Args: args}

	if IsNotFound(result, err) {
		return inv, errors.WrapWithDetails(errors.EToolMissing, tool+" is not installed or not on PATH", err,
			map[string]string{"tool": tool})
	}
	if err != nil {
		return inv, errors.WrapWithDetails(errors.EExternalCommand, "failed to run "+inv.String(), err,
			map[string]string{"tool": tool})
	}
	if result.ExitCode != 0 {
		return inv, errors.NewWithDetails(errors.EExternalCommand,
			inv.String()+" exited with status "+strconv.Itoa(result.ExitCode),
			map[string]string{
				"tool":      tool,
				"exit_code": strconv.Itoa(result.ExitCode),
				"stderr":    truncate(strings.TrimSpace(result.Stderr), stderrLimit),
			})
	}
	return inv, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
