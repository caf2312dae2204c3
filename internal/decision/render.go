package decision

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/NielsdaWheelz/toth/internal/errors"
	"github.com/NielsdaWheelz/toth/internal/exec"
	"github.com/NielsdaWheelz/toth/internal/fs"
	"github.com/NielsdaWheelz/toth/internal/store"
)

// Format is an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
)

// ParseFormat validates a format name; "" and "md" mean markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "pdf":
		return FormatPDF, nil
	case "docx":
		return FormatDOCX, nil
	}
	return "", errors.NewWithDetails(errors.EValidation, "unknown export format: "+s,
		map[string]string{"allowed": "markdown, html, pdf, docx"})
}

// ext is the file extension quarto produces for the format.
func (f Format) ext() string {
	if f == FormatMarkdown {
		return ".md"
	}
	return "." + string(f)
}

// Render produces the markdown report: a header followed by one bullet list
// per record, in recorded order. Output depends only on the log.
func Render(log *store.DecisionLog) string {
	var b strings.Builder
	b.WriteString("# Decision log: " + log.AnalysisID + "\n\n")
	bullet(&b, "Analyst", log.Analyst)
	bullet(&b, "Created", log.CreatedAt)
	bullet(&b, "Description", log.Description)
	bullet(&b, "Decisions", strconv.Itoa(len(log.Decisions)))

	if len(log.Decisions) == 0 {
		b.WriteString("\n_No decisions recorded._\n")
		return b.String()
	}

	for i, d := range log.Decisions {
		title := d.Check
		if title == "" {
			title = d.Decision
		}
		b.WriteString("\n## " + strconv.Itoa(i+1) + ". " + oneLine(title) + "\n\n")
		bullet(&b, "ID", "`"+d.ID+"`")
		bullet(&b, "Recorded", d.Timestamp)
		bullet(&b, "Observation", d.Observation)
		bullet(&b, "Decision", d.Decision)
		bullet(&b, "Reasoning", d.Reasoning)
		bullet(&b, "Evidence", d.Evidence)
	}
	return b.String()
}

// bullet writes "- **label:** value", skipping empty values.
func bullet(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteString("- **" + label + ":** " + oneLine(value) + "\n")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Exporter writes reports and drives quarto for rich formats.
type Exporter struct {
	FS     fs.FS
	Runner exec.CommandRunner
}

// Export writes the markdown report to out (default: the log path with a
// .md extension). For html, pdf and docx it then runs
// `quarto render <file> --to <format>` next to the markdown file and
// returns the rendered file's path. Missing quarto is E_TOOL_MISSING.
func (e *Exporter) Export(ctx context.Context, h Handle, log *store.DecisionLog, format Format, out string) (string, error) {
	md := out
	if md == "" {
		md = strings.TrimSuffix(h.Path, filepath.Ext(h.Path)) + ".md"
	} else if format != FormatMarkdown {
		md = strings.TrimSuffix(out, filepath.Ext(out)) + ".md"
	}

	if err := e.FS.MkdirAll(filepath.Dir(md), 0o755); err != nil {
		return "", errors.WrapWithDetails(errors.EPersistFailed, "cannot create report directory", err,
			map[string]string{"path": filepath.Dir(md)})
	}
	if err := fs.WriteFileAtomic(e.FS, md, []byte(Render(log)), 0o644); err != nil {
		return "", errors.WrapWithDetails(errors.EPersistFailed, "cannot write report", err,
			map[string]string{"path": md})
	}
	if format == FormatMarkdown {
		return md, nil
	}

	_, err := exec.Invoke(ctx, e.Runner, filepath.Dir(md), "quarto",
		[]string{"render", filepath.Base(md), "--to", string(format)})
	if err != nil {
		return md, err
	}
	return strings.TrimSuffix(md, ".md") + format.ext(), nil
}
