// Package scaffold creates the directory layout and starter files of a
// toth project.
package scaffold

import (
	"bytes"
	"text/template"
)

// Template is one starter file, rendered with TemplateData.
type Template struct {
	RelPath string
	Body    string
	Mode    uint32
}

// TemplateData is what templates can reference.
type TemplateData struct {
	Name string // project name (directory base name)
}

// ProjectConfigTemplate is written to toth.yaml.
const ProjectConfigTemplate = `# toth project settings. TOTH_* environment variables and flags override these.
on_tool_failure: warn
dvc:
  min_version: ""
git:
  remote: origin
  branch: ""
decisions:
  dir: decisions
`

// ReadmeTemplate is written to README.md.
const ReadmeTemplate = `# {{.Name}}

Reproducible analysis project.

## Layout

- ` + "`data/raw`" + ` input data, tracked with dvc
- ` + "`data/processed`" + ` derived data, produced by pipeline stages
- ` + "`analysis`" + ` analysis scripts
- ` + "`outputs`" + ` models, metrics and plots
- ` + "`reports`" + ` Quarto reports
- ` + "`decisions`" + ` decision logs

## Workflow

    toth track data/raw/input.csv --message "add input data"
    toth stage add --name clean --dep data/raw/input.csv --out data/processed/clean.csv -- Rscript analysis/clean.R
    dvc repro
`

// DockerfileTemplate is written to Dockerfile.
const DockerfileTemplate = `FROM rocker/r-ver:4.4.1

RUN apt-get update \
    && apt-get install -y --no-install-recommends git python3-pip \
    && rm -rf /var/lib/apt/lists/*
RUN pip3 install --no-cache-dir --break-system-packages dvc

WORKDIR /project
COPY . /project

CMD ["dvc", "repro"]
`

// ReportTemplate is written to reports/report.qmd.
const ReportTemplate = `---
title: "{{.Name}}"
format: html
---

## Summary

## Results

## Decisions

The decision log lives in ` + "`decisions/`" + `; export it with ` + "`toth decision export`" + `.
`

// DefaultTemplates returns the starter files in creation order.
func DefaultTemplates() []Template {
	return []Template{
		{RelPath: "toth.yaml", Body: ProjectConfigTemplate, Mode: 0o644},
		{RelPath: "README.md", Body: ReadmeTemplate, Mode: 0o644},
		{RelPath: "Dockerfile", Body: DockerfileTemplate, Mode: 0o644},
		{RelPath: "reports/report.qmd", Body: ReportTemplate, Mode: 0o644},
	}
}

// Render executes the template body against data.
func (t Template) Render(data TemplateData) ([]byte, error) {
	tmpl, err := template.New(t.RelPath).Option("missingkey=error").Parse(t.Body)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
