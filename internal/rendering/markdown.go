package rendering

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	"text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jonathan/podcast-planner/internal/types"
)

const scriptMarkdownTemplate = `# {{md .Title}}
{{if .Overview}}
_{{md .Overview}}_
{{end}}
**Speakers:** {{range $i, $s := .Speakers}}{{if $i}}, {{end}}{{md $s}}{{end}}  
**Estimated length:** {{printf "%.1f" .Minutes}} minutes
{{if .Segments}}
## Segments
{{range $i, $s := .Segments}}
{{inc $i}}. {{md $s}}{{end}}
{{end}}
## Script
{{range .Turns}}
**{{md .Speaker}}:** {{md .Text}}
{{end}}{{if .Critique}}
## Final critique

> {{md .Critique}}
{{end}}`

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}</body>
</html>
`

var (
	markdownTmpl = template.Must(template.New("script.md").Funcs(template.FuncMap{
		"md":  EscapeMarkdown,
		"inc": func(i int) int { return i + 1 },
	}).Parse(scriptMarkdownTemplate))

	pageTmpl = htmltemplate.Must(htmltemplate.New("page").Parse(pageTemplate))

	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
)

type scriptView struct {
	Title    string
	Overview string
	Speakers []string
	Segments []string
	Turns    []types.Turn
	Critique string
	Minutes  float64
}

func newScriptView(artifact *types.FinalPodcastArtifact) (*scriptView, error) {
	if artifact == nil || artifact.Script == nil {
		return nil, &RenderError{Message: "artifact has no script"}
	}

	view := &scriptView{
		Speakers: artifact.Script.Speakers,
		Turns:    artifact.Script.Turns,
		Critique: artifact.Critique,
		Minutes:  artifact.DurationMinutes,
	}
	if view.Minutes == 0 {
		view.Minutes = artifact.Script.EstimatedMinutes()
	}
	if artifact.Plan != nil {
		view.Title = artifact.Plan.Title
		view.Overview = artifact.Plan.Overview
		view.Segments = artifact.Plan.Segments
	}
	if view.Title == "" && artifact.Source != nil {
		view.Title = artifact.Source.Title
	}
	if view.Title == "" {
		view.Title = "Podcast Script"
	}
	return view, nil
}

// ScriptMarkdown renders the final plan outline and script as Markdown.
// All model-produced text is escaped.
func ScriptMarkdown(artifact *types.FinalPodcastArtifact) (string, error) {
	view, err := newScriptView(artifact)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := markdownTmpl.Execute(&sb, view); err != nil {
		return "", &TemplateError{Message: "failed to execute markdown template", Cause: err}
	}
	return sb.String(), nil
}

// MarkdownToHTML converts Markdown into an HTML fragment. Raw HTML in the
// input is omitted.
func MarkdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", &RenderError{Message: "failed to convert markdown", Cause: err}
	}
	return buf.String(), nil
}

// ScriptHTML renders the script as a standalone HTML page.
func ScriptHTML(artifact *types.FinalPodcastArtifact) (string, error) {
	md, err := ScriptMarkdown(artifact)
	if err != nil {
		return "", err
	}
	body, err := MarkdownToHTML(md)
	if err != nil {
		return "", err
	}

	view, _ := newScriptView(artifact)
	var buf bytes.Buffer
	err = pageTmpl.Execute(&buf, struct {
		Title string
		Body  htmltemplate.HTML
	}{
		Title: view.Title,
		// goldmark output with raw HTML disabled
		Body: htmltemplate.HTML(body), //nolint:gosec
	})
	if err != nil {
		return "", &TemplateError{Message: "failed to execute page template", Cause: err}
	}
	return buf.String(), nil
}
