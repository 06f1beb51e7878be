package usecase

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
)

var (
	//go:embed prompt/planner.md
	plannerPromptTmpl string
	//go:embed prompt/task.md
	taskPromptTmpl string
	//go:embed prompt/primary.md
	primaryPromptTmpl string
	//go:embed prompt/synthesis.md
	synthesisPromptTmpl string
	//go:embed prompt/extraction.md
	extractionPromptTmpl string
	//go:embed prompt/title.md
	titlePrompt string
)

var (
	plannerPrompt    = template.Must(template.New("planner").Parse(plannerPromptTmpl))
	taskPrompt       = template.Must(template.New("task").Parse(taskPromptTmpl))
	primaryPrompt    = template.Must(template.New("primary").Parse(primaryPromptTmpl))
	synthesisPrompt  = template.Must(template.New("synthesis").Parse(synthesisPromptTmpl))
	extractionPrompt = template.Must(template.New("extraction").Parse(extractionPromptTmpl))
)

func renderPrompt(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to render prompt", goerr.V("template", tmpl.Name()))
	}
	return buf.String(), nil
}

// agentPromptData feeds the task, primary and synthesis prompts
type agentPromptData struct {
	Task     string
	Request  string
	Autonomy string
	Memory   string
	Now      string
}
