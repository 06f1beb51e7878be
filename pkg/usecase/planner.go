package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/utils/logging"
	"github.com/tidwall/gjson"
)

// errPlanFormat is the cause recorded when the planner output cannot be read
var errPlanFormat = goerr.New("planner output is not a task list")

var planSchema = &gollem.Parameter{
	Type:  gollem.TypeObject,
	Title: "plan",
	Properties: map[string]*gollem.Parameter{
		"tasks": {
			Type:        gollem.TypeArray,
			Description: "Ordered tool invocations",
			Required:    true,
			Items: &gollem.Parameter{
				Type: gollem.TypeObject,
				Properties: map[string]*gollem.Parameter{
					"name": {Type: gollem.TypeString, Description: "Tool name", Required: true},
					"args": {Type: gollem.TypeObject, Description: "Tool arguments"},
				},
			},
		},
	},
}

// Planner turns a user message into an ordered list of tool invocations
type Planner struct {
	runner        interfaces.AgentRunner
	historyWindow int
}

func NewPlanner(runner interfaces.AgentRunner, historyWindow int) *Planner {
	return &Planner{runner: runner, historyWindow: historyWindow}
}

type plannerPromptData struct {
	Tools   []string
	History []*model.Message
}

// Plan never fails: runner and format errors yield a degraded, empty plan
func (p *Planner) Plan(ctx context.Context, message string, history []*model.Message) model.Plan {
	logger := logging.From(ctx)
	allowed := p.runner.AllowedTools()

	systemPrompt, err := renderPrompt(plannerPrompt, plannerPromptData{
		Tools:   allowed,
		History: model.RecentMessages(history, p.historyWindow),
	})
	if err != nil {
		logger.Error("planner prompt failed", "error", err.Error())
		return model.DegradedPlan(err.Error())
	}

	res, err := p.runner.Run(ctx, &model.AgentRequest{
		Name:           "planner",
		SystemPrompt:   systemPrompt,
		Input:          message,
		ResponseSchema: planSchema,
	})
	if err != nil {
		logger.Warn("planner failed, falling back to direct answer", "error", err.Error())
		return model.DegradedPlan(err.Error())
	}

	plan, err := parsePlan(res.Text, allowed)
	if err != nil {
		logger.Warn("planner output unreadable, falling back to direct answer",
			"error", err.Error(),
			"output", res.Text)
		return model.DegradedPlan(err.Error())
	}

	for _, dropped := range plan.dropped {
		logger.Warn("planner proposed a tool outside the allow-list", "tool", dropped)
	}
	return model.NewPlan(plan.tasks)
}

type parsedPlan struct {
	tasks   []model.PlannedTask
	dropped []string
}

// parsePlan accepts {"tasks":[...]}, a bare array, or either inside a code fence
func parsePlan(text string, allowed []string) (*parsedPlan, error) {
	raw := extractJSON(text)
	if raw == "" || !gjson.Valid(raw) {
		return nil, goerr.Wrap(errPlanFormat, "invalid JSON")
	}

	doc := gjson.Parse(raw)
	list := doc
	if doc.IsObject() {
		list = doc.Get("tasks")
	}
	if !list.IsArray() {
		return nil, goerr.Wrap(errPlanFormat, "tasks is not an array")
	}

	permitted := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		permitted[name] = struct{}{}
	}

	out := &parsedPlan{tasks: []model.PlannedTask{}}
	for _, item := range list.Array() {
		name := strings.TrimSpace(item.Get("name").String())
		if name == "" {
			continue
		}
		if len(permitted) > 0 {
			if _, ok := permitted[name]; !ok {
				out.dropped = append(out.dropped, name)
				continue
			}
		}

		args := map[string]any{}
		if a := item.Get("args"); a.IsObject() {
			if m, ok := a.Value().(map[string]any); ok {
				args = m
			}
		}
		out.tasks = append(out.tasks, model.PlannedTask{Name: name, Args: args})
	}
	return out, nil
}

// extractJSON strips a markdown fence and surrounding prose
func extractJSON(text string) string {
	t := strings.TrimSpace(text)
	if i := strings.Index(t, "```"); i >= 0 {
		t = t[i+3:]
		if nl := strings.IndexByte(t, '\n'); nl >= 0 {
			t = t[nl+1:]
		}
		if end := strings.Index(t, "```"); end >= 0 {
			t = t[:end]
		}
		t = strings.TrimSpace(t)
	}

	start := strings.IndexAny(t, "{[")
	if start < 0 {
		return ""
	}
	t = t[start:]
	end := strings.LastIndexAny(t, "}]")
	if end < 0 {
		return ""
	}
	return t[:end+1]
}
