package agent

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/utils/logging"
)

// GollemRunner runs agents through gollem, which handles the tool loop
type GollemRunner struct {
	llm  gollem.LLMClient
	opts options
}

var _ interfaces.AgentRunner = &GollemRunner{}

func NewGollemRunner(llm gollem.LLMClient, opts ...Option) *GollemRunner {
	return &GollemRunner{llm: llm, opts: newOptions(opts)}
}

func (r *GollemRunner) AllowedTools() []string {
	return r.opts.remote.Allowed()
}

func (r *GollemRunner) Run(ctx context.Context, req *model.AgentRequest) (*model.AgentResult, error) {
	if req.ResponseSchema != nil {
		return r.runStructured(ctx, req)
	}

	logger := logging.From(ctx).With("agent", req.Name)
	result := &model.AgentResult{}

	agentOpts := []gollem.Option{
		gollem.WithSystemPrompt(req.SystemPrompt),
		gollem.WithLoopLimit(r.opts.maxIterations),
		gollem.WithToolMiddleware(
			func(next gollem.ToolHandler) gollem.ToolHandler {
				return func(ctx context.Context, exec *gollem.ToolExecRequest) (*gollem.ToolExecResponse, error) {
					use := model.AgentEvent{
						Type:     model.AgentEventToolUse,
						ToolName: exec.Tool.Name,
						Args:     exec.Tool.Arguments,
					}
					req.Emit(use)
					result.ToolEvents = append(result.ToolEvents, use)
					logger.Debug("tool call", "tool", exec.Tool.Name)

					resp, err := next(ctx, exec)

					done := model.AgentEvent{Type: model.AgentEventToolResult, ToolName: exec.Tool.Name}
					switch {
					case err != nil:
						done.Error = err.Error()
					case resp != nil && resp.Error != nil:
						done.Error = resp.Error.Error()
					case resp != nil:
						done.Result = resp.Result
					}
					req.Emit(done)
					result.ToolEvents = append(result.ToolEvents, done)
					return resp, err
				}
			},
		),
	}
	if len(req.Tools) > 0 {
		agentOpts = append(agentOpts, gollem.WithTools(req.Tools...))
	}
	if sets := r.opts.remoteToolSets(req.UseRemoteTools); len(sets) > 0 {
		agentOpts = append(agentOpts, gollem.WithToolSets(sets...))
	}

	agent := gollem.New(r.llm, agentOpts...)
	resp, err := agent.Execute(ctx, gollem.Text(req.Input))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to execute agent", goerr.V("agent", req.Name))
	}

	result.Text = strings.TrimSpace(strings.Join(resp.Texts, "\n"))
	return result, nil
}

func (r *GollemRunner) runStructured(ctx context.Context, req *model.AgentRequest) (*model.AgentResult, error) {
	session, err := r.llm.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(req.ResponseSchema),
		gollem.WithSessionSystemPrompt(req.SystemPrompt),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create session", goerr.V("agent", req.Name))
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(req.Input))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content", goerr.V("agent", req.Name))
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.New("empty structured response", goerr.V("agent", req.Name))
	}

	return &model.AgentResult{Text: stripFence(strings.Join(resp.Texts, ""))}, nil
}
