package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/utils/logging"
)

const (
	DefaultAnthropicModel = "claude-sonnet-4-5"
	anthropicMaxTokens    = 4096
)

// MessageClient is the subset of the Anthropic Messages API used by the runner
type MessageClient interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicRunner drives the tool loop directly against the Messages API
type AnthropicRunner struct {
	client MessageClient
	model  string
	opts   options
}

var _ interfaces.AgentRunner = &AnthropicRunner{}

// NewAnthropicClient builds the SDK message service for an API key
func NewAnthropicClient(apiKey string) MessageClient {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &client.Messages
}

func NewAnthropicRunner(client MessageClient, modelName string, opts ...Option) *AnthropicRunner {
	if modelName == "" {
		modelName = DefaultAnthropicModel
	}
	return &AnthropicRunner{client: client, model: modelName, opts: newOptions(opts)}
}

func (r *AnthropicRunner) AllowedTools() []string {
	return r.opts.remote.Allowed()
}

func (r *AnthropicRunner) Run(ctx context.Context, req *model.AgentRequest) (*model.AgentResult, error) {
	logger := logging.From(ctx).With("agent", req.Name)

	systemPrompt := req.SystemPrompt
	var tools []anthropic.ToolUnionParam
	var idx *toolIndex

	if req.ResponseSchema != nil {
		raw, err := json.Marshal(parameterSchema(req.ResponseSchema))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to encode response schema")
		}
		systemPrompt += "\n\nRespond with a single JSON value matching this schema and nothing else:\n" + string(raw)
	} else {
		var err error
		idx, err = buildToolIndex(ctx, req.Tools, r.opts.remoteToolSets(req.UseRemoteTools))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to build tool index", goerr.V("agent", req.Name))
		}
		for _, spec := range idx.specs {
			props, required := propertiesSchema(spec.Parameters)
			tools = append(tools, anthropic.ToolUnionParam{
				OfTool: &anthropic.ToolParam{
					Name:        spec.Name,
					Description: anthropic.String(spec.Description),
					InputSchema: anthropic.ToolInputSchemaParam{
						Properties: props,
						Required:   required,
					},
				},
			})
		}
	}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.Input)),
	}
	result := &model.AgentResult{}

	for turn := 0; turn < r.opts.maxIterations; turn++ {
		if err := ctx.Err(); err != nil {
			return nil, goerr.Wrap(err, "agent cancelled", goerr.V("agent", req.Name))
		}

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(r.model),
			MaxTokens: anthropicMaxTokens,
			Messages:  messages,
			System: []anthropic.TextBlockParam{
				{Text: systemPrompt},
			},
		}
		if len(tools) > 0 {
			params.Tools = tools
		}

		resp, err := r.client.New(ctx, params)
		if err != nil {
			return nil, goerr.Wrap(err, "claude API error", goerr.V("agent", req.Name))
		}

		var text strings.Builder
		var toolResults []anthropic.ContentBlockParamUnion
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				text.WriteString(block.Text)

			case "tool_use":
				toolResults = append(toolResults, r.callTool(ctx, req, idx, result, block.ID, block.Name, block.Input))
			}
		}

		if len(toolResults) == 0 {
			out := strings.TrimSpace(text.String())
			if req.ResponseSchema != nil {
				out = stripFence(out)
			}
			result.Text = out
			return result, nil
		}

		logger.Debug("tool round finished", "turn", turn, "calls", len(toolResults))
		messages = append(messages, resp.ToParam(), anthropic.NewUserMessage(toolResults...))
	}

	return nil, goerr.Wrap(ErrIterationLimit, "agent did not finish", goerr.V("agent", req.Name), goerr.V("limit", r.opts.maxIterations))
}

func (r *AnthropicRunner) callTool(ctx context.Context, req *model.AgentRequest, idx *toolIndex, result *model.AgentResult, id, name string, input json.RawMessage) anthropic.ContentBlockParamUnion {
	var args map[string]any
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return anthropic.NewToolResultBlock(id, "invalid tool input: "+err.Error(), true)
		}
	}

	use := model.AgentEvent{Type: model.AgentEventToolUse, ToolName: name, Args: args}
	req.Emit(use)
	result.ToolEvents = append(result.ToolEvents, use)

	done := model.AgentEvent{Type: model.AgentEventToolResult, ToolName: name}
	defer func() {
		req.Emit(done)
		result.ToolEvents = append(result.ToolEvents, done)
	}()

	if idx == nil {
		done.Error = "tools are not available"
		return anthropic.NewToolResultBlock(id, done.Error, true)
	}

	out, err := idx.run(ctx, name, args)
	if err != nil {
		done.Error = err.Error()
		return anthropic.NewToolResultBlock(id, err.Error(), true)
	}
	done.Result = out

	raw, err := json.Marshal(out)
	if err != nil {
		done.Error = err.Error()
		return anthropic.NewToolResultBlock(id, err.Error(), true)
	}
	return anthropic.NewToolResultBlock(id, string(raw), false)
}
