package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/shopmate-ai/shopmate/pkg/agent/tool/core"
	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/model/config"
	"github.com/shopmate-ai/shopmate/pkg/utils/logging"
)

const knownMemoryLimit = 20

// ExtractionUseCase distills durable facts about a user from a conversation
type ExtractionUseCase struct {
	repo   interfaces.Repository
	runner interfaces.AgentRunner
	memory *MemoryUseCase
	cfg    config.ExtractionConfig
}

func NewExtractionUseCase(repo interfaces.Repository, runner interfaces.AgentRunner, memory *MemoryUseCase, cfg config.ExtractionConfig) *ExtractionUseCase {
	return &ExtractionUseCase{repo: repo, runner: runner, memory: memory, cfg: cfg}
}

type extractionPromptData struct {
	MaxFacts int
	Known    string
}

// Extract runs one bounded extraction pass over the full conversation and
// returns the number of new memories written
func (uc *ExtractionUseCase) Extract(ctx context.Context, userID string, conversationID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.Timeout)
	defer cancel()

	messages, err := uc.repo.Message().List(ctx, conversationID)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to load conversation", goerr.V(model.ConversationIDKey, conversationID))
	}
	if len(messages) == 0 {
		return 0, nil
	}

	known, err := uc.memory.List(ctx, userID)
	if err != nil {
		logging.From(ctx).Warn("cannot load known memories", "error", err.Error())
	}

	systemPrompt, err := renderPrompt(extractionPrompt, extractionPromptData{
		MaxFacts: uc.cfg.MaxFacts,
		Known:    bulletList(truncate(known, knownMemoryLimit)),
	})
	if err != nil {
		return 0, err
	}

	facts := core.NewFactTool(uc.memory, userID, conversationID, uc.cfg.MaxFacts)
	_, err = uc.runner.Run(ctx, &model.AgentRequest{
		Name:         "extraction",
		SystemPrompt: systemPrompt,
		Input:        transcript(messages),
		Tools:        []gollem.Tool{facts},
	})
	if err != nil {
		return facts.Created(), goerr.Wrap(err, "extraction agent failed",
			goerr.V(model.ConversationIDKey, conversationID),
			goerr.V(model.UserIDKey, userID))
	}

	logging.From(ctx).Info("memory extraction finished",
		"conversation_id", conversationID,
		"created", facts.Created())
	return facts.Created(), nil
}

func transcript(messages []*model.Message) string {
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "[%s] %s\n", m.Role, m.Content)
	}
	return b.String()
}

func bulletList(memories []*model.Memory) string {
	lines := make([]string, 0, len(memories))
	for _, m := range memories {
		lines = append(lines, "- "+m.Content)
	}
	return strings.Join(lines, "\n")
}
