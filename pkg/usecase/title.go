package usecase

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
)

const maxSynthesizedTitleRunes = 60

// TitleUseCase replaces the provisional conversation title with a generated one
type TitleUseCase struct {
	repo   interfaces.Repository
	runner interfaces.AgentRunner
}

func NewTitleUseCase(repo interfaces.Repository, runner interfaces.AgentRunner) *TitleUseCase {
	return &TitleUseCase{repo: repo, runner: runner}
}

// Synthesize generates a title from the first message. On failure the derived
// title is kept and the error is returned for logging.
func (uc *TitleUseCase) Synthesize(ctx context.Context, conversationID int64, firstMessage string) (string, error) {
	res, err := uc.runner.Run(ctx, &model.AgentRequest{
		Name:         "title",
		SystemPrompt: titlePrompt,
		Input:        firstMessage,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate title", goerr.V(model.ConversationIDKey, conversationID))
	}

	title := cleanTitle(res.Text)
	if title == "" {
		return "", goerr.New("generated title is empty", goerr.V(model.ConversationIDKey, conversationID))
	}

	if err := uc.repo.Conversation().UpdateTitle(ctx, conversationID, title); err != nil {
		return "", goerr.Wrap(err, "failed to save title", goerr.V(model.ConversationIDKey, conversationID))
	}
	return title, nil
}

func cleanTitle(text string) string {
	line := strings.TrimSpace(text)
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	line = strings.Trim(line, " \t\"'`*#.")
	if utf8.RuneCountInString(line) > maxSynthesizedTitleRunes {
		line = string([]rune(line)[:maxSynthesizedTitleRunes])
	}
	return strings.TrimSpace(line)
}
