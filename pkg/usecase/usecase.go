package usecase

import (
	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"
	"github.com/shopmate-ai/shopmate/pkg/domain/model/config"
)

type UseCases struct {
	Memory       *MemoryUseCase
	Threads      *ThreadTracker
	Planner      *Planner
	Extraction   *ExtractionUseCase
	Title        *TitleUseCase
	Turn         *TurnUseCase
	Conversation *ConversationUseCase

	embedder interfaces.Embedder
	logSink  interfaces.LogSink
}

type Option func(*UseCases)

// WithEmbedder enables semantic memory search. Without it memories are
// compared by word overlap.
func WithEmbedder(embedder interfaces.Embedder) Option {
	return func(uc *UseCases) {
		uc.embedder = embedder
	}
}

func WithTurnLogSink(sink interfaces.LogSink) Option {
	return func(uc *UseCases) {
		uc.logSink = sink
	}
}

func New(repo interfaces.Repository, runner interfaces.AgentRunner, cfg *config.AppConfig, opts ...Option) *UseCases {
	if cfg == nil {
		cfg = config.DefaultAppConfig()
	}

	uc := &UseCases{}
	for _, opt := range opts {
		opt(uc)
	}

	uc.Memory = NewMemoryUseCase(repo, uc.embedder, cfg.Memory)
	uc.Threads = NewThreadTracker(cfg.Thread.LogSize)
	uc.Planner = NewPlanner(runner, cfg.Planner.HistoryWindow)
	uc.Extraction = NewExtractionUseCase(repo, runner, uc.Memory, cfg.Extraction)
	uc.Title = NewTitleUseCase(repo, runner)
	uc.Conversation = NewConversationUseCase(repo)
	uc.Turn = NewTurnUseCase(repo, runner, uc.Planner, uc.Memory, uc.Threads, uc.Extraction, uc.Title,
		WithLogSink(uc.logSink))

	return uc
}
