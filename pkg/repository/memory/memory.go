package memory

import (
	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"
)

// Memory is an in-process repository for development and tests
type Memory struct {
	conversation   *conversationRepository
	message        *messageRepository
	agentRun       *agentRunRepository
	memory         *memoryRepository
	embeddingCache *embeddingCacheRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		conversation:   newConversationRepository(),
		message:        newMessageRepository(),
		agentRun:       newAgentRunRepository(),
		memory:         newMemoryRepository(),
		embeddingCache: newEmbeddingCacheRepository(),
	}
}

func (m *Memory) Conversation() interfaces.ConversationRepository {
	return m.conversation
}

func (m *Memory) Message() interfaces.MessageRepository {
	return m.message
}

func (m *Memory) AgentRun() interfaces.AgentRunRepository {
	return m.agentRun
}

func (m *Memory) Memory() interfaces.MemoryRepository {
	return m.memory
}

func (m *Memory) EmbeddingCache() interfaces.EmbeddingCacheRepository {
	return m.embeddingCache
}

func (m *Memory) Close() error {
	return nil
}
