package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Conversation() ConversationRepository
	Message() MessageRepository
	AgentRun() AgentRunRepository
	Memory() MemoryRepository
	EmbeddingCache() EmbeddingCacheRepository

	Close() error
}
