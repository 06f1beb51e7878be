package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrMemoryNotFound       = errors.New("memory not found")
	ErrConversationNotFound = errors.New("conversation not found")

	// Access control errors
	ErrAccessDenied = errors.New("conversation belongs to another user")

	// Input errors
	ErrEmptyMessage = errors.New("message is empty")
	ErrEmptyContent = errors.New("memory content is empty")

	// Capacity errors
	ErrMemoryPruned = errors.New("memory was pruned immediately after insert")
)
