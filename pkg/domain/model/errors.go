package model

import "github.com/m-mizutani/goerr/v2"

// Validation and lookup errors
var (
	ErrNotFound        = goerr.New("not found")
	ErrMissingRequired = goerr.New("required field is missing")
	ErrInvalidValue    = goerr.New("invalid value")
)

// Context keys for error values
const (
	UserIDKey         = "user_id"
	ConversationIDKey = "conversation_id"
	MemoryKeyKey      = "memory_key"
	TaskIndexKey      = "task_index"
	ToolNameKey       = "tool_name"
)
