package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"

	_ "modernc.org/sqlite"
)

// SQLite is a repository backed by a single SQLite database file
type SQLite struct {
	db             *sql.DB
	conversation   *conversationRepository
	message        *messageRepository
	agentRun       *agentRunRepository
	memory         *memoryRepository
	embeddingCache *embeddingCacheRepository
}

var _ interfaces.Repository = &SQLite{}

// New opens (creating if needed) the database at path and applies migrations.
// Use ":memory:" for a throwaway database.
func New(ctx context.Context, path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, goerr.Wrap(err, "failed to create database directory", goerr.V("path", path))
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite", goerr.V("path", path))
	}
	// SQLite serializes writers; a single connection also keeps ":memory:" on one database
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, goerr.Wrap(err, "failed to set pragma", goerr.V("pragma", pragma))
		}
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{
		db:             db,
		conversation:   &conversationRepository{db: db},
		message:        &messageRepository{db: db},
		agentRun:       &agentRunRepository{db: db},
		memory:         &memoryRepository{db: db},
		embeddingCache: &embeddingCacheRepository{db: db},
	}, nil
}

func (s *SQLite) Conversation() interfaces.ConversationRepository {
	return s.conversation
}

func (s *SQLite) Message() interfaces.MessageRepository {
	return s.message
}

func (s *SQLite) AgentRun() interfaces.AgentRunRepository {
	return s.agentRun
}

func (s *SQLite) Memory() interfaces.MemoryRepository {
	return s.memory
}

func (s *SQLite) EmbeddingCache() interfaces.EmbeddingCacheRepository {
	return s.embeddingCache
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
