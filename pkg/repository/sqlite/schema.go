package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
)

const currentSchemaVersion = 1

var migrations = map[int][]string{
	1: {
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, id DESC)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conv_id INTEGER NOT NULL REFERENCES conversations(id),
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv ON messages(conv_id, id)`,
		`CREATE TABLE IF NOT EXISTS agent_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conv_id INTEGER NOT NULL REFERENCES conversations(id),
			status TEXT NOT NULL,
			tasks_json TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_agent_runs_conv ON agent_runs(conv_id, id)`,
		`CREATE TABLE IF NOT EXISTS user_memories (
			user_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value_json TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_user_memories_recent ON user_memories(user_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS embedding_cache (
			hash TEXT PRIMARY KEY,
			vector_json TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
	},
}

// Migrate brings the schema of db up to the current version
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin migration")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return goerr.Wrap(err, "failed to create schema_meta")
	}

	version, err := readSchemaVersion(ctx, tx)
	if err != nil {
		return err
	}
	if version > currentSchemaVersion {
		return goerr.New("database schema is newer than this binary",
			goerr.V("version", version), goerr.V("supported", currentSchemaVersion))
	}

	for v := version + 1; v <= currentSchemaVersion; v++ {
		for _, stmt := range migrations[v] {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return goerr.Wrap(err, "failed to apply migration", goerr.V("version", v))
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_meta(key, value) VALUES('schema_version', ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, strconv.Itoa(v)); err != nil {
			return goerr.Wrap(err, "failed to write schema version", goerr.V("version", v))
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit migration")
	}
	return nil
}

// SchemaVersion returns the applied schema version
func (s *SQLite) SchemaVersion(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to begin read")
	}
	defer func() { _ = tx.Rollback() }()
	return readSchemaVersion(ctx, tx)
}

func readSchemaVersion(ctx context.Context, tx *sql.Tx) (int, error) {
	var text string
	err := tx.QueryRowContext(ctx, `SELECT value FROM schema_meta WHERE key = 'schema_version'`).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, goerr.Wrap(err, "failed to read schema version")
	}

	version, err := strconv.Atoi(text)
	if err != nil || version < 0 {
		return 0, goerr.New("invalid schema version", goerr.V("value", text))
	}
	return version, nil
}
