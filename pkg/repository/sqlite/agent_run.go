package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
)

type agentRunRepository struct {
	db *sql.DB
}

func (r *agentRunRepository) Create(ctx context.Context, run *model.AgentRun) (*model.AgentRun, error) {
	tasks := run.Tasks
	if tasks == nil {
		tasks = []*model.Task{}
	}
	raw, err := json.Marshal(tasks)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal tasks", goerr.V(model.ConversationIDKey, run.ConversationID))
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO agent_runs(conv_id, status, tasks_json, created_at) VALUES(?, ?, ?, ?)`,
		run.ConversationID, string(run.Status), string(raw), now.UnixNano())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert agent run", goerr.V(model.ConversationIDKey, run.ConversationID))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get agent run ID")
	}

	created := *run
	created.ID = id
	created.CreatedAt = now
	return &created, nil
}

func (r *agentRunRepository) ListByConversation(ctx context.Context, conversationID int64) ([]*model.AgentRun, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conv_id, status, tasks_json, created_at FROM agent_runs WHERE conv_id = ? ORDER BY id ASC`, conversationID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list agent runs", goerr.V(model.ConversationIDKey, conversationID))
	}
	defer rows.Close()

	result := make([]*model.AgentRun, 0)
	for rows.Next() {
		var (
			run       model.AgentRun
			status    string
			tasksJSON string
			createdAt int64
		)
		if err := rows.Scan(&run.ID, &run.ConversationID, &status, &tasksJSON, &createdAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan agent run")
		}
		if err := json.Unmarshal([]byte(tasksJSON), &run.Tasks); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal tasks", goerr.V("agent_run_id", run.ID))
		}
		run.Status = types.TurnStatus(status)
		run.CreatedAt = time.Unix(0, createdAt).UTC()
		result = append(result, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate agent runs")
	}
	return result, nil
}
