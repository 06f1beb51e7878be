package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
	"google.golang.org/api/iterator"
)

// agentRunDoc keeps the task list as an opaque JSON string; nested task
// arguments are arbitrary and not queried.
type agentRunDoc struct {
	ID             int64     `firestore:"ID"`
	ConversationID int64     `firestore:"ConversationID"`
	Status         string    `firestore:"Status"`
	TasksJSON      string    `firestore:"TasksJSON"`
	CreatedAt      time.Time `firestore:"CreatedAt"`
}

type agentRunRepository struct {
	client *firestore.Client
	cols   *collections
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

	id, err := nextID(ctx, r.client, r.cols, "agent_run_counter")
	if err != nil {
		return nil, err
	}

	created := *run
	created.ID = id
	created.CreatedAt = time.Now().UTC()

	if _, err := r.client.Collection(r.cols.agentRuns()).Doc(fmt.Sprintf("%d", id)).Set(ctx, agentRunDoc{
		ID:             id,
		ConversationID: run.ConversationID,
		Status:         string(run.Status),
		TasksJSON:      string(raw),
		CreatedAt:      created.CreatedAt,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to create agent run", goerr.V(model.ConversationIDKey, run.ConversationID))
	}
	return &created, nil
}

func (r *agentRunRepository) ListByConversation(ctx context.Context, conversationID int64) ([]*model.AgentRun, error) {
	iter := r.client.Collection(r.cols.agentRuns()).
		Where("ConversationID", "==", conversationID).
		OrderBy("ID", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	result := make([]*model.AgentRun, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate agent runs", goerr.V(model.ConversationIDKey, conversationID))
		}

		var d agentRunDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode agent run")
		}
		run := &model.AgentRun{
			ID:             d.ID,
			ConversationID: d.ConversationID,
			Status:         types.TurnStatus(d.Status),
			CreatedAt:      d.CreatedAt,
		}
		if err := json.Unmarshal([]byte(d.TasksJSON), &run.Tasks); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal tasks", goerr.V("agent_run_id", d.ID))
		}
		result = append(result, run)
	}
	return result, nil
}
