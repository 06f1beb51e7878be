package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
)

type agentRunRepository struct {
	mu     sync.RWMutex
	nextID int64
	// snapshots are stored serialized so later mutation of tasks by the
	// caller does not leak into the stored record
	runs map[int64][][]byte
}

func newAgentRunRepository() *agentRunRepository {
	return &agentRunRepository{
		nextID: 1,
		runs:   make(map[int64][][]byte),
	}
}

func (r *agentRunRepository) Create(ctx context.Context, run *model.AgentRun) (*model.AgentRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := *run
	created.ID = r.nextID
	created.CreatedAt = time.Now().UTC()

	raw, err := json.Marshal(&created)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal agent run", goerr.V(model.ConversationIDKey, run.ConversationID))
	}
	r.nextID++
	r.runs[created.ConversationID] = append(r.runs[created.ConversationID], raw)

	return &created, nil
}

func (r *agentRunRepository) ListByConversation(ctx context.Context, conversationID int64) ([]*model.AgentRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.runs[conversationID]
	result := make([]*model.AgentRun, 0, len(stored))
	for _, raw := range stored {
		var run model.AgentRun
		if err := json.Unmarshal(raw, &run); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal agent run", goerr.V(model.ConversationIDKey, conversationID))
		}
		result = append(result, &run)
	}
	return result, nil
}
