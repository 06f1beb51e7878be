package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"
)

type Firestore struct {
	client         *firestore.Client
	cols           *collections
	conversation   *conversationRepository
	message        *messageRepository
	agentRun       *agentRunRepository
	memory         *memoryRepository
	embeddingCache *embeddingCacheRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prefixes every top-level collection name. Used to
// isolate test runs sharing a database.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.cols.prefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var (
		client *firestore.Client
		err    error
	)
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	cols := &collections{}
	f := &Firestore{
		client:         client,
		cols:           cols,
		conversation:   &conversationRepository{client: client, cols: cols},
		message:        &messageRepository{client: client, cols: cols},
		agentRun:       &agentRunRepository{client: client, cols: cols},
		memory:         &memoryRepository{client: client, cols: cols},
		embeddingCache: &embeddingCacheRepository{client: client, cols: cols},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Conversation() interfaces.ConversationRepository {
	return f.conversation
}

func (f *Firestore) Message() interfaces.MessageRepository {
	return f.message
}

func (f *Firestore) AgentRun() interfaces.AgentRunRepository {
	return f.agentRun
}

func (f *Firestore) Memory() interfaces.MemoryRepository {
	return f.memory
}

func (f *Firestore) EmbeddingCache() interfaces.EmbeddingCacheRepository {
	return f.embeddingCache
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// collections resolves collection names with an optional prefix
type collections struct {
	prefix string
}

func (c *collections) name(base string) string {
	if c.prefix != "" {
		return c.prefix + "_" + base
	}
	return base
}

func (c *collections) conversations() string  { return c.name("conversations") }
func (c *collections) agentRuns() string      { return c.name("agent_runs") }
func (c *collections) users() string          { return c.name("users") }
func (c *collections) embeddingCache() string { return c.name("embedding_cache") }
func (c *collections) counters() string       { return c.name("counters") }
