package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/dgraph-io/ristretto"
	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"
	"github.com/shopmate-ai/shopmate/pkg/utils/logging"
)

// Cached wraps an Embedder with an in-process ristretto cache (L1) and the
// repository embedding cache (L2). Both are keyed by a hash of the namespace
// and the text, so switching models never serves stale vectors.
type Cached struct {
	inner     interfaces.Embedder
	namespace string
	l1        *ristretto.Cache
	l2        interfaces.EmbeddingCacheRepository
}

var _ interfaces.Embedder = &Cached{}

// NewCached creates a cache holding at most maxEntries vectors in process.
// l2 may be nil.
func NewCached(inner interfaces.Embedder, namespace string, maxEntries int64, l2 interfaces.EmbeddingCacheRepository) (*Cached, error) {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	l1, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create embedding cache")
	}

	return &Cached{
		inner:     inner,
		namespace: namespace,
		l1:        l1,
		l2:        l2,
	}, nil
}

// Hash returns the cache key of text
func (c *Cached) Hash(text string) string {
	sum := sha256.Sum256([]byte(c.namespace + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.Hash(text)

	if v, ok := c.l1.Get(key); ok {
		if vec, ok := v.([]float32); ok {
			return copyVector(vec), nil
		}
	}

	if c.l2 != nil {
		vec, err := c.l2.Get(ctx, key)
		if err != nil {
			logging.From(ctx).Warn("failed to read embedding cache", "error", err.Error())
		} else if len(vec) > 0 {
			c.l1.Set(key, vec, 1)
			return copyVector(vec), nil
		}
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.l1.Set(key, copyVector(vec), 1)
	if c.l2 != nil {
		if err := c.l2.Put(ctx, key, vec); err != nil {
			logging.From(ctx).Warn("failed to write embedding cache", "error", err.Error())
		}
	}
	return vec, nil
}

// Wait blocks until pending L1 writes are visible
func (c *Cached) Wait() {
	c.l1.Wait()
}

func (c *Cached) Close() {
	c.l1.Close()
}

func copyVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
