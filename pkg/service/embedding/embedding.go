// Package embedding provides text embedding providers and a two-level cache
// in front of them.
package embedding

import (
	"github.com/m-mizutani/goerr/v2"
)

// ErrEmptyEmbedding is returned when a provider answers without a vector
var ErrEmptyEmbedding = goerr.New("embedding provider returned empty result")

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
