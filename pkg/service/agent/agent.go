// Package agent adapts LLM backends to the AgentRunner used by the turn
// controller. Two backends exist: a gollem-based runner that works with any
// gollem.LLMClient and an Anthropic Messages API runner.
package agent

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

const defaultMaxIterations = 16

// ErrIterationLimit is returned when the agent exceeds its tool loop budget
var ErrIterationLimit = goerr.New("agent exceeded iteration limit")

// Option configures both runner implementations
type Option func(*options)

type options struct {
	remote        *RemoteTools
	maxIterations int
}

func WithRemoteTools(rt *RemoteTools) Option {
	return func(o *options) { o.remote = rt }
}

func WithMaxIterations(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

func newOptions(opts []Option) options {
	o := options{maxIterations: defaultMaxIterations}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) remoteToolSets(use bool) []gollem.ToolSet {
	if !use {
		return nil
	}
	return o.remote.ToolSets()
}

// stripFence removes a surrounding markdown code fence if present
func stripFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		t = t[nl+1:]
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
