package agent

import (
	"context"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
)

// ErrToolNotAllowed is returned when an agent calls a remote tool outside the allow-list
var ErrToolNotAllowed = goerr.New("tool is not in the allow-list")

// AllowList restricts a remote ToolSet to a fixed set of tool names.
// An empty allow-list permits every tool the server exposes.
type AllowList struct {
	inner   gollem.ToolSet
	allowed map[string]struct{}
}

var _ gollem.ToolSet = &AllowList{}

func NewAllowList(inner gollem.ToolSet, names []string) *AllowList {
	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowed[n] = struct{}{}
	}
	return &AllowList{inner: inner, allowed: allowed}
}

func (a *AllowList) permits(name string) bool {
	if len(a.allowed) == 0 {
		return true
	}
	_, ok := a.allowed[name]
	return ok
}

func (a *AllowList) Specs(ctx context.Context) ([]gollem.ToolSpec, error) {
	specs, err := a.inner.Specs(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list remote tools")
	}

	filtered := make([]gollem.ToolSpec, 0, len(specs))
	for _, s := range specs {
		if a.permits(s.Name) {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

func (a *AllowList) Run(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	if !a.permits(name) {
		return nil, goerr.Wrap(ErrToolNotAllowed, "remote tool call rejected", goerr.V(model.ToolNameKey, name))
	}
	return a.inner.Run(ctx, name, args)
}

// toolIndex maps tool names to the local tool or remote ToolSet serving them
type toolIndex struct {
	specs  []gollem.ToolSpec
	local  map[string]gollem.Tool
	remote map[string]gollem.ToolSet
}

func buildToolIndex(ctx context.Context, local []gollem.Tool, remote []gollem.ToolSet) (*toolIndex, error) {
	idx := &toolIndex{
		local:  make(map[string]gollem.Tool),
		remote: make(map[string]gollem.ToolSet),
	}

	for _, t := range local {
		spec := t.Spec()
		idx.local[spec.Name] = t
		idx.specs = append(idx.specs, spec)
	}
	for _, ts := range remote {
		specs, err := ts.Specs(ctx)
		if err != nil {
			return nil, err
		}
		for _, spec := range specs {
			if _, dup := idx.local[spec.Name]; dup {
				continue
			}
			if _, dup := idx.remote[spec.Name]; dup {
				continue
			}
			idx.remote[spec.Name] = ts
			idx.specs = append(idx.specs, spec)
		}
	}

	sort.Slice(idx.specs, func(i, j int) bool { return idx.specs[i].Name < idx.specs[j].Name })
	return idx, nil
}

func (idx *toolIndex) run(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	if t, ok := idx.local[name]; ok {
		if args == nil {
			args = map[string]any{}
		}
		return t.Run(ctx, args)
	}
	if ts, ok := idx.remote[name]; ok {
		return ts.Run(ctx, name, args)
	}
	return nil, goerr.New("unknown tool", goerr.V(model.ToolNameKey, name))
}
