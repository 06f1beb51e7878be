package agent

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/mcp"
	"github.com/shopmate-ai/shopmate/pkg/utils/logging"
)

// RemoteServer is an MCP tool server reached over streamable HTTP
type RemoteServer struct {
	Name string
	URL  string
}

// RemoteTools holds connected MCP clients wrapped by the allow-list
type RemoteTools struct {
	clients  []*mcp.Client
	toolSets []gollem.ToolSet
	allowed  []string
}

// ConnectRemoteTools connects to every server. A server that cannot be reached
// fails startup so a misconfigured tool surface is noticed immediately.
func ConnectRemoteTools(ctx context.Context, servers []RemoteServer, allowed []string) (*RemoteTools, error) {
	rt := &RemoteTools{allowed: allowed}

	for _, srv := range servers {
		client, err := mcp.NewStreamableHTTP(ctx, srv.URL)
		if err != nil {
			rt.Close()
			return nil, goerr.Wrap(err, "failed to connect MCP server", goerr.V("name", srv.Name), goerr.V("url", srv.URL))
		}
		rt.clients = append(rt.clients, client)
		rt.toolSets = append(rt.toolSets, NewAllowList(client, allowed))

		logging.From(ctx).Info("connected MCP server", "name", srv.Name, "url", srv.URL)
	}

	return rt, nil
}

// NewRemoteTools wraps already-built tool sets, used by tests and in-process servers
func NewRemoteTools(allowed []string, toolSets ...gollem.ToolSet) *RemoteTools {
	rt := &RemoteTools{allowed: allowed}
	for _, ts := range toolSets {
		rt.toolSets = append(rt.toolSets, NewAllowList(ts, allowed))
	}
	return rt
}

func (rt *RemoteTools) ToolSets() []gollem.ToolSet {
	if rt == nil {
		return nil
	}
	return rt.toolSets
}

func (rt *RemoteTools) Allowed() []string {
	if rt == nil {
		return nil
	}
	return rt.allowed
}

func (rt *RemoteTools) Close() {
	if rt == nil {
		return
	}
	for _, c := range rt.clients {
		c.Close()
	}
}
