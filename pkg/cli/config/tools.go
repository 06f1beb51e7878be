package config

import (
	"context"
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/service/agent"
	"github.com/urfave/cli/v3"
)

// Tools holds CLI flags for remote MCP tool servers and the allow-list
type Tools struct {
	servers []string
	allowed []string
}

func (t *Tools) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "mcp-server",
			Usage:       "Remote MCP tool server as name=url (repeatable)",
			Category:    "Tools",
			Sources:     cli.EnvVars("SHOPMATE_MCP_SERVERS"),
			Destination: &t.servers,
		},
		&cli.StringSliceFlag{
			Name:        "allowed-tool",
			Usage:       "Remote tool name agents may call (repeatable). All tools are allowed when empty",
			Category:    "Tools",
			Sources:     cli.EnvVars("SHOPMATE_ALLOWED_TOOLS"),
			Destination: &t.allowed,
		},
	}
}

// ParseServer parses a name=url spec
func ParseServer(spec string) (agent.RemoteServer, error) {
	name, rawURL, ok := strings.Cut(strings.TrimSpace(spec), "=")
	name = strings.TrimSpace(name)
	rawURL = strings.TrimSpace(rawURL)
	if !ok || name == "" || rawURL == "" {
		return agent.RemoteServer{}, goerr.Wrap(ErrInvalidServer, "cannot parse MCP server", goerr.V(ServerSpecKey, spec))
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return agent.RemoteServer{}, goerr.Wrap(ErrInvalidServer, "MCP server URL must be http(s)", goerr.V(ServerSpecKey, spec))
	}
	return agent.RemoteServer{Name: name, URL: rawURL}, nil
}

// Servers parses every configured server spec
func (t *Tools) Servers() ([]agent.RemoteServer, error) {
	servers := make([]agent.RemoteServer, 0, len(t.servers))
	seen := make(map[string]bool, len(t.servers))
	for _, spec := range t.servers {
		srv, err := ParseServer(spec)
		if err != nil {
			return nil, err
		}
		if seen[srv.Name] {
			return nil, goerr.Wrap(ErrInvalidServer, "duplicate MCP server name", goerr.V(ServerSpecKey, spec))
		}
		seen[srv.Name] = true
		servers = append(servers, srv)
	}
	return servers, nil
}

// Allowed returns the remote tool allow-list
func (t *Tools) Allowed() []string {
	out := make([]string, 0, len(t.allowed))
	for _, name := range t.allowed {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Configure connects every MCP server. The caller must Close the result.
func (t *Tools) Configure(ctx context.Context) (*agent.RemoteTools, error) {
	servers, err := t.Servers()
	if err != nil {
		return nil, err
	}
	if len(servers) == 0 {
		return agent.NewRemoteTools(t.Allowed()), nil
	}
	return agent.ConnectRemoteTools(ctx, servers, t.Allowed())
}
