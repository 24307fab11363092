package metatools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpman/mcpman/internal/config"
	"github.com/mcpman/mcpman/internal/upstream"
)

// InstallInput is the install meta-tool's input: a new server's config,
// shaped as the tagged union config.ServerConfig models.
type InstallInput struct {
	Name      string            `json:"name"`
	Transport string            `json:"transport"`
	Command   string            `json:"command,omitempty"`
	Args      []string          `json:"args,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
	URL       string            `json:"url,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Disabled  bool              `json:"disabled,omitempty"`
	TimeoutMS int               `json:"timeoutMs,omitempty"`
}

// Install implements the install meta-tool: validate the name and config,
// reject collisions, persist, and add the server to the live fleet.
func (h *Handlers) Install(ctx context.Context, req *mcp.CallToolRequest, in InstallInput) (*mcp.CallToolResult, any, error) {
	if !config.ValidName(in.Name) {
		return errorResult(fmt.Sprintf("invalid server name %q: must match [A-Za-z0-9_-]+", in.Name)), nil, nil
	}
	if h.Settings.Exists(in.Name) {
		return errorResult(fmt.Sprintf("server %q already exists", in.Name)), nil, nil
	}

	cfg := config.ServerConfig{
		Transport: config.Transport(in.Transport),
		Command:   in.Command,
		Args:      in.Args,
		Env:       in.Env,
		URL:       in.URL,
		Headers:   in.Headers,
		Disabled:  in.Disabled,
		TimeoutMS: in.TimeoutMS,
	}
	if err := cfg.Validate(); err != nil {
		return errorResult(err.Error()), nil, nil
	}

	if err := h.Settings.Add(in.Name, cfg); err != nil {
		return errorResult(err.Error()), nil, nil
	}

	connected := h.Fleet.AddServer(ctx, in.Name, cfg, upstream.BuildOAuthProvider(cfg, h.Logger))
	msg := fmt.Sprintf("installed %q (connected=%v)", in.Name, connected)
	return textResult(msg), map[string]any{"name": in.Name, "connected": connected}, nil
}
