package metatools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListServersInput is the list_servers meta-tool's input (empty; it always
// reports every configured server).
type ListServersInput struct{}

type serverSummary struct {
	Connected bool     `json:"connected"`
	ToolCount int      `json:"toolCount"`
	Tools     []string `json:"tools"`
}

// ListServers implements the list_servers meta-tool.
func (h *Handlers) ListServers(ctx context.Context, req *mcp.CallToolRequest, in ListServersInput) (*mcp.CallToolResult, any, error) {
	toolsByServer, err := h.Fleet.GetAllTools(ctx)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	connected := make(map[string]bool)
	for _, name := range h.Fleet.GetConnectedServers() {
		connected[name] = true
	}

	out := make(map[string]serverSummary)
	for _, name := range h.Fleet.GetConfiguredServers() {
		tools := toolsByServer[name]
		names := make([]string, len(tools))
		for i, t := range tools {
			names[i] = t.Name
		}
		out[name] = serverSummary{
			Connected: connected[name],
			ToolCount: len(tools),
			Tools:     names,
		}
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	return textResult(string(b)), out, nil
}
