package metatools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpman/mcpman/internal/normalize"
	"github.com/mcpman/mcpman/internal/upstream"
)

// HelpInput is the help meta-tool's input: an optional server/tool scope.
// An empty Server returns the full type surface; a Server with no Tool
// scopes to that server; both scope to one tool's declaration.
type HelpInput struct {
	Server string `json:"server,omitempty"`
	Tool   string `json:"tool,omitempty"`
}

// Help implements the help meta-tool.
func (h *Handlers) Help(ctx context.Context, req *mcp.CallToolRequest, in HelpInput) (*mcp.CallToolResult, any, error) {
	toolsByServer, err := h.Fleet.GetAllTools(ctx)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	if in.Server == "" {
		text := fence(h.Cache.GetTypeDefinitions(toolsByServer, nil))
		return textResult(text), text, nil
	}

	tools, ok := toolsByServer[in.Server]
	if !ok {
		return textResult(unknownServerMessage(in.Server, toolsByServer)), nil, nil
	}

	if in.Tool == "" {
		text := fence(h.Cache.GetTypeDefinitions(toolsByServer, []string{in.Server}))
		return textResult(text), text, nil
	}

	stored := make(map[string]bool, len(tools))
	for _, t := range tools {
		stored[t.Name] = true
	}
	resolved, ok := normalize.Resolve(in.Tool, stored)
	if !ok {
		return textResult(unknownToolMessage(in.Server, in.Tool, tools)), nil, nil
	}

	scoped := map[string][]upstream.ToolDescriptor{in.Server: {findByName(tools, resolved)}}
	text := fence(h.Cache.GetTypeDefinitions(scoped, []string{in.Server}))
	return textResult(text), text, nil
}

func findByName(tools []upstream.ToolDescriptor, name string) upstream.ToolDescriptor {
	for _, t := range tools {
		if t.Name == name {
			return t
		}
	}
	return upstream.ToolDescriptor{}
}

func fence(text string) string {
	return "```typescript\n" + text + "```"
}

func unknownServerMessage(server string, toolsByServer map[string][]upstream.ToolDescriptor) string {
	names := make([]string, 0, len(toolsByServer))
	for name := range toolsByServer {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("Server '%s' not found. Connected servers: %s", server, strings.Join(names, ", "))
}

func unknownToolMessage(server, tool string, tools []upstream.ToolDescriptor) string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	sort.Strings(names)
	return fmt.Sprintf("Tool '%s' not found on server '%s'. Available tools: %s", tool, server, strings.Join(names, ", "))
}
