package metaserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpman/mcpman/internal/metatools"
)

// registerTools advertises the six meta-tools, each wrapped to await the
// readiness gate before calling into handlers.
func registerTools(s *mcp.Server, handlers *metatools.Handlers, ready *readyGate) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        "eval",
		Description: "Evaluate a zero-or-one-argument JavaScript function expression in the persistent sandbox, with every connected server available as a typed proxy.",
	}, gate(ready, handlers.Eval))

	mcp.AddTool(s, &mcp.Tool{
		Name:        "invoke",
		Description: "Call one or more upstream tools directly by server and tool name, sequentially or in parallel.",
	}, gate(ready, handlers.Invoke))

	mcp.AddTool(s, &mcp.Tool{
		Name:        "code",
		Description: "Generate and execute a function expression from a natural-language description of what it should do.",
	}, gate(ready, handlers.Code))

	mcp.AddTool(s, &mcp.Tool{
		Name:        "help",
		Description: "Return the TypeScript-flavored type declarations for every connected server, or one server or tool.",
	}, gate(ready, handlers.Help))

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_servers",
		Description: "List every configured upstream server, whether it is connected, and the tools it exposes.",
	}, gate(ready, handlers.ListServers))

	mcp.AddTool(s, &mcp.Tool{
		Name:        "install",
		Description: "Register a new upstream server at runtime and connect it if enabled.",
	}, gate(ready, handlers.Install))
}

// gate wraps a meta-tool handler so it suspends on the readiness gate
// before running; a gate that resolves with an error (a fatal fleet
// connect failure path) surfaces that error to every call instead of
// letting handlers race an unconnected fleet.
func gate[T any](ready *readyGate, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input T) (*mcp.CallToolResult, any, error) {
		if err := ready.await(ctx); err != nil {
			return nil, nil, err
		}
		return handler(ctx, req, input)
	}
}
