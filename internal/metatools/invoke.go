package metatools

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpman/mcpman/internal/normalize"
	"github.com/mcpman/mcpman/internal/schema"
	"github.com/mcpman/mcpman/internal/upstream"
)

// CallSpec names one tool call within an invoke batch.
type CallSpec struct {
	Server     string         `json:"server"`
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// InvokeInput is the invoke meta-tool's input: a batch of calls, run either
// sequentially (default, halting on first failure) or in parallel (every
// call runs regardless of the others' outcome).
type InvokeInput struct {
	Calls    []CallSpec `json:"calls"`
	Parallel bool       `json:"parallel,omitempty"`
}

// Invoke implements the invoke meta-tool.
func (h *Handlers) Invoke(ctx context.Context, req *mcp.CallToolRequest, in InvokeInput) (*mcp.CallToolResult, any, error) {
	toolsByServer, err := h.Fleet.GetAllTools(ctx)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	var lines []string
	var lastValue any
	if in.Parallel {
		lines, lastValue = h.invokeParallel(ctx, toolsByServer, in.Calls)
	} else {
		lines, lastValue = h.invokeSequential(ctx, toolsByServer, in.Calls)
	}

	return &mcp.CallToolResult{Content: textContents(lines)}, lastValue, nil
}

func (h *Handlers) invokeSequential(ctx context.Context, toolsByServer map[string][]upstream.ToolDescriptor, calls []CallSpec) ([]string, any) {
	var lines []string
	var last any
	for _, c := range calls {
		line, value, ok := h.invokeOne(ctx, toolsByServer, c)
		lines = append(lines, line)
		last = value
		if !ok {
			break
		}
	}
	return lines, last
}

// invokeParallel runs every call concurrently and preserves the input
// order of the reported lines, while $results only grows for the calls
// that actually succeeded (in the order they complete).
func (h *Handlers) invokeParallel(ctx context.Context, toolsByServer map[string][]upstream.ToolDescriptor, calls []CallSpec) ([]string, any) {
	lines := make([]string, len(calls))
	values := make([]any, len(calls))

	var wg sync.WaitGroup
	for i, c := range calls {
		wg.Add(1)
		go func(i int, c CallSpec) {
			defer wg.Done()
			line, value, _ := h.invokeOne(ctx, toolsByServer, c)
			lines[i] = line
			values[i] = value
		}(i, c)
	}
	wg.Wait()

	var last any
	if len(values) > 0 {
		last = values[len(values)-1]
	}
	return lines, last
}

// invokeOne resolves, validates, and calls a single tool, appending its
// result to $results on success. The returned bool is false on any failure
// (server/tool not found, validation, or the upstream call itself), which
// is how invokeSequential knows to halt.
func (h *Handlers) invokeOne(ctx context.Context, toolsByServer map[string][]upstream.ToolDescriptor, c CallSpec) (string, any, bool) {
	tools, ok := toolsByServer[c.Server]
	if !ok {
		return fmt.Sprintf("Server '%s' not found", c.Server), nil, false
	}

	stored := make(map[string]bool, len(tools))
	byName := make(map[string]upstream.ToolDescriptor, len(tools))
	for _, t := range tools {
		stored[t.Name] = true
		byName[t.Name] = t
	}
	resolved, ok := normalize.Resolve(c.Tool, stored)
	if !ok {
		return fmt.Sprintf("Tool '%s' not found on server '%s'", c.Tool, c.Server), nil, false
	}
	descriptor := byName[resolved]

	node := schema.Compile(descriptor.InputSchema)
	validator := schema.NewValidator(node)
	if _, verr := validator.Validate(c.Parameters); verr != nil {
		return "ValidationError: " + verr.Error(), nil, false
	}

	result, err := h.Fleet.CallTool(ctx, c.Server, resolved, c.Parameters)
	if err != nil {
		return err.Error(), nil, false
	}

	value := unwrapSingleText(result)
	idx, err := h.Runtime.AppendResult(value)
	if err != nil {
		return err.Error(), nil, false
	}

	return formatResultLine(idx, "invoke", value), value, true
}

// unwrapSingleText returns the raw text of a single text-content result,
// without JSON-parsing it; any other shape (multiple parts, non-text parts,
// none at all) is returned as the full content array instead.
func unwrapSingleText(r *upstream.ToolResult) any {
	if len(r.Content) == 1 && r.Content[0].Type == "text" {
		return r.Content[0].Text
	}
	parts := make([]map[string]any, len(r.Content))
	for i, p := range r.Content {
		parts[i] = map[string]any{"type": p.Type, "text": p.Text}
		if p.MIMEType != "" {
			parts[i]["mimeType"] = p.MIMEType
		}
		if p.URI != "" {
			parts[i]["uri"] = p.URI
		}
	}
	return parts
}

// textContents renders one *mcp.TextContent per call record, so the result's
// content array has one entry per invoked call rather than one joined blob.
func textContents(lines []string) []mcp.Content {
	out := make([]mcp.Content, len(lines))
	for i, l := range lines {
		out[i] = &mcp.TextContent{Text: l}
	}
	return out
}
