package metatools

import (
	"context"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpman/mcpman/internal/upstream"
)

func invokeFixture() map[string][]upstream.ToolDescriptor {
	return map[string][]upstream.ToolDescriptor{
		"filesystem": {{
			ServerName: "filesystem",
			Name:       "list_directory",
			InputSchema: &jsonschema.Schema{
				Type:     "object",
				Required: []string{"path"},
				Properties: map[string]*jsonschema.Schema{
					"path": {Type: "string"},
				},
			},
		}},
	}
}

func TestInvokeOne_UnknownServer(t *testing.T) {
	h := newTestHandlers()
	line, _, ok := h.invokeOne(context.Background(), invokeFixture(), CallSpec{Server: "other", Tool: "x"})
	assert.False(t, ok)
	assert.Equal(t, "Server 'other' not found", line)
}

func TestInvokeOne_UnknownTool(t *testing.T) {
	h := newTestHandlers()
	line, _, ok := h.invokeOne(context.Background(), invokeFixture(), CallSpec{Server: "filesystem", Tool: "missing"})
	assert.False(t, ok)
	assert.Equal(t, "Tool 'missing' not found on server 'filesystem'", line)
}

func TestInvokeOne_ResolvesCamelCaseToolName(t *testing.T) {
	h := newTestHandlers()
	// camelCase resolves, but the server isn't connected, so the call
	// itself still fails once past name resolution and validation.
	line, _, ok := h.invokeOne(context.Background(), invokeFixture(), CallSpec{
		Server:     "filesystem",
		Tool:       "listDirectory",
		Parameters: map[string]any{"path": "."},
	})
	assert.False(t, ok)
	assert.Contains(t, line, "filesystem")
}

func TestInvokeOne_ValidationErrorOnMissingRequired(t *testing.T) {
	h := newTestHandlers()
	line, _, ok := h.invokeOne(context.Background(), invokeFixture(), CallSpec{Server: "filesystem", Tool: "list_directory"})
	assert.False(t, ok)
	assert.Contains(t, line, "ValidationError")
}

func TestInvokeSequential_HaltsOnFirstFailure(t *testing.T) {
	h := newTestHandlers()
	calls := []CallSpec{
		{Server: "other", Tool: "x"},
		{Server: "filesystem", Tool: "list_directory", Parameters: map[string]any{"path": "."}},
	}
	lines, _ := h.invokeSequential(context.Background(), invokeFixture(), calls)
	assert.Len(t, lines, 1)
}

func TestInvokeParallel_RunsEveryCallRegardless(t *testing.T) {
	h := newTestHandlers()
	calls := []CallSpec{
		{Server: "other", Tool: "x"},
		{Server: "another", Tool: "y"},
	}
	lines, _ := h.invokeParallel(context.Background(), invokeFixture(), calls)
	assert.Len(t, lines, 2)
	assert.Equal(t, "Server 'other' not found", lines[0])
	assert.Equal(t, "Server 'another' not found", lines[1])
}

func TestInvoke_ContentHasOneEntryPerCall(t *testing.T) {
	h := newTestHandlers()
	in := InvokeInput{Parallel: true, Calls: []CallSpec{
		{Server: "other", Tool: "x"},
		{Server: "nope", Tool: "y"},
	}}
	res, _, err := h.Invoke(context.Background(), nil, in)
	assert.NoError(t, err)
	require.Len(t, res.Content, 2)
	assert.Equal(t, "Server 'other' not found", textOf(res))
	second, ok := res.Content[1].(*mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "Server 'nope' not found", second.Text)
}
