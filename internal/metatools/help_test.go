package metatools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func textOf(res *mcp.CallToolResult) string {
	if len(res.Content) == 0 {
		return ""
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		return ""
	}
	return tc.Text
}

func TestHelp_NoServerReturnsFullSurface(t *testing.T) {
	h := newTestHandlers()
	res, _, err := h.Help(context.Background(), nil, HelpInput{})
	require.NoError(t, err)
	assert.Contains(t, textOf(res), "```typescript")
}

func TestHelp_UnknownServerListsConnected(t *testing.T) {
	h := newTestHandlers()
	res, value, err := h.Help(context.Background(), nil, HelpInput{Server: "ghost"})
	require.NoError(t, err)
	assert.Nil(t, value)
	assert.Contains(t, textOf(res), "Server 'ghost' not found")
}
