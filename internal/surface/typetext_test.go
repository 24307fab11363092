package surface

import (
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpman/mcpman/internal/upstream"
)

func toolsFixture() map[string][]upstream.ToolDescriptor {
	return map[string][]upstream.ToolDescriptor{
		"filesystem": {{
			ServerName:  "filesystem",
			Name:        "list_directory",
			Description: "list a directory",
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

func TestGetTypeDefinitions_RendersInterfacesAndAmbientDecls(t *testing.T) {
	c := NewTypeTextCache()
	text := c.GetTypeDefinitions(toolsFixture(), nil)

	assert.Contains(t, text, "interface FilesystemListDirectoryInput { path: string }")
	assert.Contains(t, text, "interface FilesystemServer {")
	assert.Contains(t, text, "listDirectory(input: FilesystemListDirectoryInput): Promise<Output>;")
	assert.Contains(t, text, "declare const filesystem: FilesystemServer;")
	assert.Contains(t, text, "declare function listServers(): string[];")
	assert.Contains(t, text, "declare const $results: any[];")
}

func TestGetTypeDefinitions_IdempotentWhenSignatureUnchanged(t *testing.T) {
	c := NewTypeTextCache()
	first := c.GetTypeDefinitions(toolsFixture(), nil)
	second := c.GetTypeDefinitions(toolsFixture(), nil)
	assert.Equal(t, first, second)
}

func TestGetTypeDefinitions_InvalidatesOnSignatureChange(t *testing.T) {
	c := NewTypeTextCache()
	_ = c.GetTypeDefinitions(toolsFixture(), nil)

	changed := toolsFixture()
	changed["filesystem"][0].Description = "different"
	changed["other"] = []upstream.ToolDescriptor{{ServerName: "other", Name: "ping"}}

	text := c.GetTypeDefinitions(changed, nil)
	assert.Contains(t, text, "interface OtherServer {")
}

func TestGetTypeDefinitions_FilteredNeverCached(t *testing.T) {
	c := NewTypeTextCache()
	full := toolsFixture()
	full["other"] = []upstream.ToolDescriptor{{ServerName: "other", Name: "ping"}}

	filtered := c.GetTypeDefinitions(full, []string{"filesystem"})
	assert.Contains(t, filtered, "FilesystemServer")
	assert.NotContains(t, filtered, "OtherServer")

	unfiltered := c.GetTypeDefinitions(full, nil)
	assert.Contains(t, unfiltered, "OtherServer")
}

func TestGetToolDescriptions_ListsEachTool(t *testing.T) {
	c := NewTypeTextCache()
	text := c.GetToolDescriptions(toolsFixture())
	assert.Equal(t, "- filesystem.list_directory: list a directory\n", text)
}

func TestSignature_OrderIndependent(t *testing.T) {
	a := toolsFixture()
	b := map[string][]upstream.ToolDescriptor{"filesystem": append([]upstream.ToolDescriptor(nil), a["filesystem"]...)}
	require.Equal(t, Signature(a), Signature(b))
}
