package surface

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mcpman/mcpman/internal/normalize"
	"github.com/mcpman/mcpman/internal/schema"
	"github.com/mcpman/mcpman/internal/upstream"
)

// TypeTextCache memoizes the unfiltered output of GetTypeDefinitions and
// GetToolDescriptions keyed by the fleet's tool signature; server-filtered
// requests are always recomputed and never stored.
type TypeTextCache struct {
	mu        sync.Mutex
	signature string
	typeText  string
	hasType   bool
	descText  string
	hasDesc   bool
}

// NewTypeTextCache returns an empty cache.
func NewTypeTextCache() *TypeTextCache { return &TypeTextCache{} }

// Signature derives the cache key: server.tool:inputSchemaJSON over every
// upstream tool, sorted for determinism.
func Signature(toolsByServer map[string][]upstream.ToolDescriptor) string {
	type pair struct {
		server string
		tool   upstream.ToolDescriptor
	}
	var entries []pair
	for server, tools := range toolsByServer {
		for _, t := range tools {
			entries = append(entries, pair{server, t})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].server != entries[j].server {
			return entries[i].server < entries[j].server
		}
		return entries[i].tool.Name < entries[j].tool.Name
	})

	var b strings.Builder
	for _, e := range entries {
		schemaJSON, _ := json.Marshal(e.tool.InputSchema)
		fmt.Fprintf(&b, "%s.%s:%s", e.server, e.tool.Name, schemaJSON)
	}
	return b.String()
}

func (c *TypeTextCache) invalidateIfStale(sig string) {
	if c.signature != sig {
		c.signature = sig
		c.hasType = false
		c.hasDesc = false
	}
}

// GetTypeDefinitions returns the rendered TypeScript declaration text. The
// unfiltered call (servers == nil or empty) is memoized by signature;
// passing servers scopes the output and bypasses the cache.
func (c *TypeTextCache) GetTypeDefinitions(toolsByServer map[string][]upstream.ToolDescriptor, servers []string) string {
	if len(servers) > 0 {
		return renderTypeText(toolsByServer, servers)
	}

	sig := Signature(toolsByServer)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateIfStale(sig)
	if !c.hasType {
		c.typeText = renderTypeText(toolsByServer, nil)
		c.hasType = true
	}
	return c.typeText
}

// GetToolDescriptions returns the lightweight `- server.tool: description`
// listing, memoized the same way as GetTypeDefinitions.
func (c *TypeTextCache) GetToolDescriptions(toolsByServer map[string][]upstream.ToolDescriptor) string {
	sig := Signature(toolsByServer)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateIfStale(sig)
	if !c.hasDesc {
		c.descText = renderToolDescriptions(toolsByServer)
		c.hasDesc = true
	}
	return c.descText
}

func renderTypeText(toolsByServer map[string][]upstream.ToolDescriptor, filter []string) string {
	allow := toSet(filter)
	servers := sortedServers(toolsByServer, allow)

	var b strings.Builder
	b.WriteString("interface Output { content: unknown[]; isError?: boolean }\n\n")

	for _, server := range servers {
		tools := sortedTools(toolsByServer[server])

		for _, t := range tools {
			node := schema.Compile(t.InputSchema)
			name := inputInterfaceName(server, t.Name)
			if node.Kind == schema.KindObject {
				fmt.Fprintf(&b, "interface %s %s\n\n", name, node.TypeName())
			} else {
				fmt.Fprintf(&b, "type %s = %s;\n\n", name, node.TypeName())
			}
		}

		fmt.Fprintf(&b, "interface %s {\n", serverInterfaceName(server))
		for _, t := range tools {
			fmt.Fprintf(&b, "  %s(input: %s): Promise<Output>;\n", normalize.Camel(t.Name), inputInterfaceName(server, t.Name))
		}
		b.WriteString("}\n\n")

		fmt.Fprintf(&b, "declare const %s: %s;\n", server, serverInterfaceName(server))
		if camel := normalize.Camel(server); camel != server {
			fmt.Fprintf(&b, "declare const %s: %s;\n", camel, serverInterfaceName(server))
		}
		b.WriteString("\n")
	}

	b.WriteString("declare function listServers(): string[];\n")
	b.WriteString("declare function listTools(server?: string): string[] | Record<string, string[]>;\n")
	b.WriteString("declare function help(server: string, tool?: string): Promise<{ server: string; tool?: unknown; tools?: unknown[] }>;\n")
	b.WriteString("declare const $results: any[];\n")

	return b.String()
}

func renderToolDescriptions(toolsByServer map[string][]upstream.ToolDescriptor) string {
	servers := sortedServers(toolsByServer, nil)
	var b strings.Builder
	for _, server := range servers {
		for _, t := range sortedTools(toolsByServer[server]) {
			fmt.Fprintf(&b, "- %s.%s: %s\n", server, t.Name, t.Description)
		}
	}
	return b.String()
}

func inputInterfaceName(server, tool string) string {
	return normalize.Pascal(server) + normalize.Pascal(tool) + "Input"
}

func serverInterfaceName(server string) string {
	return normalize.Pascal(server) + "Server"
}

func sortedTools(tools []upstream.ToolDescriptor) []upstream.ToolDescriptor {
	out := append([]upstream.ToolDescriptor(nil), tools...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedServers(toolsByServer map[string][]upstream.ToolDescriptor, allow map[string]bool) []string {
	names := make([]string, 0, len(toolsByServer))
	for name := range toolsByServer {
		if len(allow) > 0 && !allow[name] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, i := range items {
		out[i] = true
	}
	return out
}
