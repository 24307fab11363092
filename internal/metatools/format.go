package metatools

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// resultPreviewLimit is the rendered-character budget a $results[i] line
// keeps inline before it is truncated with a pointer back to the index.
const resultPreviewLimit = 250

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// renderValue renders v the way a $results[i] line shows it: strings pass
// through unescaped, everything else is pretty-printed JSON.
func renderValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// formatResultLine renders the `$results[i] = // kind\n<value>` block every
// eval/invoke/code response ends with, truncating long values with a
// pointer back to the stored index rather than dropping them.
func formatResultLine(idx int, kind string, value any) string {
	rendered := renderValue(value)
	return fmt.Sprintf("$results[%d] = // %s\n%s", idx, kind, truncate(rendered, idx, resultPreviewLimit))
}

// truncate keeps the head and tail of s and drops the middle once s is
// longer than limit, replacing it with a marker naming the $results index
// that holds the untruncated value.
func truncate(s string, idx, limit int) string {
	if len(s) <= limit {
		return s
	}
	marker := fmt.Sprintf("\n... see $results[%d] for full result ...\n", idx)
	half := (limit - len(marker)) / 2
	if half < 1 {
		half = 1
	}
	return s[:half] + marker + s[len(s)-half:]
}
