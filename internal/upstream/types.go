// Package upstream implements the upstream session and fleet manager:
// lifecycle, transport selection, OAuth handshake, roots forwarding and
// rooted-notification propagation across a heterogeneous set of stdio
// child processes and HTTP sessions.
package upstream

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// ToolDescriptor is one entry from an upstream's listTools response.
// (ServerName, Name) is the stable identifier; Name alone is not globally
// unique.
type ToolDescriptor struct {
	ServerName  string
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// ContentPart is one element of an MCP tool result's content array.
type ContentPart struct {
	Type     string
	Text     string
	MIMEType string
	URI      string
}

// ToolResult is the unwrapped MCP content array from a tool call.
type ToolResult struct {
	Content []ContentPart
	IsError bool
}

// FirstText returns the text of the first text content part, or a
// NoTextContent error if there is none.
func (r ToolResult) FirstText() (string, error) {
	for _, p := range r.Content {
		if p.Type == "text" {
			return p.Text, nil
		}
	}
	return "", fmt.Errorf("NoTextContent: result has no text content part")
}

// Root is a client-supplied filesystem root MCPMan forwards upstream.
type Root struct {
	URI  string
	Name string
}

// RootsProvider is installed on the Fleet and queried whenever an upstream
// session asks listRoots.
type RootsProvider func() []Root

// ConnectionState is one of the states a Session moves through.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateFailed
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrServerNotConnected is returned by Fleet.CallTool, ConnectServer and
// DisconnectServer for a server the fleet does not hold (and by CallTool
// for one that is not connected), and by Session calls made without a live
// connection.
type ErrServerNotConnected struct {
	Server string
}

func (e *ErrServerNotConnected) Error() string {
	return fmt.Sprintf("server %q not connected", e.Server)
}

// ErrUnauthorized surfaces an HTTP 401 challenge from an OAuth-guarded
// upstream; it is propagated once from connectAll, never retried
// automatically.
type ErrUnauthorized struct {
	Server string
	Detail string
}

func (e *ErrUnauthorized) Error() string {
	return fmt.Sprintf("server %q requires authorization: %s (run the auth flow to proceed)", e.Server, e.Detail)
}
