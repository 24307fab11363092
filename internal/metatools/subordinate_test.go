package metatools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubSamplingSession struct {
	replies []string
	calls   int
}

func (s *stubSamplingSession) CreateMessage(ctx context.Context, params *mcp.CreateMessageParams) (*mcp.CreateMessageResult, error) {
	reply := s.replies[s.calls]
	if s.calls < len(s.replies)-1 {
		s.calls++
	}
	return &mcp.CreateMessageResult{Content: &mcp.TextContent{Text: reply}}, nil
}

func TestSubordinateAgent_ParsesValidSetCodeCall(t *testing.T) {
	session := &stubSamplingSession{replies: []string{`{"tool":"set_code","code":"() => 1"}`}}
	gen := SubordinateAgentGenerator{Session: session}

	code, err := gen.Generate(context.Background(), "return one", "", 1, "")
	require.NoError(t, err)
	assert.Equal(t, "() => 1", code)
}

func TestSubordinateAgent_RecoversFromOneMalformedReply(t *testing.T) {
	session := &stubSamplingSession{replies: []string{
		"not json at all",
		`{"tool":"set_code","code":"() => 2"}`,
	}}
	gen := SubordinateAgentGenerator{Session: session}

	code, err := gen.Generate(context.Background(), "return two", "", 1, "")
	require.NoError(t, err)
	assert.Equal(t, "() => 2", code)
}

func TestSubordinateAgent_ExhaustsIterationsOnRepeatedGarbage(t *testing.T) {
	session := &stubSamplingSession{replies: []string{"still not json"}}
	gen := SubordinateAgentGenerator{Session: session, MaxIterations: 2}

	_, err := gen.Generate(context.Background(), "anything", "", 1, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted 2 iterations")
}
