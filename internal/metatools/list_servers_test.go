package metatools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mcpman/mcpman/internal/config"
	"github.com/mcpman/mcpman/internal/upstream"
)

func TestListServers_ReportsConfiguredAndDisconnected(t *testing.T) {
	h := newTestHandlers()
	h.Fleet = upstream.NewFleet(zap.NewNop())
	h.Fleet.AddServer(context.Background(), "alpha", config.ServerConfig{
		Transport: config.TransportStdio,
		Command:   "echo",
		Disabled:  true,
	}, nil)

	res, value, err := h.ListServers(context.Background(), nil, ListServersInput{})
	require.NoError(t, err)
	assert.Contains(t, textOf(res), "alpha")

	summaries, ok := value.(map[string]serverSummary)
	require.True(t, ok)
	assert.False(t, summaries["alpha"].Connected)
	assert.Equal(t, 0, summaries["alpha"].ToolCount)
}
