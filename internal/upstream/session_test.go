package upstream

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/mcpman/mcpman/internal/config"
)

func TestMergedEnv_IncludesExtraAndInherited(t *testing.T) {
	os.Setenv("MCPMAN_TEST_INHERITED", "1")
	defer os.Unsetenv("MCPMAN_TEST_INHERITED")

	env := mergedEnv(map[string]string{"MCPMAN_TEST_EXTRA": "2"})
	assert.Contains(t, env, "MCPMAN_TEST_EXTRA=2")
	assert.Contains(t, env, "MCPMAN_TEST_INHERITED=1")
}

func TestSession_ListTools_NotConnected(t *testing.T) {
	s := NewSession("alpha", config.ServerConfig{Transport: config.TransportStdio, Command: "echo"}, zap.NewNop(), nil)
	_, err := s.ListTools(nil)
	assert.Error(t, err)
}

func TestSession_CallTool_NotConnected(t *testing.T) {
	s := NewSession("alpha", config.ServerConfig{Transport: config.TransportStdio, Command: "echo"}, zap.NewNop(), nil)
	_, err := s.CallTool(nil, "anytool", nil)
	assert.Error(t, err)
}

func TestSession_Close_Idempotent(t *testing.T) {
	s := NewSession("alpha", config.ServerConfig{Transport: config.TransportStdio, Command: "echo"}, zap.NewNop(), nil)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.Equal(t, StateDisconnected, s.State())
}

func TestSession_SetRootsProvider(t *testing.T) {
	s := NewSession("alpha", config.ServerConfig{Transport: config.TransportStdio, Command: "echo"}, zap.NewNop(), nil)
	called := false
	s.SetRootsProvider(func() []Root {
		called = true
		return []Root{{URI: "file:///tmp", Name: "tmp"}}
	})
	roots := s.roots()
	assert.True(t, called)
	assert.Equal(t, "tmp", roots[0].Name)
}
