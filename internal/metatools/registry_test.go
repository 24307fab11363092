package metatools

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpman/mcpman/internal/config"
)

func stdioConfig() config.ServerConfig {
	return config.ServerConfig{Transport: config.TransportStdio, Command: "echo", Disabled: true}
}

func TestSettings_AddAndExists(t *testing.T) {
	s := NewSettings(config.Settings{}, nil)
	assert.False(t, s.Exists("alpha"))

	require.NoError(t, s.Add("alpha", stdioConfig()))
	assert.True(t, s.Exists("alpha"))
}

func TestSettings_AddRejectsCollision(t *testing.T) {
	s := NewSettings(config.Settings{}, nil)
	require.NoError(t, s.Add("alpha", stdioConfig()))

	err := s.Add("alpha", stdioConfig())
	assert.Error(t, err)
}

func TestSettings_AddRollsBackOnPersistFailure(t *testing.T) {
	persist := func(config.Settings) error { return errors.New("disk full") }
	s := NewSettings(config.Settings{}, persist)

	err := s.Add("alpha", stdioConfig())
	require.Error(t, err)
	assert.False(t, s.Exists("alpha"))
}

func TestSettings_SnapshotIsDefensiveCopy(t *testing.T) {
	s := NewSettings(config.Settings{}, nil)
	require.NoError(t, s.Add("alpha", stdioConfig()))

	snap := s.Snapshot()
	snap.Servers["alpha"] = config.ServerConfig{Transport: config.TransportHTTP, URL: "http://changed"}

	assert.True(t, s.Exists("alpha"))
	original := s.Snapshot().Servers["alpha"]
	assert.Equal(t, config.TransportStdio, original.Transport)
}
