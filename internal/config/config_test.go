package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerConfigValidate(t *testing.T) {
	t.Run("stdio requires command", func(t *testing.T) {
		cfg := ServerConfig{Transport: TransportStdio}
		assert.Error(t, cfg.Validate())
	})

	t.Run("http requires url", func(t *testing.T) {
		cfg := ServerConfig{Transport: TransportHTTP}
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown transport rejected", func(t *testing.T) {
		cfg := ServerConfig{Transport: "websocket"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("valid stdio config", func(t *testing.T) {
		cfg := ServerConfig{Transport: TransportStdio, Command: "mytool"}
		require.NoError(t, cfg.Validate())
	})
}

func TestServerConfigTimeoutDefault(t *testing.T) {
	cfg := ServerConfig{}
	assert.Equal(t, DefaultTimeoutMS, cfg.Timeout())

	cfg.TimeoutMS = 5000
	assert.Equal(t, 5000, cfg.Timeout())
}

func TestSettingsValidate(t *testing.T) {
	t.Run("rejects bad name", func(t *testing.T) {
		s := Settings{Servers: map[string]ServerConfig{
			"bad name!": {Transport: TransportStdio, Command: "x"},
		}}
		assert.Error(t, s.Validate())
	})

	t.Run("accepts good names", func(t *testing.T) {
		s := Settings{Servers: map[string]ServerConfig{
			"file-system_1": {Transport: TransportStdio, Command: "x"},
		}}
		require.NoError(t, s.Validate())
	})
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("abc-DEF_123"))
	assert.False(t, ValidName("abc def"))
	assert.False(t, ValidName(""))
}
