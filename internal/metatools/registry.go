package metatools

import (
	"fmt"
	"sync"

	"github.com/mcpman/mcpman/internal/config"
)

// Persister is the external collaborator that writes settings back to the
// configuration file (config persistence is out-of-scope for this package
// to own); Settings.Add calls it once per successful install so the new
// server survives a restart.
type Persister func(config.Settings) error

// Settings guards the live server map the install meta-tool mutates.
type Settings struct {
	mu       sync.Mutex
	settings config.Settings
	persist  Persister
}

// NewSettings wraps initial settings for mutation by the install handler.
// persist may be nil, in which case installs are in-memory only.
func NewSettings(initial config.Settings, persist Persister) *Settings {
	if initial.Servers == nil {
		initial.Servers = map[string]config.ServerConfig{}
	}
	return &Settings{settings: initial, persist: persist}
}

// Exists reports whether name already names a configured server.
func (s *Settings) Exists(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.settings.Servers[name]
	return ok
}

// Add registers a new server, persisting the updated settings. On a
// persist failure the in-memory add is rolled back so Settings and the
// backing file never disagree about the collision check.
func (s *Settings) Add(name string, cfg config.ServerConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.settings.Servers[name]; ok {
		return fmt.Errorf("server %q already exists", name)
	}
	s.settings.Servers[name] = cfg
	if s.persist != nil {
		if err := s.persist(s.settings); err != nil {
			delete(s.settings.Servers, name)
			return fmt.Errorf("persist settings: %w", err)
		}
	}
	return nil
}

// Snapshot returns a defensive copy of the current settings.
func (s *Settings) Snapshot() config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.settings
	out.Servers = make(map[string]config.ServerConfig, len(s.settings.Servers))
	for k, v := range s.settings.Servers {
		out.Servers[k] = v
	}
	return out
}
