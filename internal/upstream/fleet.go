package upstream

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mcpman/mcpman/internal/config"
	"github.com/mcpman/mcpman/internal/oauth"
)

// BuildOAuthProvider constructs the oauth.Provider a Session needs for an
// http server configured with OAuth, or nil if cfg has none. The token store
// defaults to an in-memory one (per-process only) and the redirect callback
// to logging the authorization URL, since the stdio transport's stdout is
// reserved for the JSON-RPC stream and authorization happens out of band
// from any request anyway.
func BuildOAuthProvider(cfg config.ServerConfig, logger *zap.Logger) *oauth.Provider {
	if cfg.OAuth == nil {
		return nil
	}
	oc := cfg.OAuth
	return oauth.NewProvider(oc.ClientName, oc.RedirectURL, oc.Scopes, oc.ClientID, oc.ClientSecret,
		oauth.NewInMemoryStore(),
		func(authorizationURL string) {
			logger.Info("open this URL to authorize upstream server", zap.String("url", authorizationURL))
		},
	)
}

// Fleet owns every configured upstream Session and fans operations out
// across them concurrently.
type Fleet struct {
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	roots    RootsProvider
}

// NewFleet constructs an empty Fleet; servers are added with AddServer.
func NewFleet(logger *zap.Logger) *Fleet {
	return &Fleet{
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// AddServer registers a configured server and, if enabled, attempts to
// connect it immediately; the returned bool reports whether it reached the
// connected set, consumed by the install meta-tool. Adding a
// name that already exists is a caller error the install handler must
// check for before calling AddServer, not one this method detects.
func (f *Fleet) AddServer(ctx context.Context, name string, cfg config.ServerConfig, oauthProvider *oauth.Provider) bool {
	session := NewSession(name, cfg, f.logger, oauthProvider)

	f.mu.Lock()
	if f.roots != nil {
		session.SetRootsProvider(f.roots)
	}
	f.sessions[name] = session
	f.mu.Unlock()

	if !cfg.Enabled() {
		return false
	}
	if err := session.Connect(ctx); err != nil {
		f.logger.Warn("failed to connect newly added server", zap.String("server", name), zap.Error(err))
		return false
	}
	return true
}

// SetRootsProvider installs the callback every session uses to answer
// "roots/list", including sessions added afterward, and notifies already
// connected sessions of the change.
func (f *Fleet) SetRootsProvider(ctx context.Context, p RootsProvider) {
	f.mu.Lock()
	f.roots = p
	sessions := make([]*Session, 0, len(f.sessions))
	for _, s := range f.sessions {
		s.SetRootsProvider(p)
		sessions = append(sessions, s)
	}
	f.mu.Unlock()

	for _, s := range sessions {
		if s.State() == StateConnected {
			_ = s.NotifyRootsChanged(ctx)
		}
	}
}

// ConnectAll connects every enabled, not-yet-connected server concurrently.
// A server that fails to connect does not prevent the others from
// connecting; per-server errors are returned keyed by server name so the
// caller can decide whether a failure (e.g. ErrUnauthorized) is fatal.
func (f *Fleet) ConnectAll(ctx context.Context) map[string]error {
	f.mu.RLock()
	sessions := make([]*Session, 0, len(f.sessions))
	for _, s := range f.sessions {
		sessions = append(sessions, s)
	}
	f.mu.RUnlock()

	type outcome struct {
		name string
		err  error
	}
	results := make(chan outcome, len(sessions))

	var wg sync.WaitGroup
	for _, s := range sessions {
		if !s.config.Enabled() {
			continue
		}
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			err := s.Connect(ctx)
			results <- outcome{name: s.Name, err: err}
		}(s)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	errs := make(map[string]error)
	for r := range results {
		if r.err != nil {
			errs[r.name] = r.err
			f.logger.Warn("failed to connect upstream server", zap.String("server", r.name), zap.Error(r.err))
		}
	}
	return errs
}

// ConnectServer connects (or reconnects) one named server.
func (f *Fleet) ConnectServer(ctx context.Context, name string) error {
	f.mu.RLock()
	s, ok := f.sessions[name]
	f.mu.RUnlock()
	if !ok {
		return &ErrServerNotConnected{Server: name}
	}
	return s.Connect(ctx)
}

// GetAllTools lists tools from every connected server concurrently, using
// an errgroup so one server's ListTools error doesn't cancel the others'
// in-flight requests. A server whose listTools call fails is recorded with
// an empty list rather than omitted or propagated: this call never
// throws.
func (f *Fleet) GetAllTools(ctx context.Context) (map[string][]ToolDescriptor, error) {
	f.mu.RLock()
	sessions := make([]*Session, 0, len(f.sessions))
	for _, s := range f.sessions {
		if s.State() == StateConnected {
			sessions = append(sessions, s)
		}
	}
	f.mu.RUnlock()

	var mu sync.Mutex
	out := make(map[string][]ToolDescriptor, len(sessions))

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range sessions {
		s := s
		g.Go(func() error {
			tools, err := s.ListTools(gctx)
			if err != nil {
				f.logger.Warn("failed to list tools", zap.String("server", s.Name), zap.Error(err))
				tools = []ToolDescriptor{}
			}
			mu.Lock()
			out[s.Name] = tools
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

// CallTool routes a call to the named server's session.
func (f *Fleet) CallTool(ctx context.Context, server, tool string, args map[string]any) (*ToolResult, error) {
	f.mu.RLock()
	s, ok := f.sessions[server]
	f.mu.RUnlock()
	if !ok {
		return nil, &ErrServerNotConnected{Server: server}
	}
	if s.State() != StateConnected {
		return nil, &ErrServerNotConnected{Server: server}
	}
	return s.CallTool(ctx, tool, args)
}

// GetConnectedServers returns the names of every session currently connected.
func (f *Fleet) GetConnectedServers() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []string
	for name, s := range f.sessions {
		if s.State() == StateConnected {
			out = append(out, name)
		}
	}
	return out
}

// GetConfiguredServers returns every server name registered with the fleet,
// connected or not.
func (f *Fleet) GetConfiguredServers() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.sessions))
	for name := range f.sessions {
		out = append(out, name)
	}
	return out
}

// ServerState reports a configured server's current ConnectionState.
func (f *Fleet) ServerState(name string) (ConnectionState, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.sessions[name]
	if !ok {
		return StateDisconnected, false
	}
	return s.State(), true
}

// DisconnectServer closes one server's session.
func (f *Fleet) DisconnectServer(name string) error {
	f.mu.RLock()
	s, ok := f.sessions[name]
	f.mu.RUnlock()
	if !ok {
		return &ErrServerNotConnected{Server: name}
	}
	return s.Close()
}

// Disconnect closes every session, swallowing per-session errors (logged
// instead), and clears the session map. Idempotent.
func (f *Fleet) Disconnect() {
	f.mu.Lock()
	sessions := make([]*Session, 0, len(f.sessions))
	for _, s := range f.sessions {
		sessions = append(sessions, s)
	}
	f.sessions = make(map[string]*Session)
	f.mu.Unlock()

	for _, s := range sessions {
		if err := s.Close(); err != nil {
			f.logger.Warn("error closing upstream session", zap.String("server", s.Name), zap.Error(err))
		}
	}
}
